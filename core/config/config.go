package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"library-alert/core/availability"
	"library-alert/core/database"
	"library-alert/core/logger"
	"library-alert/core/notify"
	"library-alert/core/server"
	"library-alert/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingSetting is returned by Validate for each required key left empty.
var ErrMissingSetting = errors.New("missing required setting")

// Config is the full application configuration, one section per subsystem.
// Every leaf field carries a mapstructure key and an optional default tag;
// the environment variable for a key is its upper-cased path joined by "_".
type Config struct {
	Server   server.Config       `mapstructure:"server"`
	Database database.Config     `mapstructure:"database"`
	Storage  storage.Config      `mapstructure:"storage"`
	Log      logger.Config       `mapstructure:"log"`
	Calil    availability.Config `mapstructure:"calil"`
	Mail     notify.Config       `mapstructure:"mail"`
}

// LoadConfig reads dir/.env (when present) into the process environment and
// decodes the environment over the tagged defaults.
func LoadConfig(dir string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	for key, value := range Defaults() {
		// Registering every key, even with an empty default, lets AutomaticEnv resolve it
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Defaults maps every dotted config key to its default tag value.
func Defaults() map[string]string {
	out := map[string]string{}
	collectDefaults(reflect.TypeFor[Config](), nil, out)
	return out
}

func collectDefaults(t reflect.Type, path []string, out map[string]string) {
	for _, field := range reflect.VisibleFields(t) {
		name, ok := field.Tag.Lookup("mapstructure")
		if !ok || name == "" || !field.IsExported() {
			continue
		}
		key := append(append([]string{}, path...), name)
		if field.Type.Kind() == reflect.Struct {
			collectDefaults(field.Type, key, out)
			continue
		}
		out[strings.Join(key, ".")] = field.Tag.Get("default")
	}
}

// Validate reports the settings a reconciliation run cannot work without.
func (c *Config) Validate() error {
	var errs []error
	if c.Calil.AppKey == "" {
		errs = append(errs, fmt.Errorf("%w: CALIL_APP_KEY", ErrMissingSetting))
	}
	if c.Mail.Address == "" {
		errs = append(errs, fmt.Errorf("%w: MAIL_ADDRESS", ErrMissingSetting))
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		errs = append(errs, fmt.Errorf("%w: STORAGE_BUCKET", ErrMissingSetting))
	}
	return errors.Join(errs...)
}
