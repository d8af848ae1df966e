package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the management API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// ListenAddr returns the address passed to the listener.
// A bare port ("8080") is turned into ":8080"; host:port values are kept.
func (c Config) ListenAddr() string {
	if c.Port == "" {
		return ":8080"
	}
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
