package availability

import "time"

// Config holds configuration for the calil availability API.
type Config struct {
	// AppKey is the calil application key.
	AppKey string `mapstructure:"app_key" default:""`
	// BaseURL is the API root; the client calls {BaseURL}/check.
	BaseURL string `mapstructure:"base_url" default:"https://api.calil.jp"`
	// MaxAttempts bounds how many times a lookup is issued while the service reports continue=1.
	MaxAttempts int `mapstructure:"max_attempts" default:"20"`
	// Interval is the wait between receiving a response and issuing the next attempt.
	Interval time.Duration `mapstructure:"interval" default:"5s"`
	// TimeoutSeconds bounds a single HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
