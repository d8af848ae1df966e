// Package config provides configuration management for library-alert.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: management API port and API key
//   - Database: connection details and the library status table name
//   - Storage: S3/MinIO credentials for the notification archive
//   - Log: Logging level and format
//   - Calil: availability API application key, polling budget and interval
//   - Mail: recipient address and SMTP credential
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Calil.MaxAttempts)
package config
