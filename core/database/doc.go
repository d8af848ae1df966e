// Package database handles database connections.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections based
// on the application's configuration. The library status table itself is owned by
// core/status; this package only knows how to open and verify a connection.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
