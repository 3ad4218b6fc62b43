package main

import (
	"core_banking/internal/config" // Custom import path (Config)
	"core_banking/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	dialector, err := db.Dialector(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logrus.Fatalf("invalid database config: %v", err)
	}
	database, err := db.Open(dialector, cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatal(err)
	}
}
