package db

import (
	"fmt"  // Error wrapping
	"time" // UTC clock for GORM timestamps

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // PostgreSQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logger
)

// Dialector picks the GORM dialector for a driver name
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql", "":
		return mysql.Open(dsn), nil // Default, as deployed
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Open connects with settings every caller shares: driver errors are
// translated (duplicate keys become gorm.ErrDuplicatedKey) and timestamps are UTC.
func Open(dialector gorm.Dialector, isProd bool) (*gorm.DB, error) {
	level := logger.Warn // Only slow queries and errors by default
	if isProd {
		level = logger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logrus.WithField("dialect", dialector.Name()).Info("Database connected")
	return db, nil
}
