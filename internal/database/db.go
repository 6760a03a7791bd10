package database

import (
	"fmt"
	"time"

	"mandi-backend/internal/config"
	"mandi-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres and runs migrations. The returned handle is passed
// to the store; nothing in the application reads a package-level connection.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         newGormLogger(cfg.DBLogLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db, log); err != nil {
		return nil, err
	}

	log.Info("database connected, migrations complete")
	return db, nil
}

func Migrate(db *gorm.DB, log *logrus.Logger) error {
	// Early schemas let visibility default to NULL; treat those as visible
	// before AutoMigrate tightens the column.
	if db.Migrator().HasTable(&models.Customer{}) && db.Migrator().HasColumn(&models.Customer{}, "visible") {
		res := db.Exec("UPDATE customers SET visible = TRUE WHERE visible IS NULL")
		if res.Error != nil {
			log.WithError(res.Error).Warn("could not backfill customers.visible")
		} else if res.RowsAffected > 0 {
			log.WithField("rows", res.RowsAffected).Info("backfilled customers.visible")
		}
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Fruit{},
		&models.FruitCategory{},
		&models.SaleTransaction{},
		&models.TrayTransaction{},
		&models.LedgerDiscrepancy{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Composite index for the default customer listing (owner, visible, name).
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))").Error; err != nil {
		log.WithError(err).Warn("could not create idx_users_email_lower")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_customers_owner_visible_name ON customers(owner_id, visible, name)").Error; err != nil {
		log.WithError(err).Warn("could not create idx_customers_owner_visible_name")
	}
	return nil
}

func newGormLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error
	}
	return logger.Default.LogMode(logLevel)
}
