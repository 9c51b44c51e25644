package database

import (
	"fmt"
	"log"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// InitDB initializes the database connection with configuration
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	var err error

	pgConfig := postgres.Config{
		DSN:                  dbConfig.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(dbConfig.LogLevel),
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return nil, err
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get database object: %v", err)
		return nil, err
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	fmt.Println("Database connected successfully")

	return DB, nil
}

// Migrate creates or updates the table structure for all application models.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}

	err := DB.AutoMigrate(
		&model.User{},
		&model.Tenant{},
		&model.UserTenant{},
		&model.TenantSettings{},
		&model.RefreshToken{},
		&model.Account{},
		&model.JournalEntry{},
		&model.JournalLine{},
		&model.LedgerEntry{},
		&model.Customer{},
		&model.Vendor{},
		&model.Item{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.Bill{},
		&model.BillLine{},
		&model.Payment{},
		&model.Attachment{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
