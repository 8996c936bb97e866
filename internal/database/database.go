// Package database opens the GORM connection and owns schema setup and seed data.
package database

import (
	"context"
	"fmt"
	"log"

	"bienesraices/internal/config"
	"bienesraices/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.DBDriver.
// Unique-constraint violations are translated to gorm.ErrDuplicatedKey.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
	return OpenDialector(dialector)
}

// OpenDialector opens a connection with the application's GORM settings.
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DefaultCategories are the listing categories loaded by the seed command.
var DefaultCategories = []models.Category{
	{Name: "Casa"},
	{Name: "Departamento"},
	{Name: "Bodega"},
	{Name: "Terreno"},
	{Name: "Cabaña"},
}

// DefaultPrices are the price brackets loaded by the seed command.
var DefaultPrices = []models.Price{
	{Name: "0 - $10,000 USD"},
	{Name: "$10,000 - $30,000 USD"},
	{Name: "$30,000 - $50,000 USD"},
	{Name: "$50,000 - $75,000 USD"},
	{Name: "$75,000 - $100,000 USD"},
	{Name: "$150,000 - $200,000 USD"},
	{Name: "$300,000 - $350,000 USD"},
	{Name: "$350,000 - $400,000 USD"},
	{Name: "+$400,000 USD"},
}

// Seed inserts the default categories and prices in a single transaction.
func Seed(ctx context.Context, db *gorm.DB) error {
	categories := append([]models.Category(nil), DefaultCategories...)
	prices := append([]models.Price(nil), DefaultPrices...)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&categories).Error; err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		if err := tx.Create(&prices).Error; err != nil {
			return fmt.Errorf("failed to seed prices: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Seeded %d categories and %d prices", len(categories), len(prices))
	return nil
}

// Reset drops every table and recreates an empty schema.
func Reset(db *gorm.DB) error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return Migrate(db)
}
