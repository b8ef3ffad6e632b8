package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// Database wraps the optional audit store. All writes are best-effort history
// rows; the contract is the source of truth and a nil Database is fully
// supported (the monitor just skips persistence).
type Database struct {
	gorm *gorm.DB
}

// Connect opens the postgres audit database and migrates the history tables.
func Connect(dsn string) (*Database, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&models.ScanCycleRecord{},
		&models.RefuelRecord{},
		&models.RelaySubmission{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("✅ Database connected and migrated")
	return &Database{gorm: gdb}, nil
}

// SaveScanCycle persists one cycle summary.
func (d *Database) SaveScanCycle(record *models.ScanCycleRecord) error {
	if d == nil {
		return nil
	}
	return d.gorm.Create(record).Error
}

// SaveRefuel persists one refuel trigger outcome.
func (d *Database) SaveRefuel(record *models.RefuelRecord) error {
	if d == nil {
		return nil
	}
	return d.gorm.Create(record).Error
}

// SaveRelaySubmission persists one forwarded meta-transaction outcome.
func (d *Database) SaveRelaySubmission(record *models.RelaySubmission) error {
	if d == nil {
		return nil
	}
	return d.gorm.Create(record).Error
}

// RecentRefuels returns the latest refuel rows, newest first.
func (d *Database) RecentRefuels(limit int) ([]models.RefuelRecord, error) {
	if d == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []models.RefuelRecord
	err := d.gorm.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// RecentScanCycles returns the latest cycle rows, newest first.
func (d *Database) RecentScanCycles(limit int) ([]models.ScanCycleRecord, error) {
	if d == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var records []models.ScanCycleRecord
	err := d.gorm.Order("started_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
