// Package storage provides the key/value store backing the webhook delivery ledger.
//
// mysql and postgres use the gofiber storage drivers against the application
// database. sqlite has no fiber driver sharing the gorm connection, so Gorm
// keeps entries in the storage_entries table instead.
package storage

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/dsn"
)

const (
	// Table holds the ledger entries for the fiber storage drivers.
	Table = "webhook_deliveries"

	gcInterval = 10 * time.Minute
)

// New returns the storage matching the configured database engine.
func New(cfg *config.Config, db *gorm.DB) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.StorageURI(cfg),
			Table:         Table,
			GCInterval:    gcInterval,
		})
	case config.GormEnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.StorageURI(cfg),
			Table:         Table,
			GCInterval:    gcInterval,
		})
	default:
		return NewGorm(db)
	}
}
