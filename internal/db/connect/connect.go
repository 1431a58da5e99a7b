// Package connect opens the gorm database selected by the configuration.
package connect

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/dsn"
	"github.com/imaginify/usersync/internal/logger/adapter/stdlogger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.GormEnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg)), nil
	case config.GormEngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, config.ErrUnsupportedGormEngine
	}
}

// Open connects to the configured database. SQL warnings and slow queries
// are written to the global zerolog logger.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(stdlogger.NewWithLevel(zerolog.WarnLevel), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s database", cfg.DB.GormEngine)
	}

	// a sqlite database is a single file, serialize writers
	if cfg.DB.GormEngine == config.GormEngineSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sql handle")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
