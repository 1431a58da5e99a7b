// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/imaginify/usersync/internal/config"
)

// Create builds the gorm Data Source Name from the configuration.
// DB.URL, when set, is returned unchanged.
func Create(dbCfg *config.Config) string {
	db := dbCfg.DB

	if db.URL != "" {
		return db.URL
	}

	switch db.GormEngine {
	case config.GormEnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	case config.GormEngineSQLite:
		if db.Extras != "" {
			return db.Name + "?" + db.Extras
		}

		return db.Name
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	}
}

// StorageURI builds the connection URI expected by the fiber storage drivers.
// mysql storage takes the gorm DSN, postgres storage a postgres:// URL.
func StorageURI(dbCfg *config.Config) string {
	db := dbCfg.DB

	if db.GormEngine != config.GormEnginePostgres || db.URL != "" {
		return Create(dbCfg)
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   "/" + db.Name,
	}

	return u.String()
}
