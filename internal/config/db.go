package config

const (
	// GormEngineMySQL selects the gorm mysql driver.
	GormEngineMySQL = "mysql"
	// GormEnginePostgres selects the gorm postgres driver.
	GormEnginePostgres = "postgres"
	// GormEngineSQLite selects the pure go sqlite driver. Name is the database file.
	GormEngineSQLite = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	URL        string // complete DSN, takes precedence over the single fields
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}
