package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Port             string
	DBDriver         string // "mysql" or "sqlite"
	DBDSN            string
	InventoryBaseURL string
	RemoteTimeout    time.Duration
}

// FromEnv builds the service configuration from the environment. sqlite is
// the local fallback so the services run without a database server.
func FromEnv(defaultPort, defaultDBFile string) Config {
	cfg := Config{
		Port:             envDefault("PORT", defaultPort),
		DBDriver:         envDefault("DB_DRIVER", "sqlite"),
		DBDSN:            envDefault("DB_DSN", defaultDBFile),
		InventoryBaseURL: envDefault("INVENTORY_BASE_URL", "http://localhost:8081"),
		RemoteTimeout:    10 * time.Second,
	}
	if v := strings.TrimSpace(os.Getenv("REMOTE_TIMEOUT_SECONDS")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RemoteTimeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// OpenDB opens the configured database connection.
func (c Config) OpenDB() (*gorm.DB, error) {
	switch c.DBDriver {
	case "mysql":
		return gorm.Open(mysql.Open(c.DBDSN), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(c.DBDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
