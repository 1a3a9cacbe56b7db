package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverJSON   = "json"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds environment-driven configuration for both binaries.
type Config struct {
	Server struct {
		Addr       string // default: :3001
		CORSOrigin string // default: *
	}
	Store struct {
		Driver     string // json (default), mysql, sqlite
		DataFile   string // json driver: path of the entries document
		SQLitePath string
	}
	MySQL struct {
		DSN string // e.g., user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	}
	Client struct {
		APIURL      string // default: http://localhost:3001/api
		SessionFile string // mirror of the running entry
		LogFile     string // empty disables client logging
	}
}

// Load reads configuration from environment variables and, when
// TIMETRACKER_CONFIG names a file, from that YAML file. Env wins over file.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("TIMETRACKER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":3001")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("store_driver", DriverJSON)
	v.SetDefault("data_file", filepath.Join("data", "entries.json"))
	v.SetDefault("sqlite_path", filepath.Join("data", "entries.db"))
	v.SetDefault("mysql_dsn", "")
	v.SetDefault("api_url", "http://localhost:3001/api")
	v.SetDefault("session_file", defaultSessionFile())
	v.SetDefault("timetracker_log", "")
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config

	cfg.Server.Addr = v.GetString("addr")
	cfg.Server.CORSOrigin = v.GetString("cors_origin")

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v.GetString("store_driver")))
	cfg.Store.DataFile = v.GetString("data_file")
	cfg.Store.SQLitePath = v.GetString("sqlite_path")
	cfg.MySQL.DSN = v.GetString("mysql_dsn")

	switch cfg.Store.Driver {
	case DriverJSON:
		if cfg.Store.DataFile == "" {
			return cfg, errors.New("DATA_FILE must not be empty")
		}
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			return cfg, errors.New("SQLITE_PATH must not be empty")
		}
	case DriverMySQL:
		if cfg.MySQL.DSN == "" {
			return cfg, errors.New("MYSQL_DSN is required when STORE_DRIVER=mysql")
		}
	default:
		return cfg, fmt.Errorf("STORE_DRIVER must be one of json, mysql, sqlite (got %q)", cfg.Store.Driver)
	}

	cfg.Client.APIURL = strings.TrimRight(v.GetString("api_url"), "/")
	cfg.Client.SessionFile = v.GetString("session_file")
	cfg.Client.LogFile = v.GetString("timetracker_log")

	return cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".timetracker-current.json"
	}
	return filepath.Join(dir, "timetracker", "current.json")
}
