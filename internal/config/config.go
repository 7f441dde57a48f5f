// Package config resolves the process settings: credentials and endpoints
// from the environment, pipeline tunables from an optional YAML file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BartekS5/irisetl/pkg/database"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/objectstore"
)

// Config holds all configuration for the application,
// typically loaded from environment variables.
type Config struct {
	DB      DBConfig
	Storage StorageConfig
	Ledger  LedgerConfig
	// LogLevel comes from LOG_LEVEL; empty means info.
	LogLevel string
}

// DBConfig describes the destination relational store.
type DBConfig struct {
	Driver   string
	User     string
	Password string
	Host     string
	Port     int
	Name     string
	// SSLPath is the CA certificate used to verify the server.
	SSLPath string
}

// Params returns the connection parameters for pkg/database.
func (c DBConfig) Params() database.Params {
	return database.Params{
		Driver:   c.Driver,
		User:     c.User,
		Password: c.Password,
		Host:     c.Host,
		Port:     c.Port,
		Name:     c.Name,
		SSLPath:  c.SSLPath,
	}
}

// StorageConfig describes the S3-compatible object store.
type StorageConfig struct {
	EndpointURL string
	AccessKey   string
	SecretKey   string
	Bucket      string
}

// Endpoint returns the object-store endpoint for pkg/objectstore.
func (c StorageConfig) Endpoint() objectstore.Endpoint {
	return objectstore.Endpoint{URL: c.EndpointURL, AccessKey: c.AccessKey, SecretKey: c.SecretKey}
}

// LedgerConfig enables the MongoDB run ledger when ConnString is set.
type LedgerConfig struct {
	ConnString string
	Database   string
}

func (l LedgerConfig) Enabled() bool {
	return l.ConnString != ""
}

const (
	DefaultDriver         = "mysql"
	DefaultLedgerDatabase = "irisetl"
)

var supportedDrivers = []string{"mysql", "postgres", "sqlserver", "sqlite3"}

// LoadConfig loads every setting the full pipeline needs. All missing keys
// are reported together in a single ConfigurationError.
func LoadConfig() (*Config, error) {
	r := &resolver{invalid: map[string]string{}}

	cfg := &Config{
		DB: DBConfig{
			Driver:   r.optional("DB_DRIVER", DefaultDriver),
			User:     r.required("DB_USER"),
			Password: r.required("DB_PASS"),
			Host:     r.required("DB_HOST"),
			Port:     r.port("DB_PORT"),
			Name:     r.required("DB_NAME"),
			SSLPath:  r.required("SSL_PATH"),
		},
		Storage:  r.storage(),
		Ledger:   r.ledger(),
		LogLevel: os.Getenv("LOG_LEVEL"),
	}
	r.driver(cfg.DB.Driver)

	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorageConfig loads only the object-store settings, for commands that
// never touch the database.
func LoadStorageConfig() (*Config, error) {
	r := &resolver{invalid: map[string]string{}}
	cfg := &Config{
		Storage:  r.storage(),
		LogLevel: os.Getenv("LOG_LEVEL"),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type resolver struct {
	missing []string
	invalid map[string]string
}

func (r *resolver) required(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *resolver) optional(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *resolver) port(key string) int {
	v := r.required(key)
	if v == "" {
		return 0
	}
	p, err := strconv.Atoi(v)
	if err != nil || p <= 0 || p > 65535 {
		r.invalid[key] = "must be a TCP port number, got " + strconv.Quote(v)
		return 0
	}
	return p
}

func (r *resolver) driver(name string) {
	for _, d := range supportedDrivers {
		if d == name {
			return
		}
	}
	r.invalid["DB_DRIVER"] = "unsupported driver " + strconv.Quote(name) + ", want one of " + strings.Join(supportedDrivers, ", ")
}

func (r *resolver) storage() StorageConfig {
	return StorageConfig{
		EndpointURL: r.required("S3_ENDPOINT_URL"),
		AccessKey:   r.required("S3_ACCESS"),
		SecretKey:   r.required("S3_SECRET"),
		Bucket:      r.required("S3_BUCKET_NAME"),
	}
}

func (r *resolver) ledger() LedgerConfig {
	return LedgerConfig{
		ConnString: os.Getenv("MONGO_CONNECTION_STRING"),
		Database:   r.optional("MONGO_DATABASE", DefaultLedgerDatabase),
	}
}

func (r *resolver) err() error {
	if len(r.missing) == 0 && len(r.invalid) == 0 {
		return nil
	}
	var invalid map[string]string
	if len(r.invalid) > 0 {
		invalid = r.invalid
	}
	return etlerrors.NewConfigurationError(r.missing, invalid)
}
