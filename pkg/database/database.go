package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
)

const mysqlTLSConfigName = "irisetl-ca"

// Params are the connection parameters for the destination database.
type Params struct {
	Driver   string
	User     string
	Password string
	Host     string
	Port     int
	Name     string
	// SSLPath is the CA certificate used to verify the server.
	SSLPath string
}

// DSN builds the driver-specific connection string for p. The connect
// timeout is encoded in the DSN where the driver supports it; statements are
// bounded by their context.
func DSN(p Params, timeout time.Duration) (string, error) {
	addr := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))

	switch p.Driver {
	case "mysql":
		if err := registerMySQLTLS(p.SSLPath); err != nil {
			return "", err
		}
		mc := mysql.NewConfig()
		mc.User = p.User
		mc.Passwd = p.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = p.Name
		mc.TLSConfig = mysqlTLSConfigName
		mc.Timeout = timeout
		return mc.FormatDSN(), nil

	case "postgres":
		q := url.Values{}
		q.Set("sslmode", "verify-full")
		q.Set("sslrootcert", p.SSLPath)
		q.Set("connect_timeout", strconv.Itoa(int(timeout.Seconds())))
		u := &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(p.User, p.Password),
			Host:     addr,
			Path:     "/" + p.Name,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case "sqlserver":
		q := url.Values{}
		q.Set("database", p.Name)
		q.Set("encrypt", "true")
		q.Set("certificate", p.SSLPath)
		q.Set("dial timeout", strconv.Itoa(int(timeout.Seconds())))
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(p.User, p.Password),
			Host:     addr,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case "sqlite3":
		// DB_NAME is the database file; host and credentials are unused.
		return p.Name, nil

	default:
		return "", etlerrors.Newf("unsupported SQL driver %q", p.Driver)
	}
}

func registerMySQLTLS(caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return etlerrors.Wrapf(err, "error reading CA certificate '%s'", caPath)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return etlerrors.Newf("no certificates found in '%s'", caPath)
	}
	return mysql.RegisterTLSConfig(mysqlTLSConfigName, &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
}

// ConnectSQL opens and pings the destination database and returns it with
// its dialect.
func ConnectSQL(ctx context.Context, p Params, timeout time.Duration) (*sql.DB, Dialect, error) {
	dialect, err := LookupDialect(p.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := DSN(p, timeout)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(p.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, etlerrors.Wrap(err, "error opening SQL database")
	}
	// Batches are written strictly one after another.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, Dialect{}, etlerrors.Wrap(err, "error connecting to SQL database (ping failed)")
	}

	logger.L().Info().Str("driver", p.Driver).Str("host", p.Host).Str("database", p.Name).
		Msg("Successfully connected to SQL database.")
	return db, dialect, nil
}

// ConnectMongo connects to MongoDB and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, connString string, timeout time.Duration) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(connString).SetTimeout(timeout))
	if err != nil {
		return nil, etlerrors.Wrap(err, "error creating MongoDB client")
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeout)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)

		return nil, etlerrors.Wrap(err, "error connecting to MongoDB (ping failed)")
	}

	logger.Info("Successfully connected to MongoDB.")
	return client, nil
}
