package destination

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Options describe how to reach the destination database. DSN, when set,
// is used verbatim; otherwise it is built from the remaining fields.
type Options struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// DataSourceName returns the driver-specific connection string.
func (o Options) DataSourceName() (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}

	switch o.Driver {
	case DriverSQLite:
		if o.Name == "" {
			return "", fmt.Errorf("destination: sqlite needs a dsn or database name")
		}
		return o.Name + "?_pragma=busy_timeout(5000)", nil
	case DriverPostgres:
		port := o.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			Host:     net.JoinHostPort(o.hostOrLocal(), strconv.Itoa(port)),
			Path:     "/" + o.Name,
			RawQuery: "sslmode=disable",
		}
		if o.User != "" {
			u.User = url.UserPassword(o.User, o.Password)
		}
		return u.String(), nil
	case DriverMySQL:
		port := o.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = o.User
		cfg.Passwd = o.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(o.hostOrLocal(), strconv.Itoa(port))
		cfg.DBName = o.Name
		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("destination: unsupported driver %q", o.Driver)
	}
}

func (o Options) hostOrLocal() string {
	if o.Host == "" {
		return "localhost"
	}
	return o.Host
}

// Open connects to the destination database and returns a reconciler over it.
func Open(opts Options) (*Reconciler, error) {
	dsn, err := opts.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening destination: %w", err)
	}
	if opts.Driver == DriverSQLite {
		// Concurrent deferred transactions cannot upgrade to a write lock
		// without SQLITE_BUSY, so writers share one connection.
		db.SetMaxOpenConns(1)
	}

	r, err := New(db, opts.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.owned = true
	return r, nil
}
