package store

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Drivers understood by Open.
const (
	SQLite = "sqlite"
	MySQL  = "mysql"
)

// normalizeMySQLDSN accepts either a driver DSN or a mysql:// (mariadb://) URL
// and returns a driver DSN with parseTime enabled.
func normalizeMySQLDSN(input string) (string, error) {
	dsn := input
	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("parse mysql url: %w", err)
		}
		if u.Scheme != "mysql" && u.Scheme != "mariadb" {
			return "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return "", fmt.Errorf("missing host in database url")
		}

		user := ""
		if u.User != nil {
			user = u.User.Username()
			if password, ok := u.User.Password(); ok {
				user = fmt.Sprintf("%s:%s", user, password)
			}
			user += "@"
		}
		host := u.Host
		if u.Port() == "" {
			host = net.JoinHostPort(u.Hostname(), "3306")
		}
		path := strings.TrimPrefix(u.Path, "/")
		if path == "" {
			return "", fmt.Errorf("missing database name in url path")
		}
		dsn = fmt.Sprintf("%stcp(%s)/%s", user, host, path)
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// driverFor infers the driver from a DSN when none is configured.
func driverFor(driver, dsn string) string {
	if driver != "" {
		return driver
	}
	if strings.HasPrefix(dsn, "mysql://") || strings.HasPrefix(dsn, "mariadb://") || strings.Contains(dsn, "@tcp(") {
		return MySQL
	}
	return SQLite
}
