package postgres

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DSN is a parsed PostgreSQL connection URL of the form
// psql://<user>:<password>@<host>:<port>/<database>?<options>. The special
// option schema selects the schema holding the hash tables, other options are
// passed as is to the driver.
type DSN struct {
	redacted string

	Host     string
	Port     int64
	Username string
	Password string
	Database string
	Schema   string
	Options  []string
}

func ParseDSN(dsn string) (*DSN, error) {
	dsnURL, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	switch dsnURL.Scheme {
	case "psql", "postgres", "postgresql":
	default:
		return nil, fmt.Errorf("invalid scheme %q, expecting psql://", dsnURL.Scheme)
	}

	port := int64(5432)
	if strPort := dsnURL.Port(); strPort != "" {
		port, err = strconv.ParseInt(strPort, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", strPort, err)
		}
	}

	host := dsnURL.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}

	database := strings.TrimPrefix(dsnURL.Path, "/")
	if database == "" {
		return nil, fmt.Errorf("missing database name")
	}

	out := &DSN{
		redacted: dsnURL.Redacted(),
		Host:     host,
		Port:     port,
		Database: database,
		Schema:   "public",
	}

	if dsnURL.User != nil {
		out.Username = dsnURL.User.Username()
		out.Password, _ = dsnURL.User.Password()
	}

	query := dsnURL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "schema" {
			out.Schema = query.Get(key)
			continue
		}

		out.Options = append(out.Options, fmt.Sprintf("%s=%s", key, quoteValue(query.Get(key))))
	}

	return out, nil
}

// DSN returns the key/value connection string understood by lib/pq and pgx.
func (c *DSN) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", quoteValue(c.Host)),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", quoteValue(c.Database)),
	}

	if c.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", quoteValue(c.Username)))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteValue(c.Password)))
	}

	return strings.Join(append(parts, c.Options...), " ")
}

var dsnValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteValue single quotes a connection string value when it is empty or
// holds a space, a quote or a backslash, escaping the last two.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}

	return "'" + dsnValueEscaper.Replace(v) + "'"
}

// String returns the connection URL with its password masked.
func (c *DSN) String() string {
	return c.redacted
}
