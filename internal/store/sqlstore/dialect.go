package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures the few places where sqlite and postgres differ.
type dialect struct {
	name string
	like string
}

var (
	sqliteDialect   = dialect{name: DriverSQLite, like: "LIKE"}
	postgresDialect = dialect{name: DriverPostgres, like: "ILIKE"}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, errors.New("unsupported driver: " + driver)
	}
}

// rebind rewrites ? placeholders to $1..$n for postgres.
// Queries in this package never contain a literal '?'.
func (d dialect) rebind(query string) string {
	if d.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique constraint failure.
func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
