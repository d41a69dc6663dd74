package destination

import (
	"fmt"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// dialect captures the SQL differences between drivers.
type dialect struct {
	name        string
	quote       func(ident string) string
	placeholder func(n int) string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{name: driver, quote: doubleQuote, placeholder: question}, nil
	case DriverPostgres:
		return dialect{name: driver, quote: doubleQuote, placeholder: dollar}, nil
	case DriverMySQL:
		return dialect{name: driver, quote: backtick, placeholder: question}, nil
	default:
		return dialect{}, fmt.Errorf("destination: unsupported driver %q", driver)
	}
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func backtick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func question(int) string {
	return "?"
}

func dollar(n int) string {
	return fmt.Sprintf("$%d", n)
}
