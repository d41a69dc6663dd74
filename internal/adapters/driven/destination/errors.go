package destination

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// MySQL server error numbers.
const (
	mysqlNoSuchTable   = 1146
	mysqlUnknownColumn = 1054
)

// isUndefinedTable reports whether err says the table does not exist.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "undefined_table"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNoSuchTable
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}

// isUndefinedColumn reports whether err says a column does not exist.
func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "undefined_column"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlUnknownColumn
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such column")
}
