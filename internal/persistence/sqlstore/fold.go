package sqlstore

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// SQLite's LOWER folds ASCII only; course search needs "École" to match "école".
const sqliteFoldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1, foldValue)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// lowerFunc names the case-folding function for the active dialect.
func (s *Store) lowerFunc() string {
	if s.dialect == DialectSQLite {
		return sqliteFoldFunc
	}
	return "LOWER"
}
