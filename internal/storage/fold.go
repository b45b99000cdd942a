package storage

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the case fold applied to both sides of a
// keyword match. SQLite's own lower() only folds ASCII.
const foldFunc = "ems_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return Fold(v), nil
		case []byte:
			return Fold(string(v)), nil
		default:
			return v, nil
		}
	})
}

// Fold lowercases s with Unicode case mapping. Keyword patterns and stored
// text go through the same function.
func Fold(s string) string {
	return strings.ToLower(s)
}
