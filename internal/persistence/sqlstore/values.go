package sqlstore

import (
	"database/sql"
	"fmt"
	"time"
)

// sqliteTimeLayout is fixed width so TEXT columns sort chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeArg formats t for the active dialect.
func (s *Store) timeArg(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// timeValue scans TEXT or native timestamp columns into a time.Time.
type timeValue struct {
	dst *time.Time
}

func (v timeValue) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		*v.dst = time.Time{}
		return nil
	case time.Time:
		*v.dst = x.UTC()
		return nil
	case string:
		return v.parse(x)
	case []byte:
		return v.parse(string(x))
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into time", src)
	}
}

func (v timeValue) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*v.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("sqlstore: unrecognised timestamp %q", s)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	value := ns.String
	return &value
}

func stringArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
