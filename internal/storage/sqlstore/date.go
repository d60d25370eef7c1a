package sqlstore

import (
	"fmt"
	"strings"
	"time"
)

// dbDate scans a calendar date from lib/pq (time.Time) or SQLite (TEXT).
type dbDate time.Time

// Scan implements sql.Scanner.
func (d *dbDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = dbDate(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		*d = dbDate(time.Time{})
		return nil
	}
	return fmt.Errorf("trip_date: unsupported type %T", src)
}

func (d *dbDate) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("trip_date: %w", err)
	}
	*d = dbDate(t)
	return nil
}
