package repository

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// stringList stores an ordered list of strings as a JSON array in a text column.
type stringList []string

// Value implements driver.Valuer. A nil list is stored as "[]". HTML
// characters are kept literal so LIKE searches match what users typed.
func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.MarshalWithOption([]string(l), json.DisableHTMLEscape())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("stringList: cannot scan %T", src)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		*l = stringList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("stringList: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// timestamp scans the time representations returned by the supported drivers.
type timestamp time.Time

// Scan implements sql.Scanner.
func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts = timestamp(v.UTC())
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts = timestamp(time.Time{})
		return nil
	}
	return fmt.Errorf("timestamp: cannot scan %T", src)
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = timestamp(t.UTC())
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

// Time returns the scanned value.
func (ts timestamp) Time() time.Time {
	return time.Time(ts)
}

// now is the clock used for created_at and added_at.
var now = func() time.Time {
	return time.Now().UTC()
}
