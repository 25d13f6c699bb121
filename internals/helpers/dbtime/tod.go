// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tod is a Postgres TIME (time of day) column, e.g. a slot's start_time.
type Tod struct{ time.Time }

// From: Tod from a time.Time (keeps HH:mm:ss, drops date & zone)
func From(t time.Time) Tod {
	return Tod{
		Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
	}
}

// Parse: Tod from "HH:mm[:ss]"
func Parse(s string) (Tod, error) {
	var tt Tod
	return tt, tt.parse(s)
}

func MustParse(s string) Tod {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Scan: accepts time.Time or string ("HH:MM[:SS]")
func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*t = From(x)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 { // "HH:MM"
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("tod: %q is not HH:MM[:SS]", s)
	}
	t.Time = tt
	return nil
}

// Value: sends "HH:MM:SS" for Postgres TIME
func (t Tod) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t Tod) String() string {
	if t.Time.IsZero() {
		return "00:00:00"
	}
	return t.Format("15:04:05")
}

// GormDataType makes AutoMigrate create a TIME column.
func (Tod) GormDataType() string { return "time" }

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format("15:04"))
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
