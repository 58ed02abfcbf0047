package vaccines

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/validation"
)

// Date es una fecha opcional. El valor cero es "sin fecha".
type Date struct {
	t     time.Time
	valid bool
}

func On(t time.Time) Date {
	return Date{t: t.UTC(), valid: true}
}

func NoDate() Date {
	return Date{}
}

// DateFromPtr traduce el *time.Time que devuelven los drivers SQL.
func DateFromPtr(t *time.Time) Date {
	if t == nil {
		return NoDate()
	}
	return On(*t)
}

func (d Date) Get() (time.Time, bool) {
	return d.t, d.valid
}

func (d Date) IsSet() bool {
	return d.valid
}

func (d Date) Ptr() *time.Time {
	if !d.valid {
		return nil
	}
	t := d.t
	return &t
}

func (d Date) Equal(o Date) bool {
	if d.valid != o.valid {
		return false
	}
	return !d.valid || d.t.Equal(o.t)
}

func (d Date) String() string {
	if !d.valid {
		return ""
	}
	if d.t.Equal(d.t.Truncate(24 * time.Hour)) {
		return d.t.Format("2006-01-02")
	}
	return d.t.Format(time.RFC3339)
}

// ParseDate acepta "", "null", YYYY-MM-DD o RFC3339.
func ParseDate(field, raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return NoDate(), nil
	}
	t, err := validation.ParseDate(field, raw)
	if err != nil {
		return NoDate(), err
	}
	return On(t), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = NoDate()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &validation.Error{Kind: validation.KindInvalidDate, Field: "date", Value: string(b)}
	}
	parsed, err := ParseDate("date", s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
