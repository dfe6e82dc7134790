package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidEntryDate = errors.New("invalid entry date")
	ErrMissingValue     = errors.New("value is missing")
	ErrInvalidValue     = errors.New("value is not a real number")
	ErrValueOutOfRange  = fmt.Errorf("%w: out of range", ErrInvalidValue)
)

const (
	DateLayout = "2006-01-02"

	entryDateKey = "entry_date"

	// Bounds on a single value. Anything outside is a data error, and it
	// keeps decimal rescaling and float conversion cheap and finite.
	maxValueLength = 64
	maxValueScale  = 64
	maxValueDigits = 15
)

var maxValueMagnitude = decimal.New(1, maxValueDigits)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Entry is one record as served by the entries backend. Values holds the textual
// form of every other key, so strings and numbers are treated alike.
type Entry struct {
	EntryDate string            `json:"entry_date"`
	Values    map[string]string `json:"-"`
}

func NewEntry(date string, values map[string]string) Entry {
	return Entry{EntryDate: date, Values: values}
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.EntryDate = ""
	e.Values = make(map[string]string, len(raw))

	for key, val := range raw {
		text, ok := rawText(val)
		if !ok {
			continue
		}
		if key == entryDateKey {
			e.EntryDate = text
			continue
		}
		e.Values[key] = text
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(e.Values)+1)
	for k, v := range e.Values {
		out[k] = v
	}
	out[entryDateKey] = e.EntryDate
	return json.Marshal(out)
}

// CalendarDate resolves EntryDate to midnight of its calendar day in loc.
// Timestamps carrying an offset are moved into loc first.
func (e Entry) CalendarDate(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(e.EntryDate)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidEntryDate)
	}

	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}

	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidEntryDate, s)
}

// Value parses the named field as an exact decimal. Values beyond ±1e15 or
// with more than 64 fractional digits are rejected with ErrValueOutOfRange.
func (e Entry) Value(field string) (decimal.Decimal, error) {
	text, ok := e.Values[field]
	if !ok {
		return decimal.Zero, ErrMissingValue
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, ErrMissingValue
	}
	if len(text) > maxValueLength {
		return decimal.Zero, fmt.Errorf("%w: %d characters", ErrValueOutOfRange, len(text))
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	// Exponent first: comparing magnitudes rescales, which is what must stay bounded.
	if exp := d.Exponent(); exp < -maxValueScale || exp > maxValueDigits || d.Abs().GreaterThan(maxValueMagnitude) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrValueOutOfRange, text)
	}
	return d, nil
}

// rawText flattens JSON strings, numbers and booleans to text; null and
// composite values are dropped.
func rawText(val json.RawMessage) (string, bool) {
	val = bytes.TrimSpace(val)
	if len(val) == 0 || bytes.Equal(val, []byte("null")) {
		return "", false
	}
	switch val[0] {
	case '"':
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(val), true
	}
}
