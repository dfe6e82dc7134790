package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoFields         = errors.New("at least one field is required")
	ErrEmptyField       = errors.New("field name cannot be empty")
	ErrInvalidReference = errors.New("reference instant is required")
)

const DaysPerWeek = 7

// WeekdayLabels are the chart labels for bucket indexes 0..6.
var WeekdayLabels = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeeklyBucket accumulates one field per weekday, Sunday first.
type WeeklyBucket [DaysPerWeek]float64

// Total returns the sum of the seven days. Non-finite days are skipped.
func (b WeeklyBucket) Total() float64 {
	sum := decimal.Zero
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

// RejectedValue records why a value did not reach any bucket.
// Field is empty when the whole entry was dropped.
type RejectedValue struct {
	Index int
	Field string
	Err   error
}

// Accepted counts in-window entries with at least one value in a bucket.
type WeeklyAggregate struct {
	WeekStart time.Time
	Buckets   map[string]WeeklyBucket
	Accepted  int
	Rejected  []RejectedValue
}

// WeekStart returns local midnight of the Sunday on or before ref's calendar date.
func WeekStart(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, ref.Location())
}

// AggregateWeek sums the requested fields of entries into per-weekday buckets for
// the week containing ref. Entries from other weeks are ignored, and malformed
// dates or values are reported in Rejected instead of failing the call.
func AggregateWeek(entries []Entry, fields []string, ref time.Time) (*WeeklyAggregate, error) {
	if ref.IsZero() {
		return nil, ErrInvalidReference
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return nil, ErrEmptyField
		}
	}

	loc := ref.Location()
	start := civilDay(WeekStart(ref))

	sums := make(map[string]*[DaysPerWeek]decimal.Decimal, len(fields))
	for _, f := range fields {
		sums[f] = new([DaysPerWeek]decimal.Decimal)
	}

	agg := &WeeklyAggregate{WeekStart: WeekStart(ref)}

	for i, e := range entries {
		date, err := e.CalendarDate(loc)
		if err != nil {
			agg.Rejected = append(agg.Rejected, RejectedValue{Index: i, Err: err})
			continue
		}

		dayIndex := civilDay(date) - start
		if dayIndex < 0 || dayIndex >= DaysPerWeek {
			continue
		}

		landed := false
		for _, f := range fields {
			v, err := e.Value(f)
			if err != nil {
				agg.Rejected = append(agg.Rejected, RejectedValue{Index: i, Field: f, Err: err})
				continue
			}
			sums[f][dayIndex] = sums[f][dayIndex].Add(v)
			landed = true
		}
		if landed {
			agg.Accepted++
		}
	}

	agg.Buckets = make(map[string]WeeklyBucket, len(fields))
	for f, days := range sums {
		var b WeeklyBucket
		for i, d := range days {
			b[i] = d.InexactFloat64()
		}
		agg.Buckets[f] = b
	}

	return agg, nil
}

// Difference returns a[i] - b[i] for every day.
func Difference(a, b WeeklyBucket) WeeklyBucket {
	var out WeeklyBucket
	for i := range out {
		out[i] = a[i] - b[i]
	}
	return out
}

func (r RejectedValue) Error() string {
	if r.Field == "" {
		return fmt.Sprintf("entry %d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("entry %d field %s: %v", r.Index, r.Field, r.Err)
}

// civilDay counts calendar days since the Unix epoch, ignoring time of day and zone.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
