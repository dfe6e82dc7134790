package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSubmissionDate  = errors.New("entry_date is required (YYYY-MM-DD)")
	ErrSubmissionValue = errors.New("value cannot be negative")
	ErrSubmissionField = errors.New("submission fields do not match metric")
)

// EntrySubmission is a new entry on its way to the backend.
type EntrySubmission struct {
	Metric    Metric
	EntryDate string
	Values    map[string]float64
}

func NewEntrySubmission(metric Metric, entryDate string, values map[string]float64) (*EntrySubmission, error) {
	s := &EntrySubmission{
		Metric:    metric,
		EntryDate: strings.TrimSpace(entryDate),
		Values:    values,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EntrySubmission) Validate() error {
	if _, err := ParseMetric(string(s.Metric)); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, s.EntryDate); err != nil {
		return ErrSubmissionDate
	}

	fields := s.Metric.Fields()
	if len(s.Values) != len(fields) {
		return fmt.Errorf("%w: want %s", ErrSubmissionField, strings.Join(fields, ", "))
	}
	for _, f := range fields {
		v, ok := s.Values[f]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrSubmissionField, f)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s", ErrSubmissionValue, f)
		}
	}
	return nil
}
