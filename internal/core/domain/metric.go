package domain

import (
	"errors"
	"strings"
)

var ErrUnknownMetric = errors.New("unknown metric (must be water, calories, or exercise)")

type Metric string

const (
	MetricWater    Metric = "water"
	MetricCalories Metric = "calories"
	MetricExercise Metric = "exercise"
)

const (
	FieldTotalWater    = "total_water"
	FieldIntakeCal     = "intake_cal"
	FieldBurnedCal     = "burned_cal"
	FieldTotalExercise = "total_exercise"

	SeriesCalorieDifference = "difference"
)

// Metrics lists every tracked metric in dashboard order.
var Metrics = []Metric{MetricCalories, MetricWater, MetricExercise}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricWater, MetricCalories, MetricExercise:
		return m, nil
	}
	return "", ErrUnknownMetric
}

// Resource is the backend collection holding the metric's entries.
func (m Metric) Resource() string {
	switch m {
	case MetricWater:
		return "water_data"
	case MetricCalories:
		return "calorie_data"
	case MetricExercise:
		return "exercise_data"
	}
	return ""
}

func (m Metric) Fields() []string {
	switch m {
	case MetricWater:
		return []string{FieldTotalWater}
	case MetricCalories:
		return []string{FieldIntakeCal, FieldBurnedCal}
	case MetricExercise:
		return []string{FieldTotalExercise}
	}
	return nil
}

// Derive adds the metric's computed series to buckets.
func (m Metric) Derive(buckets map[string]WeeklyBucket) {
	if m == MetricCalories {
		buckets[SeriesCalorieDifference] = Difference(buckets[FieldIntakeCal], buckets[FieldBurnedCal])
	}
}
