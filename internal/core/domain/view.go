package domain

import "time"

type WeeklyView struct {
	UserID    string                  `json:"user_id"`
	Metric    Metric                  `json:"metric"`
	Timezone  string                  `json:"timezone"`
	WeekStart string                  `json:"week_start"`
	WeekEnd   string                  `json:"week_end"`
	Days      [DaysPerWeek]string     `json:"days"`
	Series    map[string]WeeklyBucket `json:"series"`
	Totals    map[string]float64      `json:"totals"`
	Entries   int                     `json:"entries"`
	Skipped   int                     `json:"skipped"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// NewWeeklyView derives the metric's extra series and totals from agg.
func NewWeeklyView(userID string, metric Metric, agg *WeeklyAggregate, fetchedAt time.Time) *WeeklyView {
	series := make(map[string]WeeklyBucket, len(agg.Buckets)+1)
	for f, b := range agg.Buckets {
		series[f] = b
	}
	metric.Derive(series)

	totals := make(map[string]float64, len(series))
	for f, b := range series {
		totals[f] = b.Total()
	}

	return &WeeklyView{
		UserID:    userID,
		Metric:    metric,
		Timezone:  agg.WeekStart.Location().String(),
		WeekStart: agg.WeekStart.Format(DateLayout),
		WeekEnd:   agg.WeekStart.AddDate(0, 0, DaysPerWeek-1).Format(DateLayout),
		Days:      WeekdayLabels,
		Series:    series,
		Totals:    totals,
		Entries:   agg.Accepted,
		Skipped:   len(agg.Rejected),
		FetchedAt: fetchedAt.UTC(),
	}
}

type Profile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type DashboardView struct {
	UserID    string                 `json:"user_id"`
	Username  string                 `json:"username"`
	WeekStart string                 `json:"week_start"`
	Metrics   map[Metric]*WeeklyView `json:"metrics"`
	// Errors holds the reason for each metric missing from Metrics.
	Errors map[Metric]string `json:"errors,omitempty"`
}
