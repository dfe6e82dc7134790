package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

type WeeklyService struct {
	source   domain.EntrySource
	cache    domain.WeeklyCache
	log      logger.Logger
	location *time.Location
	now      func() time.Time
}

type WeeklyOption func(*WeeklyService)

// WithCache enables caching of computed views. Without it every call hits the backend.
func WithCache(cache domain.WeeklyCache) WeeklyOption {
	return func(s *WeeklyService) { s.cache = cache }
}

func WithLocation(loc *time.Location) WeeklyOption {
	return func(s *WeeklyService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) WeeklyOption {
	return func(s *WeeklyService) { s.now = now }
}

func NewWeeklyService(source domain.EntrySource, log logger.Logger, opts ...WeeklyOption) *WeeklyService {
	s := &WeeklyService{
		source:   source,
		log:      log,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type WeeklyInput struct {
	UserID    string
	Metric    domain.Metric
	Reference time.Time
	Location  *time.Location
}

type SubmitInput struct {
	UserID    string
	Metric    domain.Metric
	EntryDate string
	Values    map[string]float64
	Location  *time.Location
}

type DashboardInput struct {
	UserID    string
	Reference time.Time
	Location  *time.Location
}

func (s *WeeklyService) GetWeekly(ctx context.Context, input WeeklyInput) (*domain.WeeklyView, error) {
	userID, err := normalizeUserID(input.UserID)
	if err != nil {
		return nil, err
	}
	metric, err := domain.ParseMetric(string(input.Metric))
	if err != nil {
		return nil, err
	}

	ref := s.reference(input.Reference, input.Location)
	key := domain.WeeklyCacheKey{UserID: userID, Metric: metric, WeekStart: domain.WeekStart(ref)}

	view, gen, ok := s.cached(ctx, key)
	if ok {
		return view, nil
	}

	entries, err := s.source.ListEntries(ctx, userID, metric)
	if err != nil {
		return nil, fmt.Errorf("weekly service: list %s entries: %w", metric, err)
	}

	agg, err := domain.AggregateWeek(entries, metric.Fields(), ref)
	if err != nil {
		return nil, err
	}

	if len(agg.Rejected) > 0 {
		s.log.WithFields(map[string]interface{}{
			"user_id":  userID,
			"metric":   metric,
			"rejected": len(agg.Rejected),
			"first":    agg.Rejected[0].Error(),
		}).Warnf("skipped malformed entries while aggregating")
	}

	view = domain.NewWeeklyView(userID, metric, agg, s.now())

	if gen >= 0 {
		switch err := s.cache.Set(ctx, key, gen, view); {
		case err == nil:
		case errors.Is(err, domain.ErrCacheStale):
			s.log.Debugf("weekly view for user %s %s changed while computing, not cached", userID, metric)
		default:
			s.log.WithError(err).Warnf("failed to cache weekly view for user %s", userID)
		}
	}

	return view, nil
}

// Submit stores a new entry and returns the refreshed view of the week that
// contains "now", so callers can redraw straight from the response.
func (s *WeeklyService) Submit(ctx context.Context, input SubmitInput) (*domain.WeeklyView, error) {
	userID, err := normalizeUserID(input.UserID)
	if err != nil {
		return nil, err
	}
	metric, err := domain.ParseMetric(string(input.Metric))
	if err != nil {
		return nil, err
	}

	sub, err := domain.NewEntrySubmission(metric, input.EntryDate, input.Values)
	if err != nil {
		return nil, err
	}

	if err := s.source.SubmitEntry(ctx, userID, sub); err != nil {
		return nil, fmt.Errorf("weekly service: submit %s entry: %w", metric, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID, metric); err != nil {
			s.log.WithError(err).Errorf("failed to invalidate weekly cache for user %s", userID)
		}
	}

	s.log.WithFields(map[string]interface{}{
		"user_id":    userID,
		"metric":     metric,
		"entry_date": sub.EntryDate,
	}).Infof("entry submitted")

	return s.GetWeekly(ctx, WeeklyInput{UserID: userID, Metric: metric, Location: input.Location})
}

// GetDashboard loads the profile and every metric for the same week in parallel.
// A failing profile fails the dashboard and cancels the rest. A failing metric
// is reported in Errors while the others are still returned, unless every
// metric fails.
func (s *WeeklyService) GetDashboard(ctx context.Context, input DashboardInput) (*domain.DashboardView, error) {
	userID, err := normalizeUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	ref := s.reference(input.Reference, input.Location)
	views := make([]*domain.WeeklyView, len(domain.Metrics))
	errs := make([]error, len(domain.Metrics))
	var profile *domain.Profile

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.source.GetProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("weekly service: load profile: %w", err)
		}
		profile = p
		return nil
	})

	for i, metric := range domain.Metrics {
		g.Go(func() error {
			views[i], errs[i] = s.GetWeekly(gctx, WeeklyInput{UserID: userID, Metric: metric, Reference: ref, Location: ref.Location()})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash := &domain.DashboardView{
		UserID:    userID,
		Username:  profile.Username,
		WeekStart: domain.WeekStart(ref).Format(domain.DateLayout),
		Metrics:   make(map[domain.Metric]*domain.WeeklyView, len(views)),
	}
	for i, metric := range domain.Metrics {
		if errs[i] != nil {
			if dash.Errors == nil {
				dash.Errors = make(map[domain.Metric]string)
			}
			dash.Errors[metric] = errs[i].Error()
			s.log.WithError(errs[i]).Warnf("dashboard for user %s is missing %s", userID, metric)
			continue
		}
		dash.Metrics[metric] = views[i]
	}

	if len(dash.Metrics) == 0 {
		return nil, errors.Join(errs...)
	}
	return dash, nil
}

// cached looks key up. On a miss it also returns the generation to write the
// fresh view under, or -1 when the view must not be cached.
func (s *WeeklyService) cached(ctx context.Context, key domain.WeeklyCacheKey) (*domain.WeeklyView, int64, bool) {
	if s.cache == nil {
		return nil, -1, false
	}
	view, err := s.cache.Get(ctx, key)
	if err == nil {
		return view, 0, true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.log.WithError(err).Warnf("weekly cache read failed, falling back to backend")
		return nil, -1, false
	}
	gen, err := s.cache.Generation(ctx, key.UserID, key.Metric)
	if err != nil {
		s.log.WithError(err).Warnf("weekly cache generation unavailable, skipping write")
		return nil, -1, false
	}
	return nil, gen, false
}

// reference resolves the instant a week is computed for, expressed in the
// caller's location or the service default.
func (s *WeeklyService) reference(ref time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = s.location
	}
	if ref.IsZero() {
		ref = s.now()
	}
	return ref.In(loc)
}

func normalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.ErrUserIDRequired
	}
	return id, nil
}
