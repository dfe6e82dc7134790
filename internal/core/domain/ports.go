package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrUserNotFound   = errors.New("user not found")
	ErrUpstream       = errors.New("entries backend unavailable")
	ErrCacheMiss      = errors.New("weekly view not cached")
	ErrCacheStale     = errors.New("weekly view invalidated while computing")
)

type EntrySource interface {
	// ListEntries returns every entry the backend holds for the user and metric.
	ListEntries(ctx context.Context, userID string, metric Metric) ([]Entry, error)

	// SubmitEntry stores a new entry for the user.
	SubmitEntry(ctx context.Context, userID string, sub *EntrySubmission) error

	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// UserDirectory manages the backend's user records.
type UserDirectory interface {
	// CreateUser returns ErrUserExists when the name is taken.
	CreateUser(ctx context.Context, in *UserInput) (*User, error)
	UpdateUser(ctx context.Context, userID string, patch *UserPatch) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// WeeklyCacheKey identifies one computed week. Views depend only on the entries
// and the week, so any reference instant inside the same week shares a key.
type WeeklyCacheKey struct {
	UserID    string
	Metric    Metric
	WeekStart time.Time
}

type WeeklyCache interface {
	// Get returns ErrCacheMiss when nothing is stored under key.
	Get(ctx context.Context, key WeeklyCacheKey) (*WeeklyView, error)

	// Generation returns the user's metric invalidation counter. Read it
	// before fetching the data a view is built from.
	Generation(ctx context.Context, userID string, metric Metric) (int64, error)

	// Set stores view unless the metric was invalidated after gen was read,
	// in which case it returns ErrCacheStale and stores nothing.
	Set(ctx context.Context, key WeeklyCacheKey, gen int64, view *WeeklyView) error

	// Invalidate drops every cached week of the user's metric and bumps its generation.
	Invalidate(ctx context.Context, userID string, metric Metric) error
}
