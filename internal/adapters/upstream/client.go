package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
)

var (
	_ domain.EntrySource   = (*Client)(nil)
	_ domain.UserDirectory = (*Client)(nil)
)

// createdAtLayouts covers timestamps with and without a zone.
var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"}

// submitKeys maps metric fields to the names the backend expects on POST.
var submitKeys = map[string]string{
	domain.FieldTotalWater:    "water",
	domain.FieldTotalExercise: "exercise",
	domain.FieldIntakeCal:     "intake_cal",
	domain.FieldBurnedCal:     "burned_cal",
}

const maxErrorBody = 512

type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrUpstream
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) ListEntries(ctx context.Context, userID string, metric domain.Metric) ([]domain.Entry, error) {
	var entries []domain.Entry
	if err := c.do(ctx, http.MethodGet, c.resourcePath(metric.Resource(), userID), nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

func (c *Client) SubmitEntry(ctx context.Context, userID string, sub *domain.EntrySubmission) error {
	body := map[string]interface{}{
		"entry_date": sub.EntryDate,
	}
	for field, value := range sub.Values {
		key, ok := submitKeys[field]
		if !ok {
			key = field
		}
		body[key] = value
	}

	return c.do(ctx, http.MethodPost, c.resourcePath(sub.Metric.Resource(), userID), body, nil)
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, c.resourcePath("user_data", userID), nil, &resp); err != nil {
		return nil, err
	}
	return &domain.Profile{UserID: userID, Username: resp.Username}, nil
}

type userRecord struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	Height    float64 `json:"height"`
	Sex       string  `json:"sex"`
	Email     string  `json:"email"`
	CreatedAt string  `json:"created_at"`
}

func (r *userRecord) toDomain() *domain.User {
	u := &domain.User{
		ID:     r.ID,
		Name:   r.Name,
		Age:    r.Age,
		Height: r.Height,
		Sex:    r.Sex,
		Email:  r.Email,
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			u.CreatedAt = t.UTC()
			break
		}
	}
	return u
}

func (c *Client) CreateUser(ctx context.Context, in *domain.UserInput) (*domain.User, error) {
	var rec userRecord
	err := c.do(ctx, http.MethodPost, "/api/users/create", in, &rec)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(statusErr.Body), "already exists") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserExists, in.Name)
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, patch *domain.UserPatch) (*domain.User, error) {
	var rec userRecord
	if err := c.do(ctx, http.MethodPut, c.resourcePath("users", userID), patch, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, c.resourcePath("users", userID), nil, nil)
}

// Ping reports whether the backend answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) resourcePath(resource, userID string) string {
	return "/api/" + resource + "/" + url.PathEscape(userID)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("upstream: failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("upstream: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", domain.ErrUpstream, path, err)
	}
	return nil
}
