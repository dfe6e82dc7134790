package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/services"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

var (
	errInvalidDate     = errors.New("invalid date, use YYYY-MM-DD")
	errInvalidTimezone = errors.New("invalid tz, use an IANA name such as Europe/Rome")
)

type WeeklyHandler struct {
	svc      *services.WeeklyService
	location *time.Location
	log      logger.Logger
}

// NewWeeklyHandler uses loc for requests that carry no tz parameter.
func NewWeeklyHandler(svc *services.WeeklyService, loc *time.Location, log logger.Logger) *WeeklyHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyHandler{
		svc:      svc,
		location: loc,
		log:      log,
	}
}

type submitEntryRequest struct {
	EntryDate string             `json:"entry_date" binding:"required" example:"2024-01-08"`
	Values    map[string]float64 `json:"values" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"unknown metric (must be water, calories, or exercise)"`
}

func (h *WeeklyHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users/:user_id")
	{
		users.GET("/weekly/:metric", h.GetWeekly)
		users.POST("/entries/:metric", h.Submit)
		users.GET("/dashboard", h.GetDashboard)
	}
}

// GetWeekly godoc
// @Summary Weekly series for one metric
// @Description Buckets the user's entries into Sunday..Saturday of the week containing date.
// @Tags weekly
// @Produce json
// @Param user_id path string true "User ID"
// @Param metric path string true "water, calories or exercise"
// @Param date query string false "Any day of the wanted week, YYYY-MM-DD (default today)"
// @Param tz query string false "IANA time zone (default server zone)"
// @Success 200 {object} domain.WeeklyView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{user_id}/weekly/{metric} [get]
func (h *WeeklyHandler) GetWeekly(c *gin.Context) {
	ref, loc, err := h.parseWeekQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	view, err := h.svc.GetWeekly(c.Request.Context(), services.WeeklyInput{
		UserID:    c.Param("user_id"),
		Metric:    domain.Metric(c.Param("metric")),
		Reference: ref,
		Location:  loc,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Submit godoc
// @Summary Record an entry
// @Description Forwards the entry to the backend and returns the refreshed current week.
// @Tags entries
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param metric path string true "water, calories or exercise"
// @Param tz query string false "IANA time zone (default server zone)"
// @Param entry body submitEntryRequest true "Entry"
// @Success 201 {object} domain.WeeklyView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{user_id}/entries/{metric} [post]
func (h *WeeklyHandler) Submit(c *gin.Context) {
	loc, err := h.parseTimezone(c.Query("tz"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var req submitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	view, err := h.svc.Submit(c.Request.Context(), services.SubmitInput{
		UserID:    c.Param("user_id"),
		Metric:    domain.Metric(c.Param("metric")),
		EntryDate: req.EntryDate,
		Values:    req.Values,
		Location:  loc,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetDashboard godoc
// @Summary Profile and every metric for one week
// @Tags weekly
// @Produce json
// @Param user_id path string true "User ID"
// @Param date query string false "Any day of the wanted week, YYYY-MM-DD (default today)"
// @Param tz query string false "IANA time zone (default server zone)"
// @Success 200 {object} domain.DashboardView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{user_id}/dashboard [get]
func (h *WeeklyHandler) GetDashboard(c *gin.Context) {
	ref, loc, err := h.parseWeekQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dash, err := h.svc.GetDashboard(c.Request.Context(), services.DashboardInput{
		UserID:    c.Param("user_id"),
		Reference: ref,
		Location:  loc,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

// parseWeekQuery reads date and tz. A given date becomes noon of that day in
// the zone; an absent one leaves the reference zero so the service uses its clock.
func (h *WeeklyHandler) parseWeekQuery(c *gin.Context) (time.Time, *time.Location, error) {
	loc, err := h.parseTimezone(c.Query("tz"))
	if err != nil {
		return time.Time{}, nil, err
	}

	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		return time.Time{}, loc, nil
	}

	day, err := time.ParseInLocation(domain.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, nil, errInvalidDate
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc), loc, nil
}

func (h *WeeklyHandler) parseTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return h.location, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errInvalidTimezone
	}
	return loc, nil
}

func handleError(c *gin.Context, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrSubmissionDate),
		errors.Is(err, domain.ErrSubmissionValue),
		errors.Is(err, domain.ErrSubmissionField),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrEmptyPatch),
		errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})

	case errors.Is(err, domain.ErrUpstream):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "entries backend unavailable"})

	default:
		_ = c.Error(err)
		log.WithError(err).Errorf("request %s %s failed", c.Request.Method, c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
