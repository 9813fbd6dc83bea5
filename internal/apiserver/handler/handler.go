package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/perchlabs/boothboard/internal/auth/jwt"
	"github.com/perchlabs/boothboard/internal/dashboard"
	"github.com/perchlabs/boothboard/internal/directory"
)

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	store           *directory.Store
	composer        *dashboard.Composer
	jwtService      *jwt.Service
	logger          *zap.Logger
	refreshInterval time.Duration

	// onView is invoked for every authenticated view request; it feeds the
	// activity tracker behind the refresh scheduler.
	onView func()
}

// NewHandler creates the endpoint handler set.
func NewHandler(store *directory.Store, composer *dashboard.Composer, jwtService *jwt.Service, logger *zap.Logger, refreshInterval time.Duration, onView func()) *Handler {
	if onView == nil {
		onView = func() {}
	}
	return &Handler{
		store:           store,
		composer:        composer,
		jwtService:      jwtService,
		logger:          logger,
		refreshInterval: refreshInterval,
		onView:          onView,
	}
}

// scopeFromContext rebuilds the session scope from the validated claims.
func scopeFromContext(c *gin.Context) (directory.Scope, bool) {
	v, exists := c.Get("claims")
	if !exists {
		return directory.Scope{}, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		return directory.Scope{}, false
	}
	return directory.Scope{Role: directory.Role(claims.Role), ClientName: claims.ClientName}, true
}

// respondError maps domain errors onto HTTP statuses. Configuration errors
// deliberately do not leak table details to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var cfgErr *directory.ConfigError
	switch {
	case errors.Is(err, dashboard.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, dashboard.ErrUnknownBooth):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown booth"})
	case errors.Is(err, dashboard.ErrUnknownMetric):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metric"})
	case errors.As(err, &cfgErr):
		h.logger.Error("directory misconfiguration", zap.Error(cfgErr))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service configuration problem"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// dateWindow parses the optional start_date/end_date query parameters
// (YYYY-MM-DD). The end date is inclusive: the window extends to the end of
// that day.
func dateWindow(c *gin.Context) (from, to time.Time, err error) {
	const layout = "2006-01-02"
	if s := c.Query("start_date"); s != "" {
		from, err = time.Parse(layout, s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if s := c.Query("end_date"); s != "" {
		to, err = time.Parse(layout, s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
