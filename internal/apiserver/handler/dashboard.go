package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard returns the composed view for the caller's scope, plus the
// auto-refresh interval browsers use to schedule full reloads.
func (h *Handler) Dashboard(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.onView()

	view, err := h.composer.Compose(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"view":                view,
		"refresh_interval_ms": h.refreshInterval.Milliseconds(),
	})
}

// Location returns per-booth utilization for one location.
func (h *Handler) Location(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.onView()

	from, to, err := dateWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date filter"})
		return
	}

	model, err := h.composer.LocationView(c.Request.Context(), scope, c.Param("location"), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

// Booth returns the latest reading for one booth.
func (h *Handler) Booth(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.onView()

	model, err := h.composer.BoothView(c.Request.Context(), scope, c.Param("location"), c.Param("booth"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

// Analytics returns one metric's aggregates and series for a booth.
func (h *Handler) Analytics(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.onView()

	from, to, err := dateWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date filter"})
		return
	}

	model, err := h.composer.Analytics(c.Request.Context(), scope,
		c.Param("location"), c.Param("booth"), c.Param("metric"), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}
