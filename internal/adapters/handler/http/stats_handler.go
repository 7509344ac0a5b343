package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

const (
	defaultSummaryWindowDays = 7
	defaultHeatmapWindowDays = 365
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/summary", h.GetSummary)
	r.GET("/stats/heatmap", h.GetHeatmap)
}

// @Summary Completion summary
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD (default: 6 days before end_date)"
// @Param end_date query string false "YYYY-MM-DD (default: today)"
// @Param habit_id query string false "Restrict to one habit"
// @Success 200 {object} domain.Summary
// @Router /api/v1/stats/summary [get]
func (h *StatsHandler) GetSummary(c *gin.Context) {
	input, ok := statsInput(c, defaultSummaryWindowDays)
	if !ok {
		return
	}

	stats, err := h.svc.GetSummary(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Summary Daily heatmap
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param habit_id query string false "Restrict to one habit"
// @Success 200 {object} domain.Heatmap
// @Router /api/v1/stats/heatmap [get]
func (h *StatsHandler) GetHeatmap(c *gin.Context) {
	input, ok := statsInput(c, defaultHeatmapWindowDays)
	if !ok {
		return
	}

	heatmap, err := h.svc.GetHeatmap(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, heatmap)
}

func statsInput(c *gin.Context, windowDays int) (domain.StatsInput, bool) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return domain.StatsInput{}, false
	}

	from, to, ok := dateRange(c, windowDays)
	if !ok {
		return domain.StatsInput{}, false
	}

	if from.DaysUntil(to) >= domain.MaxStatsRangeDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date range too large, max 1 year allowed"})
		return domain.StatsInput{}, false
	}

	return domain.StatsInput{
		UserID:    userID,
		HabitID:   c.Query("habit_id"),
		StartDate: from,
		EndDate:   to,
	}, true
}
