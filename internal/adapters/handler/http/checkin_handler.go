package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

const defaultCheckinWindowDays = 30

type CheckinHandler struct {
	svc *services.CheckinService
}

func NewCheckinHandler(svc *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		svc: svc,
	}
}

type submitCheckinRequest struct {
	HabitID string `json:"habit_id"`
	Date    string `json:"date" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

type batchUpdateRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

type batchCheckinRequest struct {
	Date    string               `json:"date" binding:"required"`
	Updates []batchUpdateRequest `json:"updates" binding:"required,dive"`
}

func (h *CheckinHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/habits/:id/checkins", h.SubmitForHabit)
	router.GET("/habits/:id/checkins", h.List)

	checkins := router.Group("/checkins")
	{
		checkins.POST("", h.Submit)
		checkins.POST("/batch", h.SubmitBatch)
	}
}

// SubmitForHabit records one check-in and returns the refreshed streaks.
// @Summary Submit a check-in
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Param request body object{date=string,status=string} true "Check-in"
// @Success 200 {object} services.CheckinResult
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/v1/habits/{id}/checkins [post]
func (h *CheckinHandler) SubmitForHabit(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req submitCheckinRequest
	if !bindJSON(c, &req) {
		return
	}

	h.submit(c, services.SubmitCheckinInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Date:    req.Date,
		Status:  req.Status,
	})
}

// Submit is SubmitForHabit with the habit id in the body.
// @Summary Submit a check-in (habit id in body)
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{habit_id=string,date=string,status=string} true "Check-in"
// @Success 200 {object} services.CheckinResult
// @Router /api/v1/checkins [post]
func (h *CheckinHandler) Submit(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req submitCheckinRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.HabitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id is required"})
		return
	}

	h.submit(c, services.SubmitCheckinInput{
		HabitID: req.HabitID,
		UserID:  userID,
		Date:    req.Date,
		Status:  req.Status,
	})
}

func (h *CheckinHandler) submit(c *gin.Context, input services.SubmitCheckinInput) {
	result, err := h.svc.SubmitCheckin(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitBatch applies several check-ins for one date atomically. Entries for
// habits the caller does not own are skipped.
// @Summary Submit a batch of check-ins
// @Tags checkins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{date=string,updates=[]object{habit_id=string,status=string}} true "Batch"
// @Success 200 {object} services.BatchResult
// @Failure 400 {object} object{error=string}
// @Router /api/v1/checkins/batch [post]
func (h *CheckinHandler) SubmitBatch(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req batchCheckinRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := make([]services.BatchUpdate, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = services.BatchUpdate{HabitID: u.HabitID, Status: u.Status}
	}

	result, err := h.svc.SubmitBatch(c.Request.Context(), services.BatchInput{
		UserID:  userID,
		Date:    req.Date,
		Updates: updates,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// List returns the ledger of a habit between start_date and end_date
// (default: the last 30 days).
// @Summary List check-ins of a habit
// @Tags checkins
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {array} domain.Checkin
// @Router /api/v1/habits/{id}/checkins [get]
func (h *CheckinHandler) List(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	from, to, ok := dateRange(c, defaultCheckinWindowDays)
	if !ok {
		return
	}

	list, err := h.svc.ListCheckins(c.Request.Context(), c.Param("id"), userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// dateRange reads start_date/end_date. A missing end_date is today and a
// missing start_date lies windowDays-1 days before it.
func dateRange(c *gin.Context, windowDays int) (domain.Date, domain.Date, bool) {
	to := domain.Today()
	if s := c.Query("end_date"); s != "" {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date format, expected YYYY-MM-DD"})
			return domain.Date{}, domain.Date{}, false
		}
		to = parsed
	}

	from := to.AddDays(-(windowDays - 1))
	if s := c.Query("start_date"); s != "" {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format, expected YYYY-MM-DD"})
			return domain.Date{}, domain.Date{}, false
		}
		from = parsed
	}

	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date cannot be after end_date"})
		return domain.Date{}, domain.Date{}, false
	}

	return from, to, true
}
