package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	TargetType  string   `json:"target_type"`
	TargetDays  []string `json:"target_days"`
	StartDate   string   `json:"start_date"`
	CategoryID  string   `json:"category_id"`
}

// Omitted fields keep their stored value; "category_id": "" detaches the category.
type updateHabitRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TargetType  string   `json:"target_type"`
	TargetDays  []string `json:"target_days"`
	CategoryID  *string  `json:"category_id"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
	}
}

// @Summary Create a habit
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,description=string,target_type=string,target_days=[]string,start_date=string,category_id=string} true "Habit"
// @Success 201 {object} domain.Habit
// @Failure 400 {object} object{error=string}
// @Router /api/v1/habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if !bindJSON(c, &req) {
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		TargetType:  req.TargetType,
		TargetDays:  req.TargetDays,
		StartDate:   req.StartDate,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if !bindJSON(c, &req) {
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:          c.Param("id"),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		TargetType:  req.TargetType,
		TargetDays:  req.TargetDays,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
