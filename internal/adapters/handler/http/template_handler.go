package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type TemplateHandler struct {
	svc *services.TemplateService
}

func NewTemplateHandler(svc *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type createFromTemplateRequest struct {
	Name       string `json:"name"`
	StartDate  string `json:"start_date"`
	CategoryID string `json:"category_id"`
}

func (h *TemplateHandler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", h.List)
		templates.GET("/:id", h.Get)
		templates.POST("/:id/habits", h.CreateHabit)
	}
}

func (h *TemplateHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// CreateHabit instantiates the template for the caller. The body is optional.
func (h *TemplateHandler) CreateHabit(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	var req createFromTemplateRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	habit, err := h.svc.CreateHabit(c.Request.Context(), services.CreateFromTemplateInput{
		TemplateID: c.Param("id"),
		UserID:     userID,
		Name:       req.Name,
		StartDate:  req.StartDate,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}
