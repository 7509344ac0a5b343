package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type FeedHandler struct {
	svc *services.FeedService
}

func NewFeedHandler(svc *services.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

func (h *FeedHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/feed", h.GetFeed)
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	items, err := h.svc.GetFeed(c.Request.Context(), userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
