package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type testEnv struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

// newTestEnv wires every handler over an in-memory store. The caller is taken
// from the X-User-ID header instead of a bearer token.
func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	engine := services.NewStreakEngine(nil)

	habitSvc := services.NewHabitService(store.Habits(), store.Categories(), store.UnitOfWork(), engine, nil)
	checkinSvc := services.NewCheckinService(store.UnitOfWork(), store.Habits(), store.Checkins(), engine, nil)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set(middleware.ContextUserIDKey, id)
		}
		c.Next()
	})

	adapterHTTP.NewHabitHandler(habitSvc).RegisterRoutes(api)
	adapterHTTP.NewCheckinHandler(checkinSvc).RegisterRoutes(api)
	adapterHTTP.NewStatsHandler(services.NewStatsService(store.Habits(), store.Checkins())).RegisterRoutes(api)
	adapterHTTP.NewFeedHandler(services.NewFeedService(store.Habits(), store.Checkins())).RegisterRoutes(api)
	adapterHTTP.NewCategoryHandler(services.NewCategoryService(store.Categories())).RegisterRoutes(api)
	adapterHTTP.NewTemplateHandler(services.NewTemplateService(store.Templates(), habitSvc)).RegisterRoutes(api)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createHabit(t *testing.T, userID, body string) *domain.Habit {
	t.Helper()

	w := e.do("POST", "/api/v1/habits", userID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var h domain.Habit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	return &h
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
