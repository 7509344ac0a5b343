package http_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestCreateHabit(t *testing.T) {
	t.Run("Success: 201 Created", func(t *testing.T) {
		env := newTestEnv()

		w := env.do("POST", "/api/v1/habits", "user-1",
			`{"name": "Gym", "target_type": "custom", "target_days": ["mon", "wed", "fri"]}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Gym"`)
		assert.Contains(t, w.Body.String(), `"target_days":["mon","wed","fri"]`)
		assert.Contains(t, w.Body.String(), `"id":`)
	})

	t.Run("Fail: 400 Bad Request", func(t *testing.T) {
		env := newTestEnv()

		tests := []struct {
			name string
			body string
		}{
			{"missing name", `{"description": "no name"}`},
			{"unknown target type", `{"name": "x", "target_type": "hourly"}`},
			{"custom without days", `{"name": "x", "target_type": "custom"}`},
			{"bad weekday", `{"name": "x", "target_type": "custom", "target_days": ["someday"]}`},
			{"bad start date", `{"name": "x", "start_date": "01/02/2024"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do("POST", "/api/v1/habits", "user-1", tt.body)
				assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			})
		}
	})

	t.Run("Fail: 404 for a foreign category", func(t *testing.T) {
		env := newTestEnv()

		w := env.do("POST", "/api/v1/habits", "user-1", `{"name": "x", "category_id": "nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListAndGetHabits(t *testing.T) {
	env := newTestEnv()
	h := env.createHabit(t, "user-1", dailyHabit)
	env.createHabit(t, "user-2", dailyHabit)

	w := env.do("GET", "/api/v1/habits", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.Habit](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, h.ID, list[0].ID)

	w = env.do("GET", "/api/v1/habits/"+h.ID, "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/habits/"+h.ID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateHabit(t *testing.T) {
	t.Run("Success: schedule change refreshes streaks", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", dailyHabit)
		path := "/api/v1/habits/" + h.ID + "/checkins"

		// Fri completed, Sat missed, Mon completed.
		for _, body := range []string{
			`{"date": "2024-01-05", "status": "completed"}`,
			`{"date": "2024-01-06", "status": "missed"}`,
			`{"date": "2024-01-08", "status": "completed"}`,
		} {
			require.Equal(t, http.StatusOK, env.do("POST", path, "user-1", body).Code)
		}

		w := env.do("PUT", "/api/v1/habits/"+h.ID, "user-1", `{"target_type": "weekdays"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[domain.Habit](t, w)
		assert.Equal(t, domain.TargetWeekdays, updated.TargetType)
		assert.Equal(t, h.Name, updated.Name)
		assert.Equal(t, 2, updated.CurrentStreak)
	})

	t.Run("Fail: 404 for a foreign habit", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "victim", dailyHabit)

		w := env.do("PUT", "/api/v1/habits/"+h.ID, "attacker", `{"name": "pwned"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Fail: 400 for an invalid schedule", func(t *testing.T) {
		env := newTestEnv()
		h := env.createHabit(t, "user-1", dailyHabit)

		w := env.do("PUT", "/api/v1/habits/"+h.ID, "user-1", `{"target_type": "custom", "target_days": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteHabit(t *testing.T) {
	env := newTestEnv()
	h := env.createHabit(t, "user-1", dailyHabit)

	w := env.do("POST", "/api/v1/habits/"+h.ID+"/checkins", "user-1", `{"date": "2024-01-01", "status": "completed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/habits/"+h.ID, "user-2", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do("DELETE", "/api/v1/habits/"+h.ID, "user-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/habits/"+h.ID, "user-1", "").Code)

	w = env.do("GET", fmt.Sprintf("/api/v1/habits/%s/checkins?start_date=2024-01-01&end_date=2024-01-31", h.ID), "user-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
