package domain_test

import (
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.CheckinStatus
		wantErr bool
	}{
		{in: "completed", want: domain.StatusCompleted},
		{in: " Missed ", want: domain.StatusMissed},
		{in: "done", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidStatus)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckin_Validate(t *testing.T) {
	date := domain.NewDate(2024, time.January, 5)

	t.Run("Valid", func(t *testing.T) {
		c := domain.NewCheckin("h1", date, domain.StatusCompleted)
		assert.NoError(t, c.Validate())
		assert.True(t, c.IsCompleted())
		assert.WithinDuration(t, time.Now().UTC(), c.CreatedAt, 2*time.Second)
	})

	t.Run("Missing habit", func(t *testing.T) {
		c := domain.NewCheckin(" ", date, domain.StatusCompleted)
		assert.ErrorIs(t, c.Validate(), domain.ErrInvalidCheckin)
	})

	t.Run("Missing date", func(t *testing.T) {
		c := domain.NewCheckin("h1", domain.Date{}, domain.StatusCompleted)
		assert.ErrorIs(t, c.Validate(), domain.ErrInvalidDate)
	})

	t.Run("Bad status", func(t *testing.T) {
		c := domain.NewCheckin("h1", date, domain.CheckinStatus("skipped"))
		assert.ErrorIs(t, c.Validate(), domain.ErrInvalidStatus)
	})
}
