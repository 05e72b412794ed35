package services

import (
	"testing"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/stretchr/testify/require"
)

func TestLoggingAllowed(t *testing.T) {
	start := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	race := &models.Race{ID: 1, LoggingStart: start, LoggingEnd: end}

	tests := []struct {
		name    string
		now     time.Time
		isAdmin bool
		want    bool
	}{
		{name: "before window", now: start.Add(-time.Minute), want: false},
		{name: "exactly at start is inside", now: start, want: true},
		{name: "inside window", now: start.Add(3 * time.Hour), want: true},
		{name: "one nanosecond before end", now: end.Add(-time.Nanosecond), want: true},
		{name: "exactly at end is outside", now: end, want: false},
		{name: "after window", now: end.Add(time.Hour), want: false},
		{name: "admin before window", now: start.Add(-time.Hour), isAdmin: true, want: true},
		{name: "admin after window", now: end.Add(48 * time.Hour), isAdmin: true, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, LoggingAllowed(race, tc.now, tc.isAdmin))
		})
	}
}
