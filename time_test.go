package usermanagement_test

import (
	"testing"
	"time"

	usermanagement "github.com/goliatone/go-usermanagement"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriodAt(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		inputTime time.Time
		threshold time.Duration
		expected  bool
	}{
		{"inside", now.Add(-30 * time.Minute), time.Hour, true},
		{"outside", now.Add(-90 * time.Minute), time.Hour, false},
		{"exactly at the boundary", now.Add(-time.Hour), time.Hour, false},
		{"future time", now.Add(time.Hour), time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, usermanagement.IsWithinThresholdPeriodAt(now, tt.inputTime, tt.threshold))
		})
	}
}
