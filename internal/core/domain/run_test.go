package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPassReport_Success(t *testing.T) {
	tests := []struct {
		name   string
		report PassReport
		want   bool
	}{
		{"clean pass", PassReport{Failed: 3}, true},
		{"run-level failure", PassReport{Error: "TransportFailure: /data: timeout"}, false},
		{"canceled", PassReport{Canceled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Success())
		})
	}
}

func TestPassReport_Duration(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	r := PassReport{StartedAt: start}
	assert.Zero(t, r.Duration())

	r.EndedAt = start.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}
