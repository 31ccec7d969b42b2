package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldReplayContexts(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	threshold := 5 * time.Minute

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"just spoke", 0, false},
		{"under threshold", threshold - time.Millisecond, false},
		{"exactly at threshold", threshold, true},
		{"past threshold", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldReplayContexts(base, base.Add(tt.elapsed), threshold)
			assert.Equal(t, tt.want, got)
		})
	}
}
