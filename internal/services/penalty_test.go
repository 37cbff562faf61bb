package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockDurationForLateDays(t *testing.T) {
	tests := []struct {
		daysLate int
		expected int
	}{
		{1, 3},
		{2, 3},
		{3, 3},
		{4, 7},
		{10, 7},
		{90, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BlockDurationForLateDays(tt.daysLate), "days late %d", tt.daysLate)
	}
}

func TestLateReturnReason(t *testing.T) {
	assert.Equal(t, "Late return by 1 day", LateReturnReason(1))
	assert.Equal(t, "Late return by 2 days", LateReturnReason(2))
	assert.Equal(t, "Late return by 12 days", LateReturnReason(12))
}
