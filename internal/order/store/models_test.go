package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CanTransition(t *testing.T) {
	testCases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusDelivered, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusProcessing, StatusPending, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{"shipped", StatusDelivered, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func Test_ValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	for _, s := range []string{"", "shipped", "PENDING", "done"} {
		assert.False(t, ValidStatus(s), s)
	}
}
