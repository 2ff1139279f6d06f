package order

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id := GenerateOrderID()
		require.Len(t, id, 8)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(orderIDCharset, r), "unexpected character %q", r)
		}
		seen[id] = struct{}{}
	}
	// With 62^8 possibilities, 200 draws should essentially never collide.
	assert.Greater(t, len(seen), 195)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusShipped, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(StatusPending))
	assert.True(t, IsValidStatus(StatusCancelled))
	assert.False(t, IsValidStatus(Status("Returned")))
}

func TestCurrentStatusUsesLatestEntry(t *testing.T) {
	now := time.Now().UTC()
	o := &Order{
		StatusHistory: []StatusEntry{
			{Status: StatusShipped, Timestamp: now.Add(time.Hour)},
			{Status: StatusPending, Timestamp: now},
		},
	}
	assert.Equal(t, StatusShipped, o.CurrentStatus())

	empty := &Order{}
	assert.Equal(t, StatusPending, empty.CurrentStatus())
}

func TestTotalAmount(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{Price: decimal.RequireFromString("89.50"), Quantity: 2},
			{Price: decimal.RequireFromString("42.00"), Quantity: 1},
		},
	}
	assert.True(t, o.TotalAmount().Equal(decimal.RequireFromString("221.00")))
}
