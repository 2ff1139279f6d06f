package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidType(t *testing.T) {
	for _, typ := range []Type{TypeView, TypeAddToCart, TypePurchase, TypeSearch, TypeClick, TypeNotInterested} {
		assert.True(t, IsValidType(typ), string(typ))
	}
	assert.False(t, IsValidType(Type("hover")))
	assert.False(t, IsValidType(Type("")))
}

func TestMessageRoundTrip(t *testing.T) {
	productID := uint(7)
	msg := Message{
		UserID:    42,
		Action:    TypeView,
		ProductID: &productID,
		SessionID: "abc",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg.UserID, decoded.UserID)
	assert.Equal(t, msg.Action, decoded.Action)
	require.NotNil(t, decoded.ProductID)
	assert.Equal(t, uint(7), *decoded.ProductID)
}
