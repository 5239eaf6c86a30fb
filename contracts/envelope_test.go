package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func TestNewEnvelope(t *testing.T) {
	t.Run("generates identity and timestamp", func(t *testing.T) {
		before := time.Now().UTC()
		env := NewEnvelope(addItem{SKU: "A-1", Qty: 2}, At("cart"))
		after := time.Now().UTC()

		_, err := uuid.Parse(env.ID)
		require.NoError(t, err)
		assert.Equal(t, "A-1", env.Action.SKU)
		assert.Equal(t, "cart", env.Source.Tag)
		assert.False(t, env.DispatchedAt.Before(before))
		assert.False(t, env.DispatchedAt.After(after))
		assert.Equal(t, time.UTC, env.DispatchedAt.Location())
	})

	t.Run("distinct envelopes get distinct IDs", func(t *testing.T) {
		a := NewEnvelope(addItem{}, At("cart"))
		b := NewEnvelope(addItem{}, At("cart"))

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("round-trips through JSON", func(t *testing.T) {
		env := NewEnvelope(addItem{SKU: "B-2", Qty: 1}, Here("test"))

		data, err := json.Marshal(env)
		require.NoError(t, err)

		var decoded Envelope[addItem]
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, env.ID, decoded.ID)
		assert.Equal(t, env.Action, decoded.Action)
		assert.Equal(t, env.Source.Tag, decoded.Source.Tag)
		assert.True(t, env.DispatchedAt.Equal(decoded.DispatchedAt))
	})
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"named struct", addItem{}, "addItem"},
		{"pointer to named struct", &addItem{}, "addItem"},
		{"builtin", 42, "int"},
		{"string", "hi", "string"},
		{"unnamed map", map[string]int{}, "map[string]int"},
		{"nil", nil, "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeName(tt.value))
		})
	}
}
