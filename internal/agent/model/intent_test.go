package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		intent Intent
		params map[string]any
		want   []string
	}{
		{"create complete", IntentCreate, map[string]any{"name": "Alice", "email": "a@b.co"}, nil},
		{"create no email", IntentCreate, map[string]any{"name": "Alice"}, []string{"email"}},
		{"create blank name", IntentCreate, map[string]any{"name": " ", "email": "a@b.co"}, []string{"name"}},
		{"update email only", IntentUpdate, map[string]any{"email": "a@b.co"}, []string{"fields to update"}},
		{"update complete", IntentUpdate, map[string]any{"email": "a@b.co", "role": "manager"}, nil},
		{"update nothing", IntentUpdate, map[string]any{}, []string{"email", "fields to update"}},
		{"delete no email", IntentDelete, map[string]any{"name": "Alice"}, []string{"email"}},
		{"delete complete", IntentDelete, map[string]any{"email": "a@b.co"}, nil},
		{"read never missing", IntentRead, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.intent.MissingFields(tc.params))
		})
	}
}

func TestIntentHelpers(t *testing.T) {
	assert.Equal(t, "CREATE", IntentCreate.Label())
	assert.True(t, IntentDelete.Mutating())
	assert.False(t, IntentRead.Mutating())
	assert.True(t, IntentUpdate.Valid())
	assert.False(t, Intent("upsert").Valid())
}
