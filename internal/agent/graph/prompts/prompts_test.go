package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

func TestRenderClassifySystem(t *testing.T) {
	ctx := context.Background()

	bare, err := RenderClassifySystem(ctx, nil)
	require.NoError(t, err)
	for _, label := range []string{"CREATE", "READ", "UPDATE", "DELETE", "Confidence"} {
		assert.Contains(t, bare, label)
	}
	assert.NotContains(t, bare, "context about the database")

	withCtx, err := RenderClassifySystem(ctx, []model.User{{Email: "alice@example.com", Name: "Alice"}})
	require.NoError(t, err)
	assert.Contains(t, withCtx, "context about the database")
	assert.Contains(t, withCtx, `"email": "alice@example.com"`)
}

func TestRenderExtractSystem(t *testing.T) {
	ctx := context.Background()

	out, err := RenderExtractSystem(ctx, model.IntentUpdate, "--- DATABASE CONTEXT ---\nAvailable fields: name\n", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Query type: UPDATE")
	assert.Contains(t, out, "Available fields: name")
	assert.Contains(t, out, `{"filters": {...}}`)
	assert.NotContains(t, out, "already extracted")

	out, err = RenderExtractSystem(ctx, model.IntentCreate, "", map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.Contains(t, out, "already extracted")
	assert.Contains(t, out, `{"name":"Alice"}`)
}

func TestRenderRespondSystem(t *testing.T) {
	ctx := context.Background()

	out, err := RenderRespondSystem(ctx, ResponseInput{
		Query:  "Delete missing@example.com",
		Intent: model.IntentDelete,
		Result: "User with email missing@example.com not found.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"Delete missing@example.com"`)
	assert.Contains(t, out, "The operation performed: delete")
	assert.Contains(t, out, "not found.")
	assert.NotContains(t, out, "still missing")

	out, err = RenderRespondSystem(ctx, ResponseInput{
		Query:   "add a user called Bob",
		Intent:  model.IntentCreate,
		Missing: []string{"email"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "no operation was executed")
	assert.Contains(t, out, "Information still missing: email")
}

func TestRenderKeepsTemplateSyntaxInData(t *testing.T) {
	out, err := RenderRespondSystem(context.Background(), ResponseInput{
		Query:  "{{ .Secret }}",
		Intent: model.IntentRead,
		Result: "No users found",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "{{ .Secret }}")
}
