package prompts

import (
	"context"
	_ "embed"
	"strings"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

//go:embed template/respond_prompt.txt
var respondSystemPrompt string

// ResponseInput is what the narrator is allowed to know about the turn.
type ResponseInput struct {
	Query   string
	Intent  model.Intent
	Result  string
	Missing []string
}

// RenderRespondSystem renders the narration instruction.
func RenderRespondSystem(ctx context.Context, in ResponseInput) (string, error) {
	return render(ctx, "respond", respondSystemPrompt, map[string]any{
		"Query":     in.Query,
		"Operation": string(in.Intent),
		"Result":    in.Result,
		"Missing":   strings.Join(in.Missing, ", "),
	})
}
