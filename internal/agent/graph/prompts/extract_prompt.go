package prompts

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

//go:embed template/extract_prompt.txt
var extractSystemPrompt string

// RenderExtractSystem renders the parameter extraction instruction. prior
// carries parameters from an earlier pass of the same turn.
func RenderExtractSystem(ctx context.Context, intent model.Intent, formattedContext string, prior map[string]any) (string, error) {
	priorJSON := ""
	if len(prior) > 0 {
		if b, err := json.Marshal(prior); err == nil {
			priorJSON = string(b)
		}
	}
	return render(ctx, "extract", extractSystemPrompt, map[string]any{
		"Intent":           intent.Label(),
		"FormattedContext": formattedContext,
		"PriorParameters":  priorJSON,
	})
}
