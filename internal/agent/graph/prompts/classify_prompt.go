package prompts

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

//go:embed template/classify_prompt.txt
var classifySystemPrompt string

// RenderClassifySystem renders the intent classification instruction with the
// retrieved records appended as JSON.
func RenderClassifySystem(ctx context.Context, records []model.User) (string, error) {
	contextRecords := ""
	if len(records) > 0 {
		b, err := json.MarshalIndent(records, "", "  ")
		if err == nil {
			contextRecords = string(b)
		}
	}
	return render(ctx, "classify", classifySystemPrompt, map[string]any{
		"ContextRecords": contextRecords,
	})
}
