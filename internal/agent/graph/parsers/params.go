package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// ParseParameters extracts the JSON object spanning the first '{' to the last
// '}' of content. The returned map is never nil: absent or unparsable JSON
// yields an empty map together with the reason.
func ParseParameters(content string) (params map[string]any, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "params_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("params parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			params = map[string]any{}
		}
	}()

	content = guardContent("params_parser", content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return map[string]any{}, fmt.Errorf("no json object in %q", snippet(content))
	}
	raw := content[start : end+1]
	if len(raw) > maxParamsLen {
		return map[string]any{}, fmt.Errorf("parameter json too large: %d bytes", len(raw))
	}

	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return map[string]any{}, fmt.Errorf("parameter json %q: %w", snippet(raw), err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}
