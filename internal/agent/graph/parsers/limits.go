package parsers

import (
	"strings"
	"unicode/utf8"

	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// basic safety limits to avoid pathological oracle output
const (
	maxContentLen = 128 * 1024 // 128KB
	maxParamsLen  = 16 * 1024  // 16KB parameter JSON
	maxErrSnippet = 200        // limit error snippet size
)

func guardContent(component, content string) string {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", component).
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	return content
}

func snippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet] + "..."
}
