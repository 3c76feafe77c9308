package parsers

import (
	"regexp"
	"strings"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

// Classification is the parsed classifier answer.
type Classification struct {
	Intent model.Intent
	// Matched is false when no intent label appeared and Intent fell back to READ.
	Matched    bool
	Confidence string
}

var confidencePattern = regexp.MustCompile(`(?i)confidence\W{0,8}(HIGH|MEDIUM|LOW)\b`)

// ParseClassification maps free-form classifier text onto an intent by
// case-insensitive substring match in priority order CREATE, READ, UPDATE,
// DELETE. Text naming none of them is READ.
func ParseClassification(content string) Classification {
	content = guardContent("intent_parser", content)
	upper := strings.ToUpper(content)

	c := Classification{Intent: model.IntentRead}
	for _, intent := range model.Intents {
		if strings.Contains(upper, intent.Label()) {
			c.Intent = intent
			c.Matched = true
			break
		}
	}
	c.Confidence = parseConfidence(upper)
	return c
}

func parseConfidence(upper string) string {
	if m := confidencePattern.FindStringSubmatch(upper); m != nil {
		return m[1]
	}
	for _, level := range []string{"HIGH", "MEDIUM", "LOW"} {
		if strings.Contains(upper, level+" CONFIDENCE") {
			return level
		}
	}
	return ""
}
