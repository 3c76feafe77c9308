package classifiers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

type rule struct {
	intent  model.Intent
	pattern *regexp.Regexp
}

// KeywordClassifier picks the intent whose verb appears earliest in the query.
type KeywordClassifier struct {
	rules []rule
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: []rule{
		{model.IntentCreate, regexp.MustCompile(`(?i)\b(create|add|register|insert|new user|sign up)\b`)},
		{model.IntentRead, regexp.MustCompile(`(?i)\b(show|list|find|get|read|who|display|search|look up)\b`)},
		{model.IntentUpdate, regexp.MustCompile(`(?i)\b(update|change|modify|edit|set|rename|promote)\b`)},
		{model.IntentDelete, regexp.MustCompile(`(?i)\b(delete|remove|drop|erase)\b`)},
	}}
}

func (c *KeywordClassifier) Classify(_ context.Context, query string, _ []model.User) (Result, error) {
	best, at := model.IntentRead, -1
	word := ""
	for _, r := range c.rules {
		loc := r.pattern.FindStringIndex(query)
		if loc == nil {
			continue
		}
		if at < 0 || loc[0] < at {
			best, at = r.intent, loc[0]
			word = query[loc[0]:loc[1]]
		}
	}
	if at < 0 {
		return Result{Intent: model.IntentRead, Text: "no keyword matched", Confidence: "LOW"}, nil
	}
	return Result{
		Intent:     best,
		Text:       fmt.Sprintf("%s (keyword %q)", best.Label(), word),
		Confidence: "MEDIUM",
	}, nil
}
