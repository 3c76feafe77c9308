// Package classifiers maps a user query onto one of the four intents.
// The pipeline depends only on the Classifier interface so the model-backed
// and rule-based strategies are interchangeable.
package classifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

const (
	StrategyLLM     = "llm"
	StrategyKeyword = "keyword"
)

// Result is a classifier verdict.
type Result struct {
	Intent     model.Intent
	Text       string
	Confidence string
}

type Classifier interface {
	Classify(ctx context.Context, query string, records []model.User) (Result, error)
}

// New returns the classifier named by strategy. oracle is required for "llm".
func New(strategy string, oracle model.Oracle) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyLLM, "":
		if oracle == nil {
			return nil, fmt.Errorf("llm classifier requires an oracle")
		}
		return NewLLMClassifier(oracle), nil
	case StrategyKeyword:
		return NewKeywordClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q", strategy)
	}
}
