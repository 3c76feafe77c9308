package classifiers

import (
	"context"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// LLMClassifier asks the oracle for a label and parses it leniently.
type LLMClassifier struct {
	oracle model.Oracle
}

func NewLLMClassifier(oracle model.Oracle) *LLMClassifier {
	return &LLMClassifier{oracle: oracle}
}

// Classify fails only when the oracle call fails. An answer naming no
// intent is READ.
func (c *LLMClassifier) Classify(ctx context.Context, query string, records []model.User) (Result, error) {
	system, err := prompts.RenderClassifySystem(ctx, records)
	if err != nil {
		return Result{}, err
	}
	text, err := c.oracle.Complete(ctx, system, query)
	if err != nil {
		return Result{}, err
	}

	parsed := parsers.ParseClassification(text)
	if !parsed.Matched {
		logx.Debug().Str("component", "classifier").Msg("no intent label in answer, defaulting to read")
	}
	return Result{Intent: parsed.Intent, Text: text, Confidence: parsed.Confidence}, nil
}
