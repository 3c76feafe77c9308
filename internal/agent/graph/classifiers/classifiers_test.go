package classifiers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

type oracleFunc func(ctx context.Context, system, user string) (string, error)

func (f oracleFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

func TestLLMClassifier(t *testing.T) {
	var gotSystem, gotUser string
	c := NewLLMClassifier(oracleFunc(func(_ context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "Classification: DELETE\nConfidence: HIGH", nil
	}))

	res, err := c.Classify(context.Background(), "remove bob@example.com", []model.User{{Email: "bob@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, model.IntentDelete, res.Intent)
	assert.Equal(t, "HIGH", res.Confidence)
	assert.Equal(t, "remove bob@example.com", gotUser)
	assert.Contains(t, gotSystem, "bob@example.com")
}

func TestLLMClassifierDefaultsToRead(t *testing.T) {
	c := NewLLMClassifier(oracleFunc(func(context.Context, string, string) (string, error) {
		return "I cannot tell.", nil
	}))
	res, err := c.Classify(context.Background(), "hmm", nil)
	require.NoError(t, err)
	assert.Equal(t, model.IntentRead, res.Intent)
	assert.Equal(t, "I cannot tell.", res.Text)
}

func TestLLMClassifierPropagatesOracleFailure(t *testing.T) {
	c := NewLLMClassifier(oracleFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("quota exceeded")
	}))
	_, err := c.Classify(context.Background(), "list users", nil)
	assert.Error(t, err)
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	cases := map[string]model.Intent{
		"Create a user named Alice Smith, email alice@example.com, age 30": model.IntentCreate,
		"Delete the user with email missing@example.com":                   model.IntentDelete,
		"Update alice@example.com role to manager":                         model.IntentUpdate,
		"show me users created last week":                                  model.IntentRead,
		"please remove bob, then list everyone":                            model.IntentDelete,
		"hello there":                                                      model.IntentRead,
	}
	for query, want := range cases {
		res, err := c.Classify(context.Background(), query, nil)
		require.NoError(t, err)
		assert.Equal(t, want, res.Intent, query)
	}
}

func TestNew(t *testing.T) {
	oracle := oracleFunc(func(context.Context, string, string) (string, error) { return "READ", nil })

	c, err := New("llm", oracle)
	require.NoError(t, err)
	assert.IsType(t, &LLMClassifier{}, c)

	c, err = New("KEYWORD", nil)
	require.NoError(t, err)
	assert.IsType(t, &KeywordClassifier{}, c)

	_, err = New("llm", nil)
	assert.Error(t, err)
	_, err = New("dice", oracle)
	assert.Error(t, err)
}
