package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

type countingOracle struct {
	calls  int
	answer string
}

func (o *countingOracle) Complete(context.Context, string, string) (string, error) {
	o.calls++
	return o.answer, nil
}

type countingExecutor struct {
	calls int
}

func (e *countingExecutor) Execute(_ context.Context, intent model.Intent, _ map[string]any) *model.ExecutionResult {
	e.calls++
	return &model.ExecutionResult{Operation: intent, Outcome: model.OutcomeSuccess, Message: "fresh"}
}

// runExecutorNode runs the executor node alone against a prepared turn state.
func runExecutorNode(t *testing.T, state *model.TurnState, oracle model.Oracle, exec OperationExecutor, cls model.ClassificationResult) (model.ExecutionStage, *model.TurnState) {
	t.Helper()
	ctx := context.Background()

	g := compose.NewGraph[model.ClassificationResult, model.ExecutionStage](
		compose.WithGenLocalState(func(context.Context) *model.TurnState { return state }),
	)
	require.NoError(t, g.AddLambdaNode(NodeExecutor, NewExecutorNode(oracle, exec),
		compose.WithStatePostHandler(NewExecutorPostHandler())))
	require.NoError(t, g.AddEdge(compose.START, NodeExecutor))
	require.NoError(t, g.AddEdge(NodeExecutor, compose.END))
	r, err := g.Compile(ctx)
	require.NoError(t, err)

	out, err := r.Invoke(ctx, cls)
	require.NoError(t, err)
	return out, state
}

func TestExecutorNodeGuardSkipsSecondExecution(t *testing.T) {
	existing := &model.ExecutionResult{Operation: model.IntentDelete, Outcome: model.OutcomeSuccess, Message: "User a@example.com deleted successfully"}
	state := &model.TurnState{
		Query:      "delete a@example.com",
		Passes:     2,
		Extraction: &model.ExtractionResult{Parameters: map[string]any{"email": "a@example.com"}, Raw: `{"email":"a@example.com"}`},
		Execution:  existing,
	}
	oracle := &countingOracle{answer: `{"email": "a@example.com"}`}
	exec := &countingExecutor{}

	out, after := runExecutorNode(t, state, oracle, exec, model.ClassificationResult{Intent: model.IntentDelete})
	assert.Same(t, existing, out.Execution)
	assert.Same(t, existing, after.Execution)
	assert.Equal(t, map[string]any{"email": "a@example.com"}, out.Parameters)
	assert.Zero(t, exec.calls)
	assert.Zero(t, oracle.calls)
	assert.Equal(t, `{"email":"a@example.com"}`, after.Extraction.Raw)
}

func TestExecutorNodeHoldsBackIncompleteOperation(t *testing.T) {
	state := &model.TurnState{Query: "add bob", Passes: 1}
	oracle := &countingOracle{answer: `{"name": "Bob"}`}
	exec := &countingExecutor{}

	out, after := runExecutorNode(t, state, oracle, exec, model.ClassificationResult{Intent: model.IntentCreate})
	assert.Nil(t, out.Execution)
	assert.Equal(t, []string{"email"}, out.Missing)
	assert.Zero(t, exec.calls)
	assert.Nil(t, after.Execution)
	assert.Equal(t, map[string]any{"name": "Bob"}, after.Extraction.Parameters)
}

func TestExecutorNodeExecutesOnce(t *testing.T) {
	state := &model.TurnState{Query: "delete a@example.com", Passes: 1}
	oracle := &countingOracle{answer: `{"email": "a@example.com"}`}
	exec := &countingExecutor{}

	out, after := runExecutorNode(t, state, oracle, exec, model.ClassificationResult{Intent: model.IntentDelete})
	require.NotNil(t, out.Execution)
	assert.Equal(t, "fresh", after.Execution.Message)
	assert.Equal(t, 1, exec.calls)
	assert.Equal(t, 1, oracle.calls)
}

func TestTurnComplete(t *testing.T) {
	executed := &model.ExecutionResult{Operation: model.IntentCreate, Outcome: model.OutcomeRejected}

	assert.True(t, turnComplete(nil, nil, 1, 2), "nothing missing")
	assert.False(t, turnComplete([]string{"email"}, nil, 1, 2), "missing and not attempted")
	assert.True(t, turnComplete([]string{"email"}, executed, 1, 2), "attempted")
	assert.True(t, turnComplete([]string{"email"}, nil, 2, 2), "final pass")
	assert.True(t, turnComplete([]string{"email"}, nil, 2, 0), "default cap")
	assert.False(t, turnComplete([]string{"email"}, nil, 2, 3))
}

func TestMaxRunSteps(t *testing.T) {
	assert.Equal(t, 12, MaxRunSteps(2))
	assert.Equal(t, 12, MaxRunSteps(0))
	assert.Equal(t, 16, MaxRunSteps(3))
}

func TestMergeParameters(t *testing.T) {
	prior := map[string]any{"name": "Alice", "email": "old@example.com"}
	fresh := map[string]any{"email": "alice@example.com", "role": nil}

	got := mergeParameters(prior, fresh)
	assert.Equal(t, map[string]any{"name": "Alice", "email": "alice@example.com"}, got)
	assert.Equal(t, "old@example.com", prior["email"])
	assert.Equal(t, map[string]any{}, mergeParameters(nil, nil))
}
