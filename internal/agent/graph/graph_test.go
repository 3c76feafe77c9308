package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/formatter"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/classifiers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	"github.com/Chative-core-poc-v1/userdesk/internal/index"
	"github.com/Chative-core-poc-v1/userdesk/internal/observability"
	"github.com/Chative-core-poc-v1/userdesk/internal/store"
)

// scriptedOracle answers by recognising which of the three prompts it got.
// Answers are consumed per call; the last one repeats.
type scriptedOracle struct {
	mu sync.Mutex

	classify []string
	extract  []string
	fail     error

	classifySystems []string
	extractSystems  []string
	respondCalls    int
}

func (o *scriptedOracle) Complete(_ context.Context, system, user string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return "", o.fail
	}
	switch {
	case strings.Contains(system, "query classifier"):
		o.classifySystems = append(o.classifySystems, system)
		return pick(o.classify, len(o.classifySystems)), nil
	case strings.Contains(system, "tool selection agent"):
		o.extractSystems = append(o.extractSystems, system)
		return pick(o.extract, len(o.extractSystems)), nil
	default:
		o.respondCalls++
		return "Agent summary. " + promptLine(system, "3. The result: ") + " " + promptLine(system, "4. Information still missing: "), nil
	}
}

func pick(answers []string, call int) string {
	if len(answers) == 0 {
		return ""
	}
	if call > len(answers) {
		return answers[len(answers)-1]
	}
	return answers[call-1]
}

func promptLine(system, prefix string) string {
	i := strings.Index(system, prefix)
	if i < 0 {
		return ""
	}
	rest := system[i+len(prefix):]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// countingExecutor records every operation the pipeline attempts.
type countingExecutor struct {
	next  nodes.OperationExecutor
	mu    sync.Mutex
	calls []model.Intent
	panic bool
}

func (c *countingExecutor) Execute(ctx context.Context, intent model.Intent, params map[string]any) *model.ExecutionResult {
	c.mu.Lock()
	c.calls = append(c.calls, intent)
	c.mu.Unlock()
	if c.panic {
		panic("store exploded")
	}
	return c.next.Execute(ctx, intent, params)
}

type fixture struct {
	pipeline *Pipeline
	repo     *store.MemoryUserRepository
	exec     *countingExecutor
	metrics  *observability.Metrics
}

func newFixture(t *testing.T, oracle model.Oracle, maxPasses int, seed ...model.User) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := store.NewMemoryUserRepository(seed...)
	idx, err := index.NewTextIndex("", store.AsSource(repo))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, idx.Refresh(ctx))

	metrics := observability.NewMetrics("test")
	toolExec, err := tools.NewExecutor(ctx, repo, idx, metrics)
	require.NoError(t, err)
	exec := &countingExecutor{next: toolExec}

	p, err := BuildPipeline(ctx, Config{
		Oracle:     oracle,
		Classifier: classifiers.NewLLMClassifier(oracle),
		Index:      idx,
		Formatter:  formatter.New(formatter.Schema{Fields: []string{"name", "email", "age", "role"}}),
		Executor:   exec,
		TopK:       2,
		MaxPasses:  maxPasses,
		Metrics:    metrics,
	})
	require.NoError(t, err)
	return &fixture{pipeline: p, repo: repo, exec: exec, metrics: metrics}
}

func age(n int) *int { return &n }

func TestCreateScenario(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"Classification: CREATE\nConfidence: HIGH"},
		extract:  []string{"```json\n{\"name\": \"Alice Smith\", \"email\": \"alice@example.com\", \"age\": 30}\n```"},
	}
	f := newFixture(t, oracle, 2)

	reply := f.pipeline.ProcessQuery(ctx, "Create a user named Alice Smith, email alice@example.com, age 30")
	assert.Contains(t, reply, "User created successfully")

	users, err := f.repo.GetUsers(ctx, map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.User{Email: "alice@example.com", Name: "Alice Smith", Age: age(30)}, users[0])
	assert.Equal(t, []model.Intent{model.IntentCreate}, f.exec.calls)
	assert.Equal(t, 1, oracle.respondCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Turns.WithLabelValues("create")))
}

func TestDeleteMissingScenario(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"DELETE"},
		extract:  []string{`{"email": "missing@example.com"}`},
	}
	alice := model.User{Email: "alice@example.com", Name: "Alice"}
	f := newFixture(t, oracle, 2, alice)

	reply := f.pipeline.ProcessQuery(ctx, "Delete the user with email missing@example.com")
	assert.Contains(t, reply, "not found")

	users, err := f.repo.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.User{alice}, users)
}

func TestUpdateRoleScenario(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"UPDATE (confidence: HIGH)"},
		extract:  []string{`{"email": "alice@example.com", "role": "manager"}`},
	}
	f := newFixture(t, oracle, 2, model.User{Email: "alice@example.com", Name: "Alice Smith", Age: age(30), Role: "engineer"})

	reply := f.pipeline.ProcessQuery(ctx, "Update alice@example.com role to manager")
	assert.Contains(t, reply, "updated successfully")

	users, err := f.repo.GetUsers(ctx, map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.User{Email: "alice@example.com", Name: "Alice Smith", Age: age(30), Role: "manager"}, users[0])
}

func TestDuplicateCreateAcrossTurns(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"CREATE"},
		extract:  []string{`{"name": "Alice", "email": "alice@example.com"}`},
	}
	f := newFixture(t, oracle, 2)

	first := f.pipeline.ProcessQuery(ctx, "add alice@example.com named Alice")
	second := f.pipeline.ProcessQuery(ctx, "add alice@example.com named Alice")
	assert.Contains(t, first, "User created successfully")
	assert.Contains(t, second, "already exists")

	users, err := f.repo.GetUsers(ctx, map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAmbiguousClassificationMutatesAtMostOnce(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{
			"Could be CREATE or UPDATE, confidence LOW",
			"Maybe CREATE? Or an UPDATE. Confidence: LOW",
		},
		extract: []string{
			`{"name": "Bob"}`,
			`{"email": "bob@example.com"}`,
		},
	}
	f := newFixture(t, oracle, 2)

	reply := f.pipeline.ProcessQuery(ctx, "bob, bob@example.com, make it happen")
	assert.Contains(t, reply, "User created successfully")

	assert.Len(t, oracle.classifySystems, 2)
	assert.Len(t, oracle.extractSystems, 2)
	assert.Equal(t, 1, oracle.respondCalls, "narration happens once")
	assert.Equal(t, []model.Intent{model.IntentCreate}, f.exec.calls)
	assert.Contains(t, oracle.extractSystems[1], `{"name":"Bob"}`, "second pass sees earlier parameters")

	users, err := f.repo.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.User{{Email: "bob@example.com", Name: "Bob"}}, users)
}

func TestPassCapEndsTurnWithoutExecution(t *testing.T) {
	for _, maxPasses := range []int{1, 2, 3} {
		ctx := context.Background()
		oracle := &scriptedOracle{
			classify: []string{"CREATE"},
			extract:  []string{`{"name": "Carol"}`},
		}
		f := newFixture(t, oracle, maxPasses)

		reply := f.pipeline.ProcessQuery(ctx, "add Carol")
		assert.Contains(t, reply, "email", "narrator is told what is missing")
		assert.Len(t, oracle.classifySystems, maxPasses)
		assert.Equal(t, 1, oracle.respondCalls)
		assert.Empty(t, f.exec.calls)
	}
}

func TestReadNeedsNoFields(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"I'd read the table"},
		extract:  []string{"nothing useful"},
	}
	f := newFixture(t, oracle, 2, model.User{Email: "alice@example.com", Name: "Alice"})

	reply := f.pipeline.ProcessQuery(ctx, "who is in there?")
	assert.Contains(t, reply, "Found 1 users")
	assert.Equal(t, []model.Intent{model.IntentRead}, f.exec.calls)
	assert.Len(t, oracle.classifySystems, 1)
}

func TestUnlabelledClassificationDefaultsToRead(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"no idea"},
		extract:  []string{`{"filters": {}}`},
	}
	f := newFixture(t, oracle, 2)

	reply := f.pipeline.ProcessQuery(ctx, "hmm")
	assert.Contains(t, reply, "No users found")
	assert.Equal(t, []model.Intent{model.IntentRead}, f.exec.calls)
}

func TestMutationRefreshesRetrievalContext(t *testing.T) {
	ctx := context.Background()
	oracle := &scriptedOracle{
		classify: []string{"CREATE", "READ"},
		extract:  []string{`{"name": "Dana", "email": "dana@example.com"}`, `{"filters": {"email": "dana@example.com"}}`},
	}
	f := newFixture(t, oracle, 2)

	f.pipeline.ProcessQuery(ctx, "create Dana dana@example.com")
	f.pipeline.ProcessQuery(ctx, "show dana")

	require.Len(t, oracle.classifySystems, 2)
	assert.NotContains(t, oracle.classifySystems[0], "dana@example.com")
	assert.Contains(t, oracle.classifySystems[1], "dana@example.com")
}

func TestOracleFailureYieldsFallback(t *testing.T) {
	oracle := &scriptedOracle{fail: errors.New("service unavailable")}
	f := newFixture(t, oracle, 2)

	reply := f.pipeline.ProcessQuery(context.Background(), "list users")
	assert.Equal(t, FallbackReply, reply)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineFailures))
}

func TestPanicYieldsFallback(t *testing.T) {
	oracle := &scriptedOracle{
		classify: []string{"DELETE"},
		extract:  []string{`{"email": "alice@example.com"}`},
	}
	f := newFixture(t, oracle, 2, model.User{Email: "alice@example.com", Name: "Alice"})
	f.exec.panic = true

	var reply string
	assert.NotPanics(t, func() {
		reply = f.pipeline.ProcessQuery(context.Background(), "delete alice@example.com")
	})
	assert.Equal(t, FallbackReply, reply)
}

func TestBuildPipelineRejectsIncompleteConfig(t *testing.T) {
	_, err := BuildPipeline(context.Background(), Config{})
	assert.Error(t, err)
}
