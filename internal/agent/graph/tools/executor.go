package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	"github.com/Chative-core-poc-v1/userdesk/internal/observability"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// Executor turns an intent plus extracted parameters into exactly one tool
// call and refreshes the context index after a successful mutation.
type Executor struct {
	toolsNode *compose.ToolsNode
	index     model.ContextIndex
	metrics   *observability.Metrics
}

// NewExecutor wires the user tools into an Eino ToolsNode. index and metrics may be nil.
func NewExecutor(ctx context.Context, repo model.UserRepository, index model.ContextIndex, metrics *observability.Metrics) (*Executor, error) {
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools: NewUserOperations(repo).Tools(),
	})
	if err != nil {
		return nil, fmt.Errorf("create tools node: %w", err)
	}
	return &Executor{toolsNode: toolsNode, index: index, metrics: metrics}, nil
}

// Execute runs the tool for intent. Tool failures become an OutcomeError
// result; Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, intent model.Intent, params map[string]any) *model.ExecutionResult {
	name := ToolFor(intent)
	log := logx.With().Str("component", "executor").Str("tool", name).Logger()

	result := &model.ExecutionResult{Operation: intent}
	out, err := e.invoke(ctx, name, toolArguments(intent, params))
	if err != nil {
		log.Error().Err(err).Msg("tool execution failed")
		result.Outcome = model.OutcomeError
		result.Message = fmt.Sprintf("Error executing tool: %v", err)
		e.metrics.CountOperation(string(intent), string(result.Outcome))
		return result
	}

	result.Outcome = out.Outcome
	result.Message = out.Message
	log.Info().
		Str("outcome", string(out.Outcome)).
		Str("reason", out.Reason).
		Msg("tool executed")
	e.metrics.CountOperation(string(intent), string(result.Outcome))

	if intent.Mutating() && out.Outcome == model.OutcomeSuccess {
		e.refreshIndex(ctx)
	}
	return result
}

func (e *Executor) invoke(ctx context.Context, name string, args map[string]any) (out *OperationOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", name, r)
		}
	}()

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	call := schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_" + name,
		Function: schema.FunctionCall{Name: name, Arguments: string(argsJSON)},
	}})
	msgs, err := e.toolsNode.Invoke(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("tool %s returned no result", name)
	}

	out = &OperationOutput{}
	if err := json.Unmarshal([]byte(msgs[0].Content), out); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", name, err)
	}
	if out.Outcome == "" {
		return nil, fmt.Errorf("tool %s returned no outcome", name)
	}
	return out, nil
}

// refreshIndex rebuilds the context index. A failure is logged and dropped;
// it never changes the operation result.
func (e *Executor) refreshIndex(ctx context.Context) {
	if e.index == nil {
		return
	}
	err := e.index.Refresh(ctx)
	if err == nil {
		return
	}
	e.metrics.CountRefreshFailure()
	var refreshErr *model.RefreshError
	if errors.As(err, &refreshErr) {
		logx.Warn().Err(refreshErr.Err).Str("component", "executor").Str("backend", refreshErr.Backend).Msg("index refresh failed")
		return
	}
	logx.Warn().Err(err).Str("component", "executor").Msg("index refresh failed")
}

// toolArguments shapes loose extracted parameters into the tool's input.
func toolArguments(intent model.Intent, params map[string]any) map[string]any {
	switch intent {
	case model.IntentCreate:
		args := map[string]any{}
		for _, k := range []string{"name", "email", "age", "role"} {
			if v, ok := params[k]; ok && v != nil {
				args[k] = v
			}
		}
		return args
	case model.IntentUpdate:
		data := map[string]any{}
		for k, v := range params {
			if k != "email" && k != model.InternalIDField {
				data[k] = v
			}
		}
		return map[string]any{"email": stringParam(params, "email"), "data": data}
	case model.IntentDelete:
		return map[string]any{"email": stringParam(params, "email")}
	default:
		if filters, ok := params["filters"]; ok && filters != nil {
			return map[string]any{"filters": filters}
		}
		return map[string]any{}
	}
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
