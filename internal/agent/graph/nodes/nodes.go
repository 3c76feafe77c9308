package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/formatter"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/classifiers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

const (
	NodeClassifier = "classifier"
	NodeExecutor   = "executor"
	NodeResponder  = "responder"
	NodeRequeue    = "requeue"
)

// OperationExecutor runs the single store operation of a turn.
type OperationExecutor interface {
	Execute(ctx context.Context, intent model.Intent, params map[string]any) *model.ExecutionResult
}

// ================ Classifier ================

// NewClassifierPreHandler pins the turn's query on the first pass and counts passes.
func NewClassifierPreHandler() func(context.Context, model.QueryInput, *model.TurnState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.TurnState) (model.QueryInput, error) {
		if s.Passes == 0 {
			s.TurnID = in.TurnID
			s.Query = in.Query
		}
		s.Passes++
		return model.QueryInput{TurnID: s.TurnID, Query: s.Query}, nil
	}
}

// NewClassifierNode retrieves context, classifies the query and formats the
// context for the chosen intent.
func NewClassifierNode(
	classifier classifiers.Classifier,
	index model.ContextIndex,
	f *formatter.Formatter,
	topK int,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.ClassificationResult, error) {
		records := index.RetrieveContext(ctx, in.Query, topK)

		verdict, err := classifier.Classify(ctx, in.Query, records)
		if err != nil {
			return model.ClassificationResult{}, fmt.Errorf("classify query: %w", err)
		}

		logx.Info().
			Str("turn_id", in.TurnID).
			Str("node", NodeClassifier).
			Str("intent", string(verdict.Intent)).
			Str("confidence", verdict.Confidence).
			Int("context_records", len(records)).
			Msg("query classified")

		return model.ClassificationResult{
			Intent:           verdict.Intent,
			Text:             verdict.Text,
			Confidence:       verdict.Confidence,
			FormattedContext: f.Format(records, verdict.Intent),
			RawContext:       records,
		}, nil
	})
}

func NewClassifierPostHandler() func(context.Context, model.ClassificationResult, *model.TurnState) (model.ClassificationResult, error) {
	return func(ctx context.Context, out model.ClassificationResult, s *model.TurnState) (model.ClassificationResult, error) {
		res := out
		s.Classification = &res
		return out, nil
	}
}

// ================ Executor ================

// NewExecutorNode extracts parameters and runs at most one operation per turn.
// Once the turn holds an execution result every later pass returns it as is.
func NewExecutorNode(oracle model.Oracle, executor OperationExecutor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cls model.ClassificationResult) (model.ExecutionStage, error) {
		var (
			turnID, query string
			prior         map[string]any
			existing      *model.ExecutionResult
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			turnID, query = s.TurnID, s.Query
			existing = s.Execution
			if s.Extraction != nil {
				prior = s.Extraction.Parameters
			}
			return nil
		})
		if err != nil {
			return model.ExecutionStage{}, fmt.Errorf("read turn state: %w", err)
		}

		log := logx.With().Str("turn_id", turnID).Str("node", NodeExecutor).Logger()
		if existing != nil {
			log.Debug().Msg("operation already executed this turn, skipping")
			return model.ExecutionStage{Parameters: prior, Execution: existing}, nil
		}

		system, err := prompts.RenderExtractSystem(ctx, cls.Intent, cls.FormattedContext, prior)
		if err != nil {
			return model.ExecutionStage{}, err
		}
		raw, err := oracle.Complete(ctx, system, query)
		if err != nil {
			return model.ExecutionStage{}, fmt.Errorf("extract parameters: %w", err)
		}

		fresh, perr := parsers.ParseParameters(raw)
		if perr != nil {
			log.Debug().Err(perr).Msg("parameter extraction unparsable, using empty set")
		}
		params := mergeParameters(prior, fresh)

		stage := model.ExecutionStage{Parameters: params, Raw: raw}
		if missing := cls.Intent.MissingFields(params); len(missing) > 0 {
			log.Info().Strs("missing", missing).Str("intent", string(cls.Intent)).Msg("mandatory fields missing, operation not attempted")
			stage.Missing = missing
			return stage, nil
		}

		stage.Execution = executor.Execute(ctx, cls.Intent, params)
		return stage, nil
	})
}

func NewExecutorPostHandler() func(context.Context, model.ExecutionStage, *model.TurnState) (model.ExecutionStage, error) {
	return func(ctx context.Context, out model.ExecutionStage, s *model.TurnState) (model.ExecutionStage, error) {
		if out.Raw != "" || s.Extraction == nil {
			s.Extraction = &model.ExtractionResult{Parameters: out.Parameters, Raw: out.Raw}
		}
		if s.Execution == nil && out.Execution != nil {
			s.Execution = out.Execution
		}
		return out, nil
	}
}

// ================ Responder ================

// NewResponderNode decides completion and narrates the completed pass.
// Incomplete passes produce no reply text.
func NewResponderNode(oracle model.Oracle, maxPasses int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, stage model.ExecutionStage) (model.TurnReply, error) {
		var (
			turnID, query string
			passes        int
			intent        = model.IntentRead
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			turnID, query, passes = s.TurnID, s.Query, s.Passes
			if s.Classification != nil {
				intent = s.Classification.Intent
			}
			return nil
		})
		if err != nil {
			return model.TurnReply{}, fmt.Errorf("read turn state: %w", err)
		}

		if !turnComplete(stage.Missing, stage.Execution, passes, maxPasses) {
			logx.Debug().
				Str("turn_id", turnID).
				Str("node", NodeResponder).
				Int("pass", passes).
				Msg("turn incomplete, requeueing")
			return model.TurnReply{Complete: false, Intent: intent}, nil
		}

		in := prompts.ResponseInput{Query: query, Intent: intent, Missing: stage.Missing}
		if stage.Execution != nil {
			in.Result = stage.Execution.Message
		}
		system, err := prompts.RenderRespondSystem(ctx, in)
		if err != nil {
			return model.TurnReply{}, err
		}
		text, err := oracle.Complete(ctx, system, query)
		if err != nil {
			return model.TurnReply{}, fmt.Errorf("narrate result: %w", err)
		}
		return model.TurnReply{Response: text, Complete: true, Intent: intent}, nil
	})
}

func NewResponderPostHandler() func(context.Context, model.TurnReply, *model.TurnState) (model.TurnReply, error) {
	return func(ctx context.Context, out model.TurnReply, s *model.TurnState) (model.TurnReply, error) {
		s.Complete = out.Complete
		if out.Complete {
			s.Response = out.Response
		}
		return out, nil
	}
}

// ================ Loop edge ================

// NewRequeueNode feeds the pinned query back into classification.
func NewRequeueNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.TurnReply) (model.QueryInput, error) {
		var in model.QueryInput
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			in = model.QueryInput{TurnID: s.TurnID, Query: s.Query}
			return nil
		})
		return in, err
	})
}

// NewCompletionBranchCondition ends the turn once the responder marks it complete.
func NewCompletionBranchCondition() func(context.Context, model.TurnReply) (string, error) {
	return func(ctx context.Context, reply model.TurnReply) (string, error) {
		if reply.Complete {
			return compose.END, nil
		}
		return NodeRequeue, nil
	}
}
