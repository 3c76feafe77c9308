package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/formatter"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/classifiers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	"github.com/Chative-core-poc-v1/userdesk/internal/observability"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// FallbackReply is the only text a caller sees when a turn fails internally.
const FallbackReply = "I'm sorry, I encountered an error while processing your request. Please try again with a more specific query."

// Runner processes one line of user input into one reply.
type Runner interface {
	ProcessQuery(ctx context.Context, text string) string
}

// Config holds everything needed to build the query pipeline.
type Config struct {
	Oracle     model.Oracle
	Classifier classifiers.Classifier
	Index      model.ContextIndex
	Formatter  *formatter.Formatter
	Executor   nodes.OperationExecutor
	TopK       int
	MaxPasses  int
	Metrics    *observability.Metrics // optional
}

// GraphBuilder handles the construction of the query pipeline graph
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.QueryInput, model.TurnReply]
}

// Pipeline is the compiled query pipeline.
type Pipeline struct {
	runnable compose.Runnable[model.QueryInput, model.TurnReply]
	metrics  *observability.Metrics
}

// BuildPipeline validates cfg and compiles the pipeline graph.
func BuildPipeline(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.Oracle == nil || cfg.Classifier == nil || cfg.Index == nil || cfg.Formatter == nil || cfg.Executor == nil {
		return nil, fmt.Errorf("pipeline config is incomplete")
	}
	cfg.MaxPasses = nodes.NormalizeMaxPasses(cfg.MaxPasses)

	b := &GraphBuilder{
		config: &cfg,
		graph: compose.NewGraph[model.QueryInput, model.TurnReply](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}
	if err := b.addNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	runnable, err := b.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Int("max_passes", cfg.MaxPasses).Msg("Query pipeline built successfully")
	return &Pipeline{runnable: runnable, metrics: cfg.Metrics}, nil
}

// addNodes registers every pipeline node with its state handlers
func (b *GraphBuilder) addNodes() error {
	cfg := b.config
	steps := []struct {
		name string
		add  func() error
	}{
		{nodes.NodeClassifier, func() error {
			return b.graph.AddLambdaNode(nodes.NodeClassifier,
				nodes.NewClassifierNode(cfg.Classifier, cfg.Index, cfg.Formatter, cfg.TopK),
				compose.WithStatePreHandler(nodes.NewClassifierPreHandler()),
				compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
				compose.WithNodeName(nodes.NodeClassifier),
			)
		}},
		{nodes.NodeExecutor, func() error {
			return b.graph.AddLambdaNode(nodes.NodeExecutor,
				nodes.NewExecutorNode(cfg.Oracle, cfg.Executor),
				compose.WithStatePostHandler(nodes.NewExecutorPostHandler()),
				compose.WithNodeName(nodes.NodeExecutor),
			)
		}},
		{nodes.NodeResponder, func() error {
			return b.graph.AddLambdaNode(nodes.NodeResponder,
				nodes.NewResponderNode(cfg.Oracle, cfg.MaxPasses),
				compose.WithStatePostHandler(nodes.NewResponderPostHandler()),
				compose.WithNodeName(nodes.NodeResponder),
			)
		}},
		{nodes.NodeRequeue, func() error {
			return b.graph.AddLambdaNode(nodes.NodeRequeue, nodes.NewRequeueNode(), compose.WithNodeName(nodes.NodeRequeue))
		}},
	}
	for _, step := range steps {
		if err := step.add(); err != nil {
			logx.Error().Err(err).Str("node", step.name).Msg("Error adding node")
			return fmt.Errorf("error adding %s node: %w", step.name, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeClassifier, nodes.NodeExecutor},
		{nodes.NodeExecutor, nodes.NodeResponder},
		{nodes.NodeRequeue, nodes.NodeClassifier},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches routes the responder either to END or back through the loop edge
func (b *GraphBuilder) addBranches() error {
	completionBranch := compose.NewGraphBranch(
		nodes.NewCompletionBranchCondition(),
		map[string]bool{
			nodes.NodeRequeue: true,
			compose.END:       true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeResponder, completionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding completion branch")
		return fmt.Errorf("error adding completion branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, model.TurnReply], error) {
	// the pass cap already ends the loop; the step limit is a second net
	runnable, err := b.graph.Compile(ctx,
		compose.WithMaxRunSteps(nodes.MaxRunSteps(b.config.MaxPasses)),
		compose.WithGraphName("query_pipeline"),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	return runnable, nil
}

// ProcessQuery runs one turn. It never fails: any error or panic below this
// point is logged and answered with FallbackReply.
func (p *Pipeline) ProcessQuery(ctx context.Context, text string) (reply string) {
	turnID := uuid.NewString()
	log := logx.With().Str("turn_id", turnID).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pipeline panicked")
			p.metrics.CountPipelineFailure()
			reply = FallbackReply
		}
	}()

	out, err := p.runnable.Invoke(ctx,
		model.QueryInput{TurnID: turnID, Query: strings.TrimSpace(text)},
		compose.WithCallbacks(observers.NewAllCallbacks()),
	)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		p.metrics.CountPipelineFailure()
		return FallbackReply
	}

	p.metrics.ObserveTurn(string(out.Intent), time.Since(start))
	log.Info().
		Str("intent", string(out.Intent)).
		Dur("elapsed", time.Since(start)).
		Msg("turn complete")
	return out.Response
}

var _ Runner = (*Pipeline)(nil)
