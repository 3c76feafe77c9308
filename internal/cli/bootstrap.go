package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/viant/afs"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/formatter"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/classifiers"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	"github.com/Chative-core-poc-v1/userdesk/internal/index"
	"github.com/Chative-core-poc-v1/userdesk/internal/observability"
	"github.com/Chative-core-poc-v1/userdesk/internal/store"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// app owns every long-lived component of one process.
type app struct {
	cfg     AppConfig
	repo    model.UserRepository
	mirror  *store.Mirror
	index   model.ContextIndex
	metrics *observability.Metrics
	runner  graph.Runner

	closers []func() error
}

type appOptions struct {
	withIndex    bool
	withPipeline bool
}

// newApp connects the store (fatal on failure) and builds the requested components.
func newApp(ctx context.Context, cfg AppConfig, opts appOptions) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	repo, err := store.NewUserRepository(ctx, cfg.StoreURL, store.Options{Redis: cfg.Redis, Postgres: cfg.Postgres})
	if err != nil {
		return a, fmt.Errorf("connect record store: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	if err := repo.Ping(ctx); err != nil {
		return a, fmt.Errorf("ping record store: %w", err)
	}
	a.repo = repo
	logx.Info().Str("store", storeScheme(cfg.StoreURL)).Msg("connected to record store")

	fs := afs.New()
	if cfg.MirrorURL != "" {
		a.mirror = store.NewMirror(repo, fs, cfg.MirrorURL)
		a.repo = a.mirror
	}

	if !opts.withIndex && !opts.withPipeline {
		return a, nil
	}

	client, err := a.genaiClient(ctx, opts.withPipeline)
	if err != nil {
		return a, err
	}
	if err := a.openIndex(ctx, client, false); err != nil {
		return a, err
	}

	a.metrics = observability.NewMetrics("userdesk")
	if opts.withPipeline {
		if err := a.buildPipeline(ctx, client, fs); err != nil {
			return a, err
		}
		a.serveMetrics()
	}
	return a, nil
}

// genaiClient returns nil when no configured component talks to Gemini.
func (a *app) genaiClient(ctx context.Context, withPipeline bool) (*genai.Client, error) {
	if !a.cfg.needsGenAI(withPipeline) {
		return nil, nil
	}
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nodes.NewGenAIClient(ctx, a.cfg.APIKey, a.cfg.BaseURL)
}

// openIndex builds the context index. Unless strict, a failed initial refresh
// only logs and the index starts empty.
func (a *app) openIndex(ctx context.Context, client *genai.Client, strict bool) error {
	var source model.UserSource = store.AsSource(a.repo)
	if strings.EqualFold(a.cfg.Index.Source, "mirror") && a.mirror != nil {
		source = a.mirror
	}

	var embedder index.Embedder
	if client != nil {
		embedder = index.NewGenAIEmbedder(client, a.cfg.Index.EmbeddingModel)
	}

	idx, err := index.New(ctx, a.cfg.Index, source, embedder)
	if closer, ok := idx.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	var refreshErr *model.RefreshError
	switch {
	case errors.As(err, &refreshErr) && !strict:
		logx.Warn().Err(refreshErr.Err).Str("backend", refreshErr.Backend).Msg("initial index refresh failed, starting with an empty index")
	case err != nil:
		return fmt.Errorf("open context index: %w", err)
	}
	a.index = idx
	return nil
}

func (a *app) buildPipeline(ctx context.Context, client *genai.Client, fs afs.Service) error {
	chatModel, err := nodes.NewChatModel(ctx, client, a.cfg.Oracle)
	if err != nil {
		return err
	}
	oracle := nodes.NewChatOracle(chatModel, a.cfg.Oracle.Model)

	classifier, err := classifiers.New(a.cfg.Pipeline.Classifier, oracle)
	if err != nil {
		return err
	}
	executor, err := tools.NewExecutor(ctx, a.repo, a.index, a.metrics)
	if err != nil {
		return err
	}
	schema := formatter.LoadSchema(ctx, fs, store.NormalizeURL(a.cfg.SchemaConfig))

	pipeline, err := graph.BuildPipeline(ctx, graph.Config{
		Oracle:     oracle,
		Classifier: classifier,
		Index:      a.index,
		Formatter:  formatter.New(schema),
		Executor:   executor,
		TopK:       a.cfg.Index.TopK,
		MaxPasses:  a.cfg.Pipeline.MaxPasses,
		Metrics:    a.metrics,
	})
	if err != nil {
		return err
	}
	a.runner = pipeline
	return nil
}

// serveMetrics exposes /metrics when METRICS_ADDR is set.
func (a *app) serveMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Warn().Err(err).Str("addr", a.cfg.MetricsAddr).Msg("metrics server stopped")
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	logx.Info().Str("addr", a.cfg.MetricsAddr).Msg("serving metrics")
}

// Close releases components in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// storeScheme keeps credentials in the URL out of the logs.
func storeScheme(url string) string {
	scheme, _, _ := strings.Cut(url, "://")
	return scheme
}

// setup loads config and initialises logging for a command.
func setup() (AppConfig, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return AppConfig{}, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
	return cfg, nil
}
