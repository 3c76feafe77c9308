package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// NewGenAIClient creates the Gemini client shared by the chat model and the embedder.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModel creates the single low-temperature model used for every oracle call.
func NewChatModel(ctx context.Context, client *genai.Client, cfg model.OracleConfig) (*gemini.ChatModel, error) {
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return chatModel, nil
}

// ChatOracle adapts an Eino chat model to the Oracle contract: one system
// instruction plus one user message in, text out.
type ChatOracle struct {
	chatModel einomodel.BaseChatModel
	modelName string
}

func NewChatOracle(chatModel einomodel.BaseChatModel, modelName string) *ChatOracle {
	return &ChatOracle{chatModel: chatModel, modelName: modelName}
}

func (o *ChatOracle) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := o.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return "", errx.WrapOracle(err)
	}
	if out == nil {
		return "", errx.WrapOracle(fmt.Errorf("empty model response"))
	}
	o.recordUsage(ctx, out)
	return out.Content, nil
}

// recordUsage computes and logs usage cost. Inside a pipeline run the cost is
// also added to the turn total.
func (o *ChatOracle) recordUsage(ctx context.Context, out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(o.modelName))

	turnID := ""
	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
		state.TotalCostUSD += totalC
		turnID = state.TurnID
		return nil
	})

	logx.Debug().
		Str("turn_id", turnID).
		Str("model", o.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var _ model.Oracle = (*ChatOracle)(nil)
