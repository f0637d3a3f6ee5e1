package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

const systemPrompt = `You score transcripts of spontaneous speech for signs of cognitive decline.
You receive feature values normalized to [0,1]. Respond with a single JSON object:
{"riskScore": <number in [0,1], higher means healthier>, "featureImportance": {"<feature>": <signed contribution>}}
Use only feature names from the input. Do not add any other text.`

// OpenAIModel asks a chat completion model for a risk score.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIModel creates a new OpenAI-backed model
func NewOpenAIModel(cfg Config) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		pool := cfg.Pool
		pool.RequestTimeout = cfg.Timeout
		clientConfig.HTTPClient = resilience.NewConnectionPool(pool).Client()
	}

	m := &OpenAIModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if m.model == "" {
		m.model = openai.GPT4oMini
	}
	if m.maxTokens == 0 {
		m.maxTokens = 500
	}

	return m, nil
}

func (m *OpenAIModel) Name() string {
	return "openai:" + m.model
}

func (m *OpenAIModel) Predict(ctx context.Context, req scoring.PredictionRequest) (*scoring.Prediction, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		MaxTokens:      m.maxTokens,
		Temperature:    m.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parsePrediction(resp.Choices[0].Message.Content)
}

func buildPrompt(req scoring.PredictionRequest) string {
	var b strings.Builder
	b.WriteString("Normalized features:\n")
	for _, name := range req.Features.Names() {
		fmt.Fprintf(&b, "%s: %.4f\n", name, req.Features[name])
	}
	return b.String()
}

// parsePrediction accepts the JSON object with or without a markdown fence.
func parsePrediction(content string) (*scoring.Prediction, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var prediction scoring.Prediction
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &prediction); err != nil {
		return nil, fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return &prediction, nil
}
