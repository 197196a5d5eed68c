package ai

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
)

const (
	claudeBaseURL      = "https://api.anthropic.com/v1"
	claudeAPIVersion   = "2023-06-01"
	claudeDefaultModel = "claude-3-5-sonnet-20241022"
	claudeTemperature  = 0.3
)

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClaudeClient calls the Anthropic Messages API.
type ClaudeClient struct {
	http   *resty.Client
	apiKey string
	model  string
	logger zerolog.Logger
}

// NewClaudeClient builds a Claude provider. The API key may be empty; calls
// will then fail fast with MISSING_API_KEY.
func NewClaudeClient(apiKey string, logger zerolog.Logger) *ClaudeClient {
	client := resty.New().
		SetBaseURL(claudeBaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("anthropic-version", claudeAPIVersion)

	return &ClaudeClient{
		http:   client,
		apiKey: apiKey,
		model:  claudeDefaultModel,
		logger: logger.With().Str("provider", ProviderClaude).Logger(),
	}
}

func (c *ClaudeClient) Name() string { return ProviderClaude }

// GenerateNote drafts a note from the request transcript.
func (c *ClaudeClient) GenerateNote(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	steps := []string{"build_prompt"}
	if c.apiKey == "" {
		return nil, &ProviderError{Provider: ProviderClaude, Code: CodeMissingAPIKey, Steps: steps}
	}

	body := claudeRequest{
		Model:       c.model,
		MaxTokens:   4096,
		Temperature: claudeTemperature,
		System:      systemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: BuildPrompt(req)}},
	}

	steps = append(steps, "call_api")
	start := time.Now()
	var out claudeResponse
	var apiErr claudeErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/messages")
	duration := time.Since(start)

	if err != nil {
		c.logger.Error().Err(err).Dur("duration", duration).Msg("claude call failed")
		return nil, &ProviderError{
			Provider: ProviderClaude,
			Code:     classifyTransport(err),
			Message:  err.Error(),
			Steps:    steps,
			Err:      err,
		}
	}
	if resp.IsError() {
		code := classifyStatus(resp.StatusCode())
		if apiErr.Error.Type == "overloaded_error" {
			code = CodeServerError
		}
		c.logger.Error().Int("status", resp.StatusCode()).Str("api_type", apiErr.Error.Type).Msg("claude returned error")
		return nil, &ProviderError{
			Provider: ProviderClaude,
			Code:     code,
			Message:  apiErr.Error.Message,
			Steps:    steps,
		}
	}

	steps = append(steps, "extract_text")
	text := ""
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if out.StopReason == "refusal" {
		return nil, &ProviderError{
			Provider: ProviderClaude,
			Code:     CodeSafetyFilter,
			Message:  "model refused the request",
			Steps:    steps,
		}
	}
	if text == "" {
		return nil, &ProviderError{Provider: ProviderClaude, Code: CodeEmptyResponse, Steps: steps}
	}

	steps = append(steps, "validate_syntax", "score_quality")
	validation := epic.Validate(text)
	score := ScoreQuality(text, req.Transcript, validation)

	c.logger.Info().
		Dur("duration", duration).
		Float64("quality", score).
		Int("tokens", out.Usage.InputTokens+out.Usage.OutputTokens).
		Msg("note generated")

	return &GenerationResponse{
		Provider:     ProviderClaude,
		Model:        c.model,
		Content:      text,
		QualityScore: score,
		Validation:   validation,
		Usage: TokenUsage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		},
		Duration: duration,
		Steps:    steps,
	}, nil
}

// Healthy issues a minimal completion and checks for any answer.
func (c *ClaudeClient) Healthy(ctx context.Context) error {
	if c.apiKey == "" {
		return &ProviderError{Provider: ProviderClaude, Code: CodeMissingAPIKey}
	}
	body := claudeRequest{
		Model:     c.model,
		MaxTokens: 8,
		Messages:  []claudeMessage{{Role: "user", Content: healthPrompt}},
	}
	var out claudeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetBody(body).
		SetResult(&out).
		Post("/messages")
	if err != nil {
		return &ProviderError{Provider: ProviderClaude, Code: classifyTransport(err), Err: err}
	}
	if resp.IsError() {
		return &ProviderError{Provider: ProviderClaude, Code: classifyStatus(resp.StatusCode())}
	}
	if len(out.Content) == 0 {
		return &ProviderError{Provider: ProviderClaude, Code: CodeEmptyResponse}
	}
	return nil
}
