package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel = "gemini-1.5-pro"
	geminiTemperature  = 0.2
)

// Gemini API request/response shapes. Only the fields this client reads are
// declared; anything else the API returns is ignored at the boundary.

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiClient calls the Google Generative Language API.
type GeminiClient struct {
	http   *resty.Client
	apiKey string
	model  string
	logger zerolog.Logger
}

// NewGeminiClient builds a Gemini provider. The API key may be empty; calls
// will then fail fast with MISSING_API_KEY.
func NewGeminiClient(apiKey string, logger zerolog.Logger) *GeminiClient {
	client := resty.New().
		SetBaseURL(geminiBaseURL).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{
		http:   client,
		apiKey: apiKey,
		model:  geminiDefaultModel,
		logger: logger.With().Str("provider", ProviderGemini).Logger(),
	}
}

func (c *GeminiClient) Name() string { return ProviderGemini }

// GenerateNote drafts a note from the request transcript.
func (c *GeminiClient) GenerateNote(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	steps := []string{"build_prompt"}
	if c.apiKey == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Code: CodeMissingAPIKey, Steps: steps}
	}

	prompt := BuildPrompt(req)
	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig:  geminiGenConfig{Temperature: geminiTemperature, MaxOutputTokens: 4096},
	}

	steps = append(steps, "call_api")
	start := time.Now()
	var out geminiResponse
	var apiErr geminiErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	duration := time.Since(start)

	if err != nil {
		c.logger.Error().Err(err).Dur("duration", duration).Msg("gemini call failed")
		return nil, &ProviderError{
			Provider: ProviderGemini,
			Code:     classifyTransport(err),
			Message:  err.Error(),
			Steps:    steps,
			Err:      err,
		}
	}
	if resp.IsError() {
		code := classifyStatus(resp.StatusCode())
		c.logger.Error().Int("status", resp.StatusCode()).Str("api_status", apiErr.Error.Status).Msg("gemini returned error")
		return nil, &ProviderError{
			Provider: ProviderGemini,
			Code:     code,
			Message:  apiErr.Error.Message,
			Steps:    steps,
		}
	}

	steps = append(steps, "extract_text")
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, &ProviderError{
			Provider: ProviderGemini,
			Code:     CodeSafetyFilter,
			Message:  "prompt blocked: " + out.PromptFeedback.BlockReason,
			Steps:    steps,
		}
	}
	text := ""
	if len(out.Candidates) > 0 {
		if out.Candidates[0].FinishReason == "SAFETY" {
			return nil, &ProviderError{
				Provider: ProviderGemini,
				Code:     CodeSafetyFilter,
				Message:  "candidate blocked by safety filter",
				Steps:    steps,
			}
		}
		for _, p := range out.Candidates[0].Content.Parts {
			text += p.Text
		}
	}
	if text == "" {
		return nil, &ProviderError{Provider: ProviderGemini, Code: CodeEmptyResponse, Steps: steps}
	}

	steps = append(steps, "validate_syntax", "score_quality")
	validation := epic.Validate(text)
	score := ScoreQuality(text, req.Transcript, validation)

	c.logger.Info().
		Dur("duration", duration).
		Float64("quality", score).
		Int("tokens", out.UsageMetadata.TotalTokenCount).
		Msg("note generated")

	return &GenerationResponse{
		Provider:     ProviderGemini,
		Model:        c.model,
		Content:      text,
		QualityScore: score,
		Validation:   validation,
		Usage: TokenUsage{
			PromptTokens:     out.UsageMetadata.PromptTokenCount,
			CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      out.UsageMetadata.TotalTokenCount,
		},
		Duration: duration,
		Steps:    steps,
	}, nil
}

// Healthy issues a minimal completion and checks for any answer.
func (c *GeminiClient) Healthy(ctx context.Context) error {
	if c.apiKey == "" {
		return &ProviderError{Provider: ProviderGemini, Code: CodeMissingAPIKey}
	}
	body := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: healthPrompt}}}},
		GenerationConfig: geminiGenConfig{Temperature: 0, MaxOutputTokens: 8},
	}
	var out geminiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return &ProviderError{Provider: ProviderGemini, Code: classifyTransport(err), Err: err}
	}
	if resp.IsError() {
		return &ProviderError{Provider: ProviderGemini, Code: classifyStatus(resp.StatusCode())}
	}
	if len(out.Candidates) == 0 {
		return &ProviderError{Provider: ProviderGemini, Code: CodeEmptyResponse}
	}
	return nil
}
