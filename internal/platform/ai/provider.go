// Package ai holds the LLM provider clients and the orchestration that
// selects between them. Providers draft clinical notes from encounter
// transcripts under a fixed Epic-syntax-preserving system prompt; the
// manager enforces timeouts, quality gating, primary/fallback selection,
// and side-by-side comparison.
package ai

import (
	"context"
	"time"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
)

// Provider names. These values appear in persisted note records.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// PatientContext is the optional patient snapshot interpolated into prompts.
type PatientContext struct {
	Name          string `json:"name,omitempty"`
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	RelevantHx    string `json:"relevant_hx,omitempty"`
	EncounterType string `json:"encounter_type,omitempty"`
}

// TemplateContext is the optional note template interpolated into prompts.
type TemplateContext struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// GenerationRequest is the provider-independent request shape.
type GenerationRequest struct {
	Transcript string           `json:"transcript"`
	Template   *TemplateContext `json:"template,omitempty"`
	Patient    *PatientContext  `json:"patient,omitempty"`
	EMRType    string           `json:"emr_type"` // "epic" or "credible"

	// Prompt overrides the built prompt entirely when set. The selective
	// update orchestrator uses this to issue its constrained prompt.
	Prompt string `json:"-"`
}

// TokenUsage reports provider token accounting for a call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResponse is the provider-independent result shape.
type GenerationResponse struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Content      string          `json:"content"`
	QualityScore float64         `json:"quality_score"` // 1..10
	Validation   epic.Validation `json:"validation"`
	Usage        TokenUsage      `json:"usage"`
	Duration     time.Duration   `json:"duration"`
	Steps        []string        `json:"steps,omitempty"`
}

// Provider is a single LLM backend capable of drafting clinical notes.
type Provider interface {
	Name() string
	GenerateNote(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)
	// Healthy performs a minimal round-trip call and returns nil when the
	// provider answers.
	Healthy(ctx context.Context) error
}
