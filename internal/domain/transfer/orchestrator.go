package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/ai"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

// ClinicalContext describes the target environment for the updated note.
type ClinicalContext struct {
	EMRType       string `json:"emr_type"` // "epic" or "credible"
	EncounterType string `json:"encounter_type,omitempty"`
	PatientID     string `json:"patient_id,omitempty"`
}

// UpdateResult is the outcome of a selective section update.
type UpdateResult struct {
	ID                uuid.UUID              `json:"id"`
	Content           string                 `json:"content"`
	Provider          string                 `json:"provider,omitempty"`
	QualityScore      float64                `json:"quality_score,omitempty"`
	FallbackUsed      bool                   `json:"fallback_used"`
	Validation        epic.Validation        `json:"validation"`
	UpdatedSections   []sections.SectionType `json:"updated_sections"`
	PreservedSections []sections.SectionType `json:"preserved_sections"`
	Warnings          []string               `json:"warnings,omitempty"`
	Duration          time.Duration          `json:"duration"`
	ProviderCalled    bool                   `json:"provider_called"`
}

// NoteGenerator is the slice of the AI manager the orchestrator needs.
type NoteGenerator interface {
	GenerateNote(ctx context.Context, req *ai.GenerationRequest) (*ai.ManagedResponse, error)
}

// Orchestrator glues section detection, constrained prompting, provider
// orchestration, and post-generation verification into the selective update
// pipeline.
type Orchestrator struct {
	generator NoteGenerator
	detector  *sections.Detector
	logger    zerolog.Logger
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(generator NoteGenerator, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		detector:  sections.NewDetector(),
		logger:    logger.With().Str("component", "transfer_orchestrator").Logger(),
	}
}

// GenerateUpdate regenerates the selected sections of parsed from the new
// transcript while preserving the rest verbatim. When nothing is selected
// it returns the original content unchanged without calling the provider.
func (o *Orchestrator) GenerateUpdate(
	ctx context.Context,
	parsed *sections.ParsedNote,
	newTranscript string,
	configs []SectionUpdateConfig,
	clinCtx ClinicalContext,
) (*UpdateResult, error) {
	start := time.Now()

	if parsed == nil || strings.TrimSpace(parsed.OriginalContent) == "" {
		return nil, fmt.Errorf("previous note is empty")
	}

	toUpdate, toPreserve := o.partition(parsed, configs)

	if len(toUpdate) == 0 {
		return &UpdateResult{
			ID:                uuid.New(),
			Content:           parsed.OriginalContent,
			PreservedSections: typeList(toPreserve),
			Warnings:          []string{"no sections selected for update; returning original note"},
			Validation:        epic.Validate(parsed.OriginalContent),
			Duration:          time.Since(start),
		}, nil
	}

	if strings.TrimSpace(newTranscript) == "" {
		return nil, fmt.Errorf("new transcript is empty")
	}

	prompt := buildSelectivePrompt(parsed, newTranscript, toUpdate, toPreserve, clinCtx)
	resp, err := o.generator.GenerateNote(ctx, &ai.GenerationRequest{
		Transcript: newTranscript,
		EMRType:    clinCtx.EMRType,
		Prompt:     prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("selective update generation: %w", err)
	}

	result := &UpdateResult{
		ID:                uuid.New(),
		Content:           resp.Content,
		Provider:          resp.Provider,
		QualityScore:      resp.QualityScore,
		FallbackUsed:      resp.FallbackUsed,
		UpdatedSections:   typeList(toUpdate),
		PreservedSections: typeList(toPreserve),
		ProviderCalled:    true,
	}

	reparsed := o.detector.Detect(resp.Content)

	// Every updated section must come back; a silently dropped section is a
	// failed generation, not a quiet omission.
	for _, sec := range toUpdate {
		if reparsed.Section(sec.section.Type) == nil {
			return nil, &ai.ProviderError{
				Provider: resp.Provider,
				Code:     ai.CodeIncompleteOutput,
				Message:  fmt.Sprintf("section %s missing from generated note", sec.section.Type),
			}
		}
	}

	// Preserved sections must be byte-identical. Violations are warnings
	// flagged for human review, never silently corrected.
	for _, sec := range toPreserve {
		got := reparsed.Section(sec.section.Type)
		if got == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: preserved section missing from output", ai.CodePreservationViolation))
			continue
		}
		if strings.TrimSpace(got.Content) != strings.TrimSpace(sec.section.Content) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: section %s was altered despite preserve instruction",
				ai.CodePreservationViolation, sec.section.Type))
		}
	}

	result.Validation = epic.ValidateAgainst(parsed.OriginalContent, resp.Content)
	result.Duration = time.Since(start)

	o.logger.Info().
		Str("provider", result.Provider).
		Int("updated", len(result.UpdatedSections)).
		Int("preserved", len(result.PreservedSections)).
		Int("warnings", len(result.Warnings)).
		Msg("selective update complete")

	return result, nil
}

// sectionPlan pairs a detected section with its update config.
type sectionPlan struct {
	section sections.DetectedSection
	config  SectionUpdateConfig
}

// partition splits the parsed sections into update and preserve sets.
// Sections without a config default to preserve.
func (o *Orchestrator) partition(parsed *sections.ParsedNote, configs []SectionUpdateConfig) (toUpdate, toPreserve []sectionPlan) {
	byType := make(map[sections.SectionType]SectionUpdateConfig, len(configs))
	for _, c := range configs {
		byType[c.SectionType] = c
	}
	for _, sec := range parsed.Sections {
		cfg, ok := byType[sec.Type]
		if ok && cfg.ShouldUpdate {
			toUpdate = append(toUpdate, sectionPlan{section: sec, config: cfg})
		} else {
			toPreserve = append(toPreserve, sectionPlan{section: sec, config: cfg})
		}
	}
	return toUpdate, toPreserve
}

func typeList(plans []sectionPlan) []sections.SectionType {
	out := make([]sections.SectionType, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.section.Type)
	}
	return out
}

// buildSelectivePrompt renders the constrained prompt: preserved sections
// verbatim with a reproduce-exactly instruction, the new transcript, and
// the section-by-section update guidance.
func buildSelectivePrompt(
	parsed *sections.ParsedNote,
	transcript string,
	toUpdate, toPreserve []sectionPlan,
	clinCtx ClinicalContext,
) string {
	var b strings.Builder

	b.WriteString("You are updating an existing clinical note for a transfer of care. ")
	b.WriteString("Rewrite ONLY the sections listed under SECTIONS TO UPDATE, using the new encounter transcript. ")
	b.WriteString("Every section listed under SECTIONS TO PRESERVE must be reproduced exactly, character for character. Do not reorder sections.\n\n")

	emr := clinCtx.EMRType
	if emr == "" {
		emr = string(parsed.EMRType)
	}
	fmt.Fprintf(&b, "Target EMR: %s\n", emr)
	if emr == "epic" {
		b.WriteString("Preserve all Epic syntax exactly: SmartPhrases @NAME@ keep uppercase, DotPhrases .name keep lowercase, SmartLists {Name:ID} keep their numeric IDs, *** wildcards stay in place.\n")
	}
	b.WriteString("\nSECTIONS TO UPDATE:\n")
	for _, p := range toUpdate {
		reason := p.config.UpdateReason
		if reason == "" {
			reason = "update from new encounter"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.section.Title, p.section.Type, reason)
	}

	b.WriteString("\nSECTIONS TO PRESERVE (reproduce exactly, do not alter):\n")
	for _, p := range toPreserve {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", p.section.Title, p.section.Content)
	}

	b.WriteString("\nNEW ENCOUNTER TRANSCRIPT:\n---\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n\nReturn the complete updated note with all sections in their original order. Return only the note text.")

	return b.String()
}
