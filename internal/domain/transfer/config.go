// Package transfer implements the transfer-of-care workflow: parse an
// existing note into sections, let the clinician choose which sections to
// regenerate from a new transcript, and merge the model output back while
// proving the preserved sections survived untouched.
package transfer

import (
	"fmt"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

// MergeStrategy controls how an updated section replaces its predecessor.
type MergeStrategy string

const (
	MergeReplace MergeStrategy = "replace"
	MergeAppend  MergeStrategy = "append"
	MergeMerge   MergeStrategy = "merge"
)

// SectionUpdateConfig is the per-section decision for one generation call.
type SectionUpdateConfig struct {
	SectionType      sections.SectionType `json:"section_type"`
	ShouldUpdate     bool                 `json:"should_update"`
	UpdateReason     string               `json:"update_reason,omitempty"`
	PreserveOriginal bool                 `json:"preserve_original"`
	MergeStrategy    MergeStrategy        `json:"merge_strategy"`
}

// Preset names selectable in the transfer-of-care UI.
const (
	PresetMinimal       = "minimal"
	PresetStandard      = "standard"
	PresetComprehensive = "comprehensive"
)

// presetSections lists which canonical sections each preset regenerates.
// Comprehensive is handled specially: it updates everything present.
var presetSections = map[string][]sections.SectionType{
	PresetMinimal: {
		sections.HPI,
		sections.AssessmentAndPlan,
		sections.FollowUp,
	},
	PresetStandard: {
		sections.HPI,
		sections.AssessmentAndPlan,
		sections.FollowUp,
		sections.MedicationsPlan,
		sections.PsychExam,
		sections.RiskAssessment,
	},
}

// presetReasons gives the default update rationale per preset.
var presetReasons = map[string]string{
	PresetMinimal:       "routine transfer of care update",
	PresetStandard:      "standard visit update",
	PresetComprehensive: "full note regeneration",
}

// Presets lists the available preset names.
func Presets() []string {
	return []string{PresetMinimal, PresetStandard, PresetComprehensive}
}

// ApplyPreset builds update configs for every section of a parsed note,
// marking the preset's sections for update and preserving the rest.
func ApplyPreset(parsed *sections.ParsedNote, preset string) ([]SectionUpdateConfig, error) {
	var selected map[sections.SectionType]bool
	switch preset {
	case PresetComprehensive:
		// resolved below: everything updates
	case PresetMinimal, PresetStandard:
		selected = make(map[sections.SectionType]bool)
		for _, t := range presetSections[preset] {
			selected[t] = true
		}
	default:
		return nil, fmt.Errorf("unknown preset %q", preset)
	}

	configs := make([]SectionUpdateConfig, 0, len(parsed.Sections))
	for _, sec := range parsed.Sections {
		update := preset == PresetComprehensive || selected[sec.Type]
		cfg := SectionUpdateConfig{
			SectionType:      sec.Type,
			ShouldUpdate:     update,
			PreserveOriginal: !update,
			MergeStrategy:    MergeReplace,
		}
		if update {
			cfg.UpdateReason = presetReasons[preset]
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// DefaultConfigs returns per-section defaults keyed by encounter type.
// Follow-ups default to the minimal set; everything else regenerates fully.
func DefaultConfigs(parsed *sections.ParsedNote, encounterType string) []SectionUpdateConfig {
	preset := PresetComprehensive
	if encounterType == "follow-up" {
		preset = PresetMinimal
	}
	configs, _ := ApplyPreset(parsed, preset)
	return configs
}
