package ai

import (
	"strings"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

// ScoreQuality rates a generated note 1..10. The score is a deterministic
// heuristic: a structural base score adjusted down 2 points when the Epic
// syntax validation failed and up to 1 point proportional to the syntax
// preservation score, clamped to [1,10]. Identical inputs always produce
// identical scores.
func ScoreQuality(noteText, transcript string, v epic.Validation) float64 {
	score := baseScore(noteText, transcript)

	if !v.IsValid {
		score -= 2
	}
	score += v.PreservationScore

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

// baseScore judges structure and coverage without any provider round-trip.
func baseScore(noteText, transcript string) float64 {
	trimmed := strings.TrimSpace(noteText)
	if trimmed == "" {
		return 1
	}

	score := 4.0

	// Recognized clinical structure.
	parsed := sections.NewDetector().Detect(noteText)
	switch {
	case parsed.ParseMetadata.TotalSections >= 4:
		score += 3
	case parsed.ParseMetadata.TotalSections >= 2:
		score += 2
	case parsed.ParseMetadata.TotalSections == 1 && parsed.Sections[0].Type != sections.Other:
		score += 1
	}

	// Length sanity relative to the transcript: notes dramatically shorter
	// than a tenth of the transcript, or longer than three times it, are
	// suspect.
	noteWords := len(strings.Fields(trimmed))
	transcriptWords := len(strings.Fields(transcript))
	if transcriptWords > 0 {
		ratio := float64(noteWords) / float64(transcriptWords)
		if ratio >= 0.1 && ratio <= 3.0 {
			score++
		}
	} else if noteWords > 20 {
		score++
	}

	// Transcript term coverage: sample content words from the transcript
	// and check how many survive into the note.
	if coverage := termCoverage(trimmed, transcript); coverage >= 0.3 {
		score++
	}

	return score
}

// termCoverage returns the fraction of distinct long words (5+ chars) from
// the transcript that appear in the note.
func termCoverage(note, transcript string) float64 {
	noteLower := strings.ToLower(note)
	seen := make(map[string]bool)
	total, hit := 0, 0
	for _, w := range strings.Fields(strings.ToLower(transcript)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) < 5 || seen[w] {
			continue
		}
		seen[w] = true
		total++
		if strings.Contains(noteLower, w) {
			hit++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hit) / float64(total)
}
