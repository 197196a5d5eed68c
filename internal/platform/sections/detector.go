package sections

import (
	"strings"
	"time"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/epic"
)

// Detector segments note text into typed sections using the header-alias
// table. Construct with NewDetector.
type Detector struct {
	aliases []headerAlias
}

// NewDetector returns a Detector backed by the canonical alias table.
func NewDetector() *Detector {
	return &Detector{aliases: headerAliases}
}

// headerHit records a matched section header line.
type headerHit struct {
	alias      headerAlias
	title      string // header text as written, without colon or trailing content
	start      int    // byte offset of the header line
	contentPos int    // byte offset just past the header line
}

// Detect parses note text into a ParsedNote. It never fails: input with no
// recognizable headers yields a single OTHER section with a warning, and
// empty input yields no sections with an error recorded in the metadata.
func (d *Detector) Detect(noteText string) *ParsedNote {
	start := time.Now()
	parsed := &ParsedNote{
		OriginalContent: noteText,
		DetectedFormat:  FormatNarrative,
		EMRType:         EMRCredible,
	}

	if strings.TrimSpace(noteText) == "" {
		parsed.ParseMetadata = ParseMetadata{
			ProcessingTime: time.Since(start),
			Errors:         []string{"note text is empty"},
		}
		return parsed
	}

	hits := d.scanHeaders(noteText)
	if len(hits) == 0 {
		sec := d.buildSection(headerHit{
			alias: headerAlias{sectType: Other},
			title: "Note",
		}, noteText, len(noteText))
		sec.Confidence = 0.05
		parsed.Sections = []DetectedSection{sec}
		parsed.ParseMetadata.Warnings = append(parsed.ParseMetadata.Warnings,
			"no section headers recognized; treating entire note as one section")
	} else {
		for i, hit := range hits {
			end := len(noteText)
			if i+1 < len(hits) {
				end = hits[i+1].start
			}
			parsed.Sections = append(parsed.Sections, d.buildSection(hit, noteText, end))
		}
	}

	parsed.DetectedFormat, parsed.EMRType = d.classify(noteText, parsed.Sections)

	var total float64
	for _, s := range parsed.Sections {
		total += s.Confidence
	}
	parsed.ParseMetadata.TotalSections = len(parsed.Sections)
	if len(parsed.Sections) > 0 {
		parsed.ParseMetadata.Confidence = total / float64(len(parsed.Sections))
	}
	parsed.ParseMetadata.ProcessingTime = time.Since(start)
	return parsed
}

// scanHeaders walks the text line by line collecting header matches. When
// the same canonical type appears more than once, the last occurrence wins:
// earlier duplicates are dropped, matching how clinicians re-state a header
// when amending a note.
func (d *Detector) scanHeaders(text string) []headerHit {
	var all []headerHit
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if alias, title, ok := d.matchHeader(line); ok {
			all = append(all, headerHit{
				alias:      alias,
				title:      title,
				start:      offset,
				contentPos: offset + len(line),
			})
		}
		offset += len(line)
	}

	// Keep only the last hit per canonical type, preserving document order.
	last := make(map[SectionType]int, len(all))
	for i, h := range all {
		last[h.alias.sectType] = i
	}
	var hits []headerHit
	for i, h := range all {
		if last[h.alias.sectType] == i {
			hits = append(hits, h)
		}
	}
	return hits
}

// matchHeader tests whether a line opens a section. Header keywords are
// matched case-insensitively against the text before the first colon, or
// against the whole line when the line is short enough to plausibly be a
// bare header.
func (d *Detector) matchHeader(line string) (headerAlias, string, bool) {
	stripped := strings.TrimSpace(strings.TrimRight(line, "\r\n"))
	if stripped == "" {
		return headerAlias{}, "", false
	}
	head := stripped
	if idx := strings.Index(stripped, ":"); idx >= 0 {
		head = strings.TrimSpace(stripped[:idx])
	}
	if head == "" || len(head) > 40 {
		return headerAlias{}, "", false
	}
	lower := strings.ToLower(head)
	for _, a := range d.aliases {
		if lower == a.keyword {
			return a, head, true
		}
	}
	return headerAlias{}, "", false
}

// buildSection closes a section at end and scores it. A header line of the
// form "HPI: patient reports..." keeps its same-line tail as content.
func (d *Detector) buildSection(hit headerHit, text string, end int) DetectedSection {
	content := ""
	if hit.contentPos < end {
		content = text[hit.contentPos:end]
	}
	headerLine := text[hit.start:min(hit.contentPos, len(text))]
	if idx := strings.Index(headerLine, ":"); idx >= 0 {
		tail := strings.TrimRight(headerLine[idx+1:], "\r\n")
		if strings.TrimSpace(tail) != "" {
			content = strings.TrimLeft(tail, " ") + "\n" + content
		}
	}

	trimmed := strings.TrimSpace(content)
	sec := DetectedSection{
		Type:       hit.alias.sectType,
		Title:      hit.title,
		Content:    strings.TrimRight(content, "\n"),
		StartIndex: hit.start,
		EndIndex:   end,
	}
	sec.Metadata.IsEmpty = trimmed == ""
	sec.Metadata.WordCount = len(strings.Fields(trimmed))
	sec.Metadata.HasEpicSyntax = epic.HasEpicSyntax(content)
	sec.Metadata.ClinicalTerms = vocabularyHits(sec.Type, trimmed)
	sec.Confidence = confidence(hit.alias.strength, sec)
	return sec
}

// confidence weighs header match strength, non-emptiness, and clinical
// vocabulary coverage. Empty sections score zero.
func confidence(headerStrength float64, sec DetectedSection) float64 {
	if sec.Metadata.IsEmpty {
		return 0
	}
	score := 0.6*headerStrength + 0.2
	vocab := clinicalVocabulary[sec.Type]
	if len(vocab) == 0 {
		score += 0.1
	} else {
		frac := float64(len(sec.Metadata.ClinicalTerms)) / 3.0
		if frac > 1 {
			frac = 1
		}
		score += 0.2 * frac
	}
	if score > 1 {
		score = 1
	}
	return score
}

func vocabularyHits(t SectionType, content string) []string {
	lower := strings.ToLower(content)
	var hits []string
	for _, term := range clinicalVocabulary[t] {
		if strings.Contains(lower, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

// classify infers note format and EMR dialect. Epic token presence implies
// an Epic-structured note; two or more SOAP headers imply SOAP; anything
// else is narrative for Credible (plain text).
func (d *Detector) classify(text string, secs []DetectedSection) (NoteFormat, EMRType) {
	if epic.HasEpicSyntax(text) {
		return FormatEpicStructured, EMREpic
	}
	soap := 0
	for _, s := range secs {
		if soapTypes[s.Type] {
			soap++
		}
	}
	if soap >= 2 {
		return FormatSOAP, EMRCredible
	}
	return FormatNarrative, EMRCredible
}

// NearestSectionType returns the canonical type of the closest recognized
// header at or before pos in text, or OTHER when none precedes it. The
// delta tracker uses this to attribute edits to sections.
func (d *Detector) NearestSectionType(text string, pos int) SectionType {
	if pos > len(text) {
		pos = len(text)
	}
	best := Other
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if offset > pos {
			break
		}
		if alias, _, ok := d.matchHeader(line); ok {
			best = alias.sectType
		}
		offset += len(line)
	}
	return best
}
