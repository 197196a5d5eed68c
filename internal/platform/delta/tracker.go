// Package delta tracks word-level edits made to a note after generation.
// It isolates the minimal changed span between successive versions of the
// text, attributes each change to the clinical section it falls in, and
// aggregates per-session typing analytics for the feedback loop.
package delta

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

// ChangeType classifies an atomic edit.
type ChangeType string

const (
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
	ChangeReplace ChangeType = "replace"
)

// Change is one atomic edit against the session baseline's successor text.
type Change struct {
	ID              uuid.UUID            `json:"id"`
	Timestamp       time.Time            `json:"timestamp"`
	Type            ChangeType           `json:"type"`
	Position        int                  `json:"position"`
	Content         string               `json:"content,omitempty"`
	PreviousContent string               `json:"previous_content,omitempty"`
	Length          int                  `json:"length"`
	SectionType     sections.SectionType `json:"section_type"`
	SessionDuration time.Duration        `json:"session_duration"`
}

// Session groups the changes recorded between two saves of a note.
type Session struct {
	ID        uuid.UUID `json:"id"`
	NoteID    uuid.UUID `json:"note_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Changes   []Change  `json:"changes"`
}

// Analytics aggregates a session's edit activity.
type Analytics struct {
	TotalChanges     int                          `json:"total_changes"`
	ByType           map[ChangeType]int           `json:"by_type"`
	BySection        map[sections.SectionType]int `json:"by_section"`
	WordsPerMinute   float64                      `json:"words_per_minute"`
	PauseCount       int                          `json:"pause_count"`
	TotalPause       time.Duration                `json:"total_pause"`
	SessionDuration  time.Duration                `json:"session_duration"`
	CharactersTyped  int                          `json:"characters_typed"`
	CharactersErased int                          `json:"characters_erased"`
}

// pauseThreshold is the keystroke gap that counts as a pause.
const pauseThreshold = time.Second

// Tracker records edits to a single note. Safe for use from the request
// goroutines of one editing session; all methods lock.
type Tracker struct {
	mu       sync.Mutex
	detector *sections.Detector
	noteID   uuid.UUID

	session    Session
	current    string // current text, advanced on every change
	lastChange time.Time

	now func() time.Time // injectable clock for tests
}

// NewTracker starts a tracking session anchored at baseline.
func NewTracker(noteID uuid.UUID, baseline string) *Tracker {
	t := &Tracker{
		detector: sections.NewDetector(),
		noteID:   noteID,
		now:      time.Now,
	}
	t.reset(baseline)
	return t
}

func (t *Tracker) reset(baseline string) {
	start := t.now()
	t.session = Session{
		ID:        uuid.New(),
		NoteID:    t.noteID,
		StartTime: start,
	}
	t.current = baseline
	t.lastChange = start
}

// OnContentChange records the edit that turned oldText into newText and
// returns it, or nil when the texts are identical. oldText must be the
// tracker's current text; if it is not, the tracker re-anchors silently so a
// missed event does not corrupt subsequent diffs.
func (t *Tracker) OnContentChange(oldText, newText string) *Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	if oldText != t.current {
		t.current = oldText
	}
	if oldText == newText {
		return nil
	}

	pos, removed, inserted := minimalSpan(oldText, newText)

	now := t.now()
	change := Change{
		ID:              uuid.New(),
		Timestamp:       now,
		Position:        pos,
		Content:         inserted,
		PreviousContent: removed,
		SectionType:     t.detector.NearestSectionType(newText, pos),
		SessionDuration: now.Sub(t.session.StartTime),
	}
	switch {
	case removed == "":
		change.Type = ChangeInsert
		change.Length = len(inserted)
	case inserted == "":
		change.Type = ChangeDelete
		change.Length = len(removed)
	default:
		change.Type = ChangeReplace
		change.Length = len(inserted)
	}

	t.session.Changes = append(t.session.Changes, change)
	t.current = newText
	t.lastChange = now
	return &change
}

// minimalSpan finds the smallest differing span between two texts via a
// longest-common-prefix / longest-common-suffix scan. It returns the byte
// position of the change plus the removed and inserted spans.
func minimalSpan(oldText, newText string) (pos int, removed, inserted string) {
	prefix := 0
	for prefix < len(oldText) && prefix < len(newText) && oldText[prefix] == newText[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(oldText)-prefix && suffix < len(newText)-prefix &&
		oldText[len(oldText)-1-suffix] == newText[len(newText)-1-suffix] {
		suffix++
	}

	return prefix, oldText[prefix : len(oldText)-suffix], newText[prefix : len(newText)-suffix]
}

// Analytics summarizes the session so far.
func (t *Tracker) Analytics() Analytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	a := Analytics{
		ByType:    make(map[ChangeType]int),
		BySection: make(map[sections.SectionType]int),
	}
	a.TotalChanges = len(t.session.Changes)

	var prev time.Time
	for i, c := range t.session.Changes {
		a.ByType[c.Type]++
		a.BySection[c.SectionType]++
		a.CharactersTyped += len(c.Content)
		a.CharactersErased += len(c.PreviousContent)
		if i > 0 {
			if gap := c.Timestamp.Sub(prev); gap > pauseThreshold {
				a.PauseCount++
				a.TotalPause += gap
			}
		}
		prev = c.Timestamp
	}

	a.SessionDuration = t.now().Sub(t.session.StartTime)
	if minutes := a.SessionDuration.Minutes(); minutes > 0 {
		// Rough words-typed estimate at five characters per word.
		a.WordsPerMinute = float64(a.CharactersTyped) / 5.0 / minutes
	}
	return a
}

// Session returns a copy of the in-progress session.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.session
	s.Changes = append([]Change(nil), t.session.Changes...)
	return s
}

// ResetBaseline closes the current session and starts a new one anchored at
// baseline. Called after every explicit save so analytics are always
// relative to the last persisted version. The closed session is returned
// for persistence.
func (t *Tracker) ResetBaseline(baseline string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	closed := t.session
	closed.EndTime = t.now()
	closed.Changes = append([]Change(nil), closed.Changes...)
	t.reset(baseline)
	return closed
}
