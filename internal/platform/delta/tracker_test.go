package delta

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/sections"
)

func TestOnContentChange_MinimalInsert(t *testing.T) {
	tr := NewTracker(uuid.New(), "The patient is stable.")
	c := tr.OnContentChange("The patient is stable.", "The patient is very stable.")
	if c == nil {
		t.Fatal("expected a change")
	}
	if c.Type != ChangeInsert {
		t.Errorf("type = %s, want insert", c.Type)
	}
	if c.Content != "very " {
		t.Errorf("content = %q, want %q", c.Content, "very ")
	}
	if c.Position != len("The patient is ") {
		t.Errorf("position = %d, want %d", c.Position, len("The patient is "))
	}
	if c.PreviousContent != "" {
		t.Errorf("previous content = %q, want empty", c.PreviousContent)
	}
}

func TestOnContentChange_Delete(t *testing.T) {
	tr := NewTracker(uuid.New(), "Continue current regimen.")
	c := tr.OnContentChange("Continue current regimen.", "Continue regimen.")
	if c == nil || c.Type != ChangeDelete {
		t.Fatalf("change = %+v, want delete", c)
	}
	if c.PreviousContent != "current " {
		t.Errorf("previous content = %q, want %q", c.PreviousContent, "current ")
	}
}

func TestOnContentChange_Replace(t *testing.T) {
	tr := NewTracker(uuid.New(), "Mood is poor today.")
	c := tr.OnContentChange("Mood is poor today.", "Mood is improved today.")
	if c == nil || c.Type != ChangeReplace {
		t.Fatalf("change = %+v, want replace", c)
	}
	if c.PreviousContent != "poor" || c.Content != "improved" {
		t.Errorf("got %q -> %q", c.PreviousContent, c.Content)
	}
}

func TestOnContentChange_NoChange(t *testing.T) {
	tr := NewTracker(uuid.New(), "same")
	if c := tr.OnContentChange("same", "same"); c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestOnContentChange_SectionAttribution(t *testing.T) {
	note := "HPI:\nPatient reports poor sleep.\n\nPLAN:\nContinue sertraline.\n"
	tr := NewTracker(uuid.New(), note)
	edited := "HPI:\nPatient reports poor sleep.\n\nPLAN:\nContinue sertraline 100 mg.\n"
	c := tr.OnContentChange(note, edited)
	if c == nil {
		t.Fatal("expected a change")
	}
	if c.SectionType != sections.Plan {
		t.Errorf("section = %s, want PLAN", c.SectionType)
	}
}

func TestAnalytics(t *testing.T) {
	tr := NewTracker(uuid.New(), "abc")
	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	tr.reset("abc")

	tr.OnContentChange("abc", "abcd")
	clock = clock.Add(300 * time.Millisecond)
	tr.OnContentChange("abcd", "abcde")
	clock = clock.Add(3 * time.Second) // pause
	tr.OnContentChange("abcde", "abcd")
	clock = clock.Add(time.Minute)

	a := tr.Analytics()
	if a.TotalChanges != 3 {
		t.Errorf("total = %d, want 3", a.TotalChanges)
	}
	if a.ByType[ChangeInsert] != 2 || a.ByType[ChangeDelete] != 1 {
		t.Errorf("by type = %v", a.ByType)
	}
	if a.PauseCount != 1 {
		t.Errorf("pauses = %d, want 1", a.PauseCount)
	}
	if a.TotalPause != 3*time.Second {
		t.Errorf("total pause = %s", a.TotalPause)
	}
	if a.CharactersTyped != 2 || a.CharactersErased != 1 {
		t.Errorf("typed %d erased %d", a.CharactersTyped, a.CharactersErased)
	}
	if a.WordsPerMinute <= 0 {
		t.Errorf("wpm = %f", a.WordsPerMinute)
	}
}

func TestResetBaseline(t *testing.T) {
	tr := NewTracker(uuid.New(), "v1")
	tr.OnContentChange("v1", "v1 edited")

	closed := tr.ResetBaseline("v1 edited")
	if len(closed.Changes) != 1 {
		t.Errorf("closed session changes = %d, want 1", len(closed.Changes))
	}
	if closed.EndTime.IsZero() {
		t.Error("closed session should have an end time")
	}

	if got := tr.Session(); len(got.Changes) != 0 {
		t.Errorf("new session should start empty, got %d changes", len(got.Changes))
	}
	if got := tr.Session(); got.ID == closed.ID {
		t.Error("new session should have a fresh id")
	}
}

func TestAutoSaver_FlushAfterQuietPeriod(t *testing.T) {
	tr := NewTracker(uuid.New(), "base")
	flushed := make(chan Session, 1)
	as := NewAutoSaver(tr, 20*time.Millisecond, func(s Session) { flushed <- s })
	defer as.Stop()

	tr.OnContentChange("base", "base plus")
	as.Touch("base plus")

	select {
	case s := <-flushed:
		if len(s.Changes) != 1 {
			t.Errorf("flushed %d changes, want 1", len(s.Changes))
		}
	case <-time.After(time.Second):
		t.Fatal("auto-save never fired")
	}
}

func TestAutoSaver_TouchResetsTimer(t *testing.T) {
	tr := NewTracker(uuid.New(), "base")
	flushed := make(chan Session, 1)
	as := NewAutoSaver(tr, 50*time.Millisecond, func(s Session) { flushed <- s })
	defer as.Stop()

	tr.OnContentChange("base", "base x")
	as.Touch("base x")
	time.Sleep(25 * time.Millisecond)
	as.Touch("base x") // re-arm before firing

	select {
	case <-flushed:
		t.Fatal("flushed before quiet period elapsed")
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("auto-save never fired after re-arm")
	}
}
