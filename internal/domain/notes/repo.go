package notes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateTranscript(ctx context.Context, t *Transcript) error
	GetTranscript(ctx context.Context, id uuid.UUID) (*Transcript, error)
	ListTranscriptsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transcript, int, error)

	CreateNote(ctx context.Context, n *GeneratedNote) error
	GetNote(ctx context.Context, id uuid.UUID) (*GeneratedNote, error)
	UpdateNoteContent(ctx context.Context, id uuid.UUID, content string) error
	SetNoteStatus(ctx context.Context, id uuid.UUID, status string) error
	ListNotes(ctx context.Context, limit, offset int) ([]*GeneratedNote, int, error)
	ListNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*GeneratedNote, int, error)
	CountNotes(ctx context.Context) (int64, error)

	CreateVersion(ctx context.Context, v *NoteVersion) error
	ListVersions(ctx context.Context, noteID uuid.UUID) ([]*NoteVersion, error)
	LatestVersion(ctx context.Context, noteID uuid.UUID) (int, error)

	CreateEditSession(ctx context.Context, s *EditSession) error
	ListEditSessions(ctx context.Context, noteID uuid.UUID) ([]*EditSession, error)
}
