package notes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rufusmd/ai-medical-note-writer/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// -- Transcripts --

const transcriptCols = `id, patient_id, content, encounter_type, recorded_at, created_by, created_at`

func (r *repoPG) CreateTranscript(ctx context.Context, t *Transcript) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO transcripts (id, patient_id, content, encounter_type, recorded_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.PatientID, t.Content, t.EncounterType, t.RecordedAt, t.CreatedBy,
	)
	return err
}

func (r *repoPG) GetTranscript(ctx context.Context, id uuid.UUID) (*Transcript, error) {
	var t Transcript
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+transcriptCols+` FROM transcripts WHERE id = $1`, id).
		Scan(&t.ID, &t.PatientID, &t.Content, &t.EncounterType, &t.RecordedAt, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) ListTranscriptsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transcript, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transcripts WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+transcriptCols+` FROM transcripts WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transcripts []*Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Content, &t.EncounterType, &t.RecordedAt, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		transcripts = append(transcripts, &t)
	}
	return transcripts, total, nil
}

// -- Generated notes --

const noteCols = `id, patient_id, transcript_id, template_id, content, provider, model,
	quality_score, preservation_score, fallback_used, status, generation_ms, created_by, created_at, updated_at`

func (r *repoPG) CreateNote(ctx context.Context, n *GeneratedNote) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO generated_notes
			(id, patient_id, transcript_id, template_id, content, provider, model,
			 quality_score, preservation_score, fallback_used, status, generation_ms, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		n.ID, n.PatientID, n.TranscriptID, n.TemplateID, n.Content, n.Provider, n.Model,
		n.QualityScore, n.PreservationScore, n.FallbackUsed, n.Status, n.GenerationMs, n.CreatedBy,
	)
	return err
}

func (r *repoPG) GetNote(ctx context.Context, id uuid.UUID) (*GeneratedNote, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM generated_notes WHERE id = $1`, id))
}

func (r *repoPG) UpdateNoteContent(ctx context.Context, id uuid.UUID, content string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE generated_notes SET content=$2, updated_at=NOW() WHERE id = $1`, id, content)
	return err
}

func (r *repoPG) SetNoteStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE generated_notes SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) ListNotes(ctx context.Context, limit, offset int) ([]*GeneratedNote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM generated_notes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM generated_notes ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectNotes(rows, total)
}

func (r *repoPG) ListNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*GeneratedNote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM generated_notes WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM generated_notes WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectNotes(rows, total)
}

func (r *repoPG) CountNotes(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM generated_notes`).Scan(&n)
	return n, err
}

func scanNote(row pgx.Row) (*GeneratedNote, error) {
	var n GeneratedNote
	err := row.Scan(&n.ID, &n.PatientID, &n.TranscriptID, &n.TemplateID, &n.Content, &n.Provider, &n.Model,
		&n.QualityScore, &n.PreservationScore, &n.FallbackUsed, &n.Status, &n.GenerationMs,
		&n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNotes(rows pgx.Rows, total int) ([]*GeneratedNote, int, error) {
	var result []*GeneratedNote
	for rows.Next() {
		var n GeneratedNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.TranscriptID, &n.TemplateID, &n.Content, &n.Provider, &n.Model,
			&n.QualityScore, &n.PreservationScore, &n.FallbackUsed, &n.Status, &n.GenerationMs,
			&n.CreatedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &n)
	}
	return result, total, nil
}

// -- Versions --

func (r *repoPG) CreateVersion(ctx context.Context, v *NoteVersion) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO note_versions (id, note_id, version, content, change_summary, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		v.ID, v.NoteID, v.Version, v.Content, v.ChangeSummary, v.CreatedBy,
	)
	return err
}

func (r *repoPG) ListVersions(ctx context.Context, noteID uuid.UUID) ([]*NoteVersion, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, note_id, version, content, change_summary, created_by, created_at
		FROM note_versions WHERE note_id = $1 ORDER BY version`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*NoteVersion
	for rows.Next() {
		var v NoteVersion
		if err := rows.Scan(&v.ID, &v.NoteID, &v.Version, &v.Content, &v.ChangeSummary, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, &v)
	}
	return versions, nil
}

func (r *repoPG) LatestVersion(ctx context.Context, noteID uuid.UUID) (int, error) {
	var version int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM note_versions WHERE note_id = $1`, noteID).Scan(&version)
	return version, err
}

// -- Edit sessions --

func (r *repoPG) CreateEditSession(ctx context.Context, s *EditSession) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO edit_sessions (id, note_id, started_at, ended_at, changes, analytics, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.NoteID, s.StartedAt, s.EndedAt, s.Changes, s.Analytics, s.CreatedBy,
	)
	return err
}

func (r *repoPG) ListEditSessions(ctx context.Context, noteID uuid.UUID) ([]*EditSession, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, note_id, started_at, ended_at, changes, analytics, created_by, created_at
		FROM edit_sessions WHERE note_id = $1 ORDER BY started_at`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*EditSession
	for rows.Next() {
		var s EditSession
		if err := rows.Scan(&s.ID, &s.NoteID, &s.StartedAt, &s.EndedAt, &s.Changes, &s.Analytics, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}
