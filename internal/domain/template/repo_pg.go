package template

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

const templateCols = `id, name, description, emr_type, encounter_type, content,
	smart_phrases, dot_phrases, smart_lists, is_active, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *NoteTemplate) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO note_templates
			(id, name, description, emr_type, encounter_type, content,
			 smart_phrases, dot_phrases, smart_lists, is_active, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.Name, t.Description, t.EMRType, t.EncounterType, t.Content,
		t.SmartPhrases, t.DotPhrases, t.SmartLists, t.IsActive, t.CreatedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*NoteTemplate, error) {
	return scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM note_templates WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *NoteTemplate) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE note_templates SET
			name=$2, description=$3, emr_type=$4, encounter_type=$5, content=$6,
			smart_phrases=$7, dot_phrases=$8, smart_lists=$9, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.EMRType, t.EncounterType, t.Content,
		t.SmartPhrases, t.DotPhrases, t.SmartLists,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE note_templates SET is_active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *repoPG) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*NoteTemplate, int, error) {
	where := `WHERE is_active = TRUE`
	if includeInactive {
		where = ``
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM note_templates `+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM note_templates `+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTemplates(rows, total)
}

func (r *repoPG) ListByEMRType(ctx context.Context, emrType string, limit, offset int) ([]*NoteTemplate, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM note_templates WHERE is_active = TRUE AND emr_type = $1`, emrType).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM note_templates WHERE is_active = TRUE AND emr_type = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		emrType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTemplates(rows, total)
}

func scanTemplate(row pgx.Row) (*NoteTemplate, error) {
	var t NoteTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.EMRType, &t.EncounterType, &t.Content,
		&t.SmartPhrases, &t.DotPhrases, &t.SmartLists, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTemplates(rows pgx.Rows, total int) ([]*NoteTemplate, int, error) {
	var templates []*NoteTemplate
	for rows.Next() {
		var t NoteTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.EMRType, &t.EncounterType, &t.Content,
			&t.SmartPhrases, &t.DotPhrases, &t.SmartLists, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		templates = append(templates, &t)
	}
	return templates, total, nil
}
