package feedback

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

const feedbackCols = `id, note_id, rating, comment, categories, created_by, created_at`

func (r *repoPG) Create(ctx context.Context, f *NoteFeedback) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO note_feedback (id, note_id, rating, comment, categories, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		f.ID, f.NoteID, f.Rating, f.Comment, f.Categories, f.CreatedBy,
	)
	return err
}

func (r *repoPG) ListByNote(ctx context.Context, noteID uuid.UUID) ([]*NoteFeedback, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+feedbackCols+` FROM note_feedback WHERE note_id = $1 ORDER BY created_at`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFeedback(rows)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*NoteFeedback, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM note_feedback`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+feedbackCols+` FROM note_feedback ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectFeedback(rows)
	return result, total, err
}

// Analytics aggregates average rating per provider and quality-issue
// frequency across all recorded feedback.
func (r *repoPG) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT n.provider, COUNT(f.id), AVG(f.rating)
		FROM note_feedback f
		JOIN generated_notes n ON n.id = f.note_id
		GROUP BY n.provider
		ORDER BY n.provider`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s ProviderStats
		if err := rows.Scan(&s.Provider, &s.ReviewCount, &s.AvgRating); err != nil {
			return nil, err
		}
		a.ByProvider = append(a.ByProvider, s)
	}
	rows.Close()

	catRows, err := r.conn(ctx).Query(ctx, `
		SELECT c.category, COUNT(*)
		FROM note_feedback f, jsonb_array_elements_text(f.categories) AS c(category)
		GROUP BY c.category
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var c CategoryCount
		if err := catRows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		a.ByCategory = append(a.ByCategory, c)
	}
	return a, nil
}

func collectFeedback(rows pgx.Rows) ([]*NoteFeedback, error) {
	var result []*NoteFeedback
	for rows.Next() {
		var f NoteFeedback
		if err := rows.Scan(&f.ID, &f.NoteID, &f.Rating, &f.Comment, &f.Categories, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	return result, nil
}
