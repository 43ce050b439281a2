package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sladosa/diary-multiuser/internal/models"
	"github.com/sladosa/diary-multiuser/internal/query"
)

const eventColumns = `e.id, e.user_id, e.category_id, e.occurred_at, e.comment, e.duration_minutes, e.data, e.created_at, e.updated_at`

// CreateEvent inserts one event. The INSERT only matches when the category
// belongs to the same user, so the event→category ownership chain holds at
// write time.
func (r *Repo) CreateEvent(ctx context.Context, userID string, d models.EventDraft) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO events (user_id, category_id, occurred_at, comment, duration_minutes, data)
		 SELECT $1, c.id, $3, $4, $5, $6 FROM categories c WHERE c.id=$2 AND c.user_id=$1
		 RETURNING id`,
		userID, d.CategoryID, d.OccurredAt, d.Comment, d.DurationMinutes, d.Data).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

// UpdateEvent replaces all mutable fields, scoped to the owning user.
func (r *Repo) UpdateEvent(ctx context.Context, id, userID string, d models.EventDraft) error {
	cmd, err := r.Pool.Exec(ctx,
		`UPDATE events e SET category_id=c.id, occurred_at=$1, comment=$2, duration_minutes=$3, data=$4, updated_at=now()
		 FROM categories c
		 WHERE e.id=$5 AND e.user_id=$6 AND c.id=$7 AND c.user_id=$6`,
		d.OccurredAt, d.Comment, d.DurationMinutes, d.Data, id, userID, d.CategoryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteEvent(ctx context.Context, id, userID string) error {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM events WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvents executes a query plan and joins the taxonomy for display
// labels. The joins sit outside the paginated subquery so LIMIT/OFFSET
// windows match the count query exactly.
func (r *Repo) ListEvents(ctx context.Context, plan query.Plan) ([]models.LabeledEvent, error) {
	return r.listLabeled(ctx, plan.SelectSQL("*"), plan.Args)
}

// ListAllEvents is ListEvents without the pagination window: the full
// filtered set, for aggregation and export.
func (r *Repo) ListAllEvents(ctx context.Context, plan query.Plan) ([]models.LabeledEvent, error) {
	return r.listLabeled(ctx, plan.SelectAllSQL("*"), plan.Args)
}

func (r *Repo) listLabeled(ctx context.Context, inner string, args []any) ([]models.LabeledEvent, error) {
	sql := fmt.Sprintf(
		`SELECT %s, c.name, a.name
		 FROM (%s) e
		 LEFT JOIN categories c ON c.id = e.category_id
		 LEFT JOIN areas a ON a.id = c.area_id
		 ORDER BY e.occurred_at DESC, e.id DESC`,
		eventColumns, inner)
	rows, err := r.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.LabeledEvent
	for rows.Next() {
		var e models.LabeledEvent
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CategoryID, &e.OccurredAt, &e.Comment, &e.DurationMinutes,
			&e.Data, &e.CreatedAt, &e.UpdatedAt, &e.CategoryName, &e.AreaName,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEvents runs the plan's predicate without the pagination window.
func (r *Repo) CountEvents(ctx context.Context, plan query.Plan) (int, error) {
	var total int
	err := r.Pool.QueryRow(ctx, plan.CountSQL(), plan.Args...).Scan(&total)
	return total, err
}

// BulkInsertEvents writes the whole batch in one transaction: either every
// row lands and the returned count equals len(drafts), or nothing is
// committed and a single error comes back. Category ownership is verified
// for the distinct id set before any insert.
func (r *Repo) BulkInsertEvents(ctx context.Context, userID string, drafts []models.EventDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	distinct := make(map[string]struct{}, len(drafts))
	catIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if _, dup := distinct[d.CategoryID]; !dup {
			distinct[d.CategoryID] = struct{}{}
			catIDs = append(catIDs, d.CategoryID)
		}
	}

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var owned int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM categories WHERE user_id=$1 AND id = ANY($2)`,
		userID, catIDs).Scan(&owned); err != nil {
		return 0, err
	}
	if owned != len(catIDs) {
		return 0, fmt.Errorf("bulk insert: %w: one or more categories", ErrNotFound)
	}

	batch := &pgx.Batch{}
	for _, d := range drafts {
		batch.Queue(
			`INSERT INTO events (id, user_id, category_id, occurred_at, comment, duration_minutes, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), userID, d.CategoryID, d.OccurredAt, d.Comment, d.DurationMinutes, d.Data)
	}
	br := tx.SendBatch(ctx, batch)
	for range drafts {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, err
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(drafts), nil
}
