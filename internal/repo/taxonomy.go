package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/sladosa/diary-multiuser/internal/models"
)

func (r *Repo) ListAreas(ctx context.Context, userID string) ([]models.Area, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM areas WHERE user_id=$1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) CreateArea(ctx context.Context, userID, name string) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO areas (user_id, name) VALUES ($1, $2) RETURNING id`, userID, name).Scan(&id)
	if pgErrCode(err) == codeUniqueViolation {
		return "", ErrDuplicate
	}
	return id, err
}

func (r *Repo) UpdateArea(ctx context.Context, id, userID, name string) error {
	cmd, err := r.Pool.Exec(ctx,
		`UPDATE areas SET name=$1 WHERE id=$2 AND user_id=$3`, name, id, userID)
	if pgErrCode(err) == codeUniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteArea refuses to remove an area that still has categories; the FK
// is ON DELETE RESTRICT so the database enforces the same rule.
func (r *Repo) DeleteArea(ctx context.Context, id, userID string) error {
	cmd, err := r.Pool.Exec(ctx,
		`DELETE FROM areas WHERE id=$1 AND user_id=$2`, id, userID)
	if pgErrCode(err) == codeFKViolation {
		return ErrHasDependents
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, user_id, area_id, name, created_at FROM categories WHERE user_id=$1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.AreaID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory checks that the target area belongs to the same user in
// the insert itself, so the category→area ownership chain cannot be broken
// by a crafted request.
func (r *Repo) CreateCategory(ctx context.Context, userID, areaID, name string) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, area_id, name)
		 SELECT $1, a.id, $3 FROM areas a WHERE a.id=$2 AND a.user_id=$1
		 RETURNING id`, userID, areaID, name).Scan(&id)
	if pgErrCode(err) == codeUniqueViolation {
		return "", ErrDuplicate
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// area missing or owned by someone else
		return "", ErrNotFound
	}
	return id, err
}

func (r *Repo) UpdateCategory(ctx context.Context, id, userID, areaID, name string) error {
	cmd, err := r.Pool.Exec(ctx,
		`UPDATE categories c SET area_id=a.id, name=$1
		 FROM areas a
		 WHERE c.id=$2 AND c.user_id=$3 AND a.id=$4 AND a.user_id=$3`,
		name, id, userID, areaID)
	if pgErrCode(err) == codeUniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory is unconditional; dependent events survive with a NULL
// category_id (ON DELETE SET NULL) and show up as "N/A" in aggregates.
func (r *Repo) DeleteCategory(ctx context.Context, id, userID string) error {
	cmd, err := r.Pool.Exec(ctx,
		`DELETE FROM categories WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryIDsForAreas resolves selected areas to their category ids for
// the query planner.
func (r *Repo) CategoryIDsForAreas(ctx context.Context, userID string, areaIDs []string) ([]string, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id FROM categories WHERE user_id=$1 AND area_id = ANY($2)`, userID, areaIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
