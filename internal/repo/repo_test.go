package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sladosa/diary-multiuser/internal/models"
	"github.com/sladosa/diary-multiuser/internal/query"
)

func setupTestRepo(t *testing.T) (*Repo, func()) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_, err = pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	if err != nil {
		pool.Close()
		t.Fatalf("create schema: %v", err)
	}
	if err := createTestTables(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("create tables: %v", err)
	}
	repo := New(pool)
	return repo, func() {
		_, _ = pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		pool.Close()
	}
}

func createTestTables(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE users (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), email text NOT NULL UNIQUE, password_hash text NOT NULL, display_name text NOT NULL DEFAULT '', email_confirmed boolean NOT NULL DEFAULT false, created_at timestamptz NOT NULL DEFAULT now(), updated_at timestamptz NOT NULL DEFAULT now())`,
		`CREATE TABLE sessions (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE, token text NOT NULL UNIQUE, expires_at timestamptz NOT NULL, created_at timestamptz NOT NULL DEFAULT now())`,
		`CREATE TABLE areas (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE, name text NOT NULL, created_at timestamptz NOT NULL DEFAULT now(), UNIQUE (user_id, name))`,
		`CREATE TABLE categories (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE, area_id uuid NOT NULL REFERENCES areas(id) ON DELETE RESTRICT, name text NOT NULL, created_at timestamptz NOT NULL DEFAULT now(), UNIQUE (user_id, area_id, name))`,
		`CREATE TABLE events (id uuid PRIMARY KEY DEFAULT gen_random_uuid(), user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE, category_id uuid REFERENCES categories(id) ON DELETE SET NULL, occurred_at timestamptz NOT NULL, comment text, duration_minutes integer, data jsonb, created_at timestamptz NOT NULL DEFAULT now(), updated_at timestamptz NOT NULL DEFAULT now())`,
	}
	for _, query := range queries {
		if _, err := pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// seedTaxonomy creates a user with one area and one category and returns
// their ids.
func seedTaxonomy(t *testing.T, repo *Repo, email string) (userID, areaID, categoryID string) {
	t.Helper()
	ctx := context.Background()
	var err error
	userID, err = repo.CreateUser(ctx, email, "x", "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	areaID, err = repo.CreateArea(ctx, userID, "Sport")
	if err != nil {
		t.Fatalf("area: %v", err)
	}
	categoryID, err = repo.CreateCategory(ctx, userID, areaID, "Run")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	return userID, areaID, categoryID
}

func draftAt(categoryID string, ts time.Time, comment string) models.EventDraft {
	d := models.EventDraft{CategoryID: categoryID, OccurredAt: ts}
	if comment != "" {
		d.Comment = &comment
	}
	return d
}

func TestEventPaginationMatchesCount(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, _, categoryID := seedTaxonomy(t, repo, "a@b.cz")

	base := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		if _, err := repo.CreateEvent(ctx, userID, draftAt(categoryID, base.Add(time.Duration(i)*time.Hour), "")); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}

	seen := make(map[string]struct{})
	var total int
	for page := 1; page <= 3; page++ {
		plan := query.Build(userID, query.Filter{Page: page, PageSize: 10})
		events, err := repo.ListEvents(ctx, plan)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		want := 10
		if page == 3 {
			want = 5
		}
		if len(events) != want {
			t.Fatalf("page %d: got %d events, want %d", page, len(events), want)
		}
		for _, e := range events {
			if _, dup := seen[e.ID]; dup {
				t.Fatalf("event %s appeared on more than one page", e.ID)
			}
			seen[e.ID] = struct{}{}
		}
		if total, err = repo.CountEvents(ctx, plan); err != nil {
			t.Fatalf("count: %v", err)
		}
		if total != 25 {
			t.Fatalf("count = %d, want 25", total)
		}
	}
	if len(seen) != 25 {
		t.Fatalf("pages concatenated to %d events, want 25", len(seen))
	}
}

func TestListEventsIsolatedPerUser(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userA, _, catA := seedTaxonomy(t, repo, "a@b.cz")
	userB, _, catB := seedTaxonomy(t, repo, "c@d.cz")

	ts := time.Now().UTC()
	if _, err := repo.CreateEvent(ctx, userA, draftAt(catA, ts, "mine")); err != nil {
		t.Fatalf("event a: %v", err)
	}
	if _, err := repo.CreateEvent(ctx, userB, draftAt(catB, ts, "theirs")); err != nil {
		t.Fatalf("event b: %v", err)
	}

	events, err := repo.ListAllEvents(ctx, query.Build(userA, query.Filter{}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || *events[0].Comment != "mine" {
		t.Fatalf("expected only userA's event, got %+v", events)
	}
}

func TestCreateEventForeignCategoryRejected(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userA, _, _ := seedTaxonomy(t, repo, "a@b.cz")
	_, _, catB := seedTaxonomy(t, repo, "c@d.cz")

	if _, err := repo.CreateEvent(ctx, userA, draftAt(catB, time.Now(), "")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign category, got %v", err)
	}
}

func TestSearchFilterMatchesInStorage(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, _, categoryID := seedTaxonomy(t, repo, "a@b.cz")

	ts := time.Now().UTC()
	comments := []string{"morning GYM session", "long walk", "50% done"}
	for i, c := range comments {
		if _, err := repo.CreateEvent(ctx, userID, draftAt(categoryID, ts.Add(time.Duration(i)*time.Minute), c)); err != nil {
			t.Fatalf("event: %v", err)
		}
	}

	// case-insensitive substring
	events, err := repo.ListAllEvents(ctx, query.Build(userID, query.Filter{Search: "gym"}))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("search gym: got %d events, want 1", len(events))
	}

	// % is a literal character, not a wildcard
	events, err = repo.ListAllEvents(ctx, query.Build(userID, query.Filter{Search: "50%"}))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(events) != 1 || *events[0].Comment != "50% done" {
		t.Fatalf("search 50%%: got %+v", events)
	}
}

func TestBulkInsertAllOrNothing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, _, categoryID := seedTaxonomy(t, repo, "a@b.cz")
	_, _, foreignCat := seedTaxonomy(t, repo, "c@d.cz")

	ts := time.Now().UTC()
	good := []models.EventDraft{
		draftAt(categoryID, ts, "one"),
		draftAt(categoryID, ts.Add(time.Minute), "two"),
		draftAt(categoryID, ts.Add(2*time.Minute), "three"),
	}
	inserted, err := repo.BulkInsertEvents(ctx, userID, good)
	if err != nil || inserted != len(good) {
		t.Fatalf("bulk insert: inserted=%d err=%v", inserted, err)
	}

	bad := append([]models.EventDraft{}, good...)
	bad = append(bad, draftAt(foreignCat, ts, "smuggled"))
	inserted, err = repo.BulkInsertEvents(ctx, userID, bad)
	if !errors.Is(err, ErrNotFound) || inserted != 0 {
		t.Fatalf("expected rejection, got inserted=%d err=%v", inserted, err)
	}

	total, err := repo.CountEvents(ctx, query.Build(userID, query.Filter{}))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != len(good) {
		t.Fatalf("failed batch must not leave partial rows: total=%d", total)
	}
}

func TestDeleteAreaWithCategoriesRejected(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, areaID, categoryID := seedTaxonomy(t, repo, "a@b.cz")

	if err := repo.DeleteArea(ctx, areaID, userID); !errors.Is(err, ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, categoryID, userID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if err := repo.DeleteArea(ctx, areaID, userID); err != nil {
		t.Fatalf("delete empty area: %v", err)
	}
}

func TestDeleteCategoryOrphansEvents(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, _, categoryID := seedTaxonomy(t, repo, "a@b.cz")

	if _, err := repo.CreateEvent(ctx, userID, draftAt(categoryID, time.Now().UTC(), "survives")); err != nil {
		t.Fatalf("event: %v", err)
	}
	if err := repo.DeleteCategory(ctx, categoryID, userID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	events, err := repo.ListAllEvents(ctx, query.Build(userID, query.Filter{}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("orphaned event must survive, got %d events", len(events))
	}
	e := events[0]
	if e.CategoryID != nil || e.CategoryName != nil || e.AreaName != nil {
		t.Fatalf("expected nil taxonomy on orphan, got %+v", e)
	}
}

func TestCreateAreaDuplicateName(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, _, _ := seedTaxonomy(t, repo, "a@b.cz")

	if _, err := repo.CreateArea(ctx, userID, "Sport"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// the same name is fine for another user
	other, err := repo.CreateUser(ctx, "c@d.cz", "x", "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, err := repo.CreateArea(ctx, other, "Sport"); err != nil {
		t.Fatalf("same name for another user: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()
	userID, err := repo.CreateUser(ctx, "a@b.cz", "x", "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}

	if err := repo.CreateSession(ctx, userID, "tok-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := repo.DeleteSession(ctx, userID, "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteSession(ctx, userID, "tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
