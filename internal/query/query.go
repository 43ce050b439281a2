// Package query turns a user-supplied filter specification into a
// deterministic plan against the events table: predicate, ordering and a
// pagination window. The ownership predicate is always present; everything
// else is optional.
package query

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Filter is the normalized form of the dashboard filter controls.
// AreaCategoryIDs holds category ids resolved from selected areas by the
// taxonomy (events carry no area column); it is merged with CategoryIDs.
type Filter struct {
	CategoryIDs     []string
	AreaCategoryIDs []string
	AreasSelected   bool // true when the user picked areas, even if they resolved to nothing
	Start           *time.Time
	End             *time.Time
	Search          string
	Page            int
	PageSize        int
}

// Plan is a ready-to-execute query shape. Where and Args are shared by the
// list and count queries so both always agree on the match set.
type Plan struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// Build produces the plan for userID. The ownership predicate is mandatory
// and comes first; category membership, the date range and the comment
// search are appended only when supplied.
func Build(userID string, f Filter) Plan {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds, "user_id = "+arg(userID))

	if ids, selected := f.categoryUnion(); selected {
		conds = append(conds, "category_id = ANY("+arg(ids)+")")
	}
	if f.Start != nil {
		conds = append(conds, "occurred_at >= "+arg(dayStart(*f.Start)))
	}
	if f.End != nil {
		// inclusive end date: the boundary is the start of the next day
		conds = append(conds, "occurred_at < "+arg(dayStart(*f.End).AddDate(0, 0, 1)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "comment ILIKE "+arg("%"+escapeLike(s)+"%"))
	}

	page, size := f.window()
	return Plan{
		Where:   strings.Join(conds, " AND "),
		Args:    args,
		OrderBy: "occurred_at DESC, id DESC",
		Limit:   size,
		Offset:  (page - 1) * size,
	}
}

// categoryUnion merges explicitly selected categories with the ones
// resolved from selected areas, deduplicated. The second return is false
// when neither selector was used at all, in which case no category
// predicate applies. An empty union with selectors present must match
// nothing, which ANY over an empty array does.
func (f Filter) categoryUnion() ([]string, bool) {
	if len(f.CategoryIDs) == 0 && len(f.AreaCategoryIDs) == 0 && !f.AreasSelected {
		return nil, false
	}
	seen := make(map[string]struct{}, len(f.CategoryIDs)+len(f.AreaCategoryIDs))
	union := make([]string, 0, len(f.CategoryIDs)+len(f.AreaCategoryIDs))
	for _, id := range f.CategoryIDs {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	for _, id := range f.AreaCategoryIDs {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	return union, true
}

func (f Filter) window() (page, size int) {
	page = f.Page
	if page < 1 {
		page = 1
	}
	size = f.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// SelectSQL composes the paginated list query over the given columns.
func (p Plan) SelectSQL(columns string) string {
	return fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		columns, p.Where, p.OrderBy, p.Limit, p.Offset)
}

// SelectAllSQL composes the unwindowed list query: same predicate and
// ordering, no pagination. Used for aggregation and export, which consume
// the full filtered set.
func (p Plan) SelectAllSQL(columns string) string {
	return fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY %s", columns, p.Where, p.OrderBy)
}

// CountSQL composes the total-count query over the same predicate,
// ignoring the pagination window.
func (p Plan) CountSQL() string {
	return "SELECT count(*) FROM events WHERE " + p.Where
}

// Pages converts a total match count into a page count for the plan's
// window size. Always at least 1 so an empty result still renders page 1.
func (p Plan) Pages(total int) int {
	if p.Limit < 1 {
		return 1
	}
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		return 1
	}
	return pages
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// escapeLike neutralizes LIKE metacharacters in user input so the search
// is a literal substring match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
