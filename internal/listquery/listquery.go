// Package listquery is the generic list-query engine shared by every listing
// endpoint: it shapes request-supplied parameters into a searched, filtered,
// sorted, paginated and projected SQL read plus a matching total count,
// without any per-entity code.
package listquery

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	defaultSort  = "-createdAt"
)

// reserved parameters drive query shaping and are never treated as filters.
var reserved = map[string]struct{}{
	"searchTerm": {},
	"sort":       {},
	"limit":      {},
	"page":       {},
	"fields":     {},
}

// Meta is the pagination summary returned alongside list results.
type Meta struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
}

// Envelope is the listing response shape.
type Envelope struct {
	Meta   Meta             `json:"meta"`
	Result []map[string]any `json:"result"`
}

// Builder accumulates query clauses over a table. It issues no I/O until one
// of the terminal calls (Select, Count) runs; both derive from the same
// accumulated predicate.
type Builder struct {
	table  string
	fields map[string]string // exposed field name -> column
	params map[string]string

	where   []string
	args    []any
	orderBy []string
	project []string
	page    int
	limit   int
	paged   bool
}

// New builds a Builder for table. fields maps exposed field names to their
// columns; only mapped fields ever reach the generated SQL, so arbitrary
// request keys cannot inject identifiers.
func New(table string, fields map[string]string, params map[string]string) *Builder {
	if params == nil {
		params = map[string]string{}
	}
	return &Builder{table: table, fields: fields, params: params}
}

// Where adds a fixed predicate (e.g. excluding soft-deleted rows) ahead of
// any request-driven clauses.
func (b *Builder) Where(cond string, args ...any) *Builder {
	cond, b.args = bindPositional(cond, b.args, args)
	b.where = append(b.where, cond)
	return b
}

// Search ORs case-insensitive partial matches over the named fields when a
// non-empty searchTerm parameter is present.
func (b *Builder) Search(fields ...string) *Builder {
	term := strings.TrimSpace(b.params["searchTerm"])
	if term == "" {
		return b
	}
	var ors []string
	for _, f := range fields {
		col, ok := b.fields[f]
		if !ok {
			continue
		}
		var cond string
		cond, b.args = bindPositional(col+" ILIKE ?", b.args, []any{"%" + term + "%"})
		ors = append(ors, cond)
	}
	if len(ors) > 0 {
		b.where = append(b.where, "("+strings.Join(ors, " OR ")+")")
	}
	return b
}

// Filter applies every non-reserved parameter that names a known field as an
// exact-match equality constraint, AND-combined.
func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		if _, ok := reserved[k]; ok {
			continue
		}
		if _, ok := b.fields[k]; !ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var cond string
		cond, b.args = bindPositional(b.fields[k]+" = ?", b.args, []any{b.params[k]})
		b.where = append(b.where, cond)
	}
	return b
}

// Sort orders by the comma-separated sort parameter; a leading '-' selects
// descending. Unknown fields are dropped; with nothing left, creation order
// (newest first) applies.
func (b *Builder) Sort() *Builder {
	spec := b.params["sort"]
	if strings.TrimSpace(spec) == "" {
		spec = defaultSort
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		col, ok := b.fields[name]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		b.orderBy = append(b.orderBy, col)
	}
	if len(b.orderBy) == 0 {
		b.orderBy = append(b.orderBy, b.fields["createdAt"]+" DESC")
	}
	return b
}

// Paginate coerces page and limit parameters to positive integers, falling
// back to the defaults on absent, non-numeric or non-positive input.
func (b *Builder) Paginate() *Builder {
	b.page = positiveIntParam(b.params["page"], DefaultPage)
	b.limit = positiveIntParam(b.params["limit"], DefaultLimit)
	b.paged = true
	return b
}

// Fields narrows the projection to the comma-separated fields parameter.
// The named always-fields stay included regardless, so identifiers survive
// any projection.
func (b *Builder) Fields(always ...string) *Builder {
	spec := strings.TrimSpace(b.params["fields"])
	if spec == "" {
		return b
	}
	seen := map[string]struct{}{}
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		if _, ok := b.fields[name]; !ok {
			return
		}
		seen[name] = struct{}{}
		b.project = append(b.project, name)
	}
	for _, name := range always {
		add(name)
	}
	for _, name := range strings.Split(spec, ",") {
		add(strings.TrimSpace(name))
	}
	return b
}

// SelectSQL renders the materializing query with its bind args.
func (b *Builder) SelectSQL() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.projection(), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	args := b.whereInto(&sb)
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.paged {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
		args = append(args, b.limit, (b.page-1)*b.limit)
	}
	return sb.String(), args
}

// CountSQL renders the count query over the same search+filter predicate,
// ignoring pagination, sort and projection.
func (b *Builder) CountSQL() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(b.table)
	args := b.whereInto(&sb)
	return sb.String(), args
}

// Select runs the materializing query and returns rows keyed by exposed
// field names.
func (b *Builder) Select(ctx context.Context, q sqlx.QueryerContext) ([]map[string]any, error) {
	query, args := b.SelectSQL()
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.table, err)
	}
	defer rows.Close()
	out := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("list %s: %w", b.table, err)
		}
		out = append(out, normalizeRow(row))
	}
	return out, rows.Err()
}

// Count runs the count query.
func (b *Builder) Count(ctx context.Context, q sqlx.QueryerContext) (int, error) {
	query, args := b.CountSQL()
	var total int
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", b.table, err)
	}
	return total, nil
}

// Meta derives the pagination envelope from a total produced by Count.
func (b *Builder) Meta(total int) Meta {
	page, limit := b.page, b.limit
	if !b.paged {
		page, limit = DefaultPage, DefaultLimit
	}
	totalPage := (total + limit - 1) / limit
	return Meta{Page: page, Limit: limit, Total: total, TotalPage: totalPage}
}

// projection lists "column AS field" pairs, aliased so result maps carry the
// exposed names rather than column names.
func (b *Builder) projection() []string {
	names := b.project
	if len(names) == 0 {
		names = make([]string, 0, len(b.fields))
		for name := range b.fields {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	cols := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, fmt.Sprintf(`%s AS "%s"`, b.fields[name], name))
	}
	return cols
}

func (b *Builder) whereInto(sb *strings.Builder) []any {
	if len(b.where) == 0 {
		return append([]any(nil), b.args...)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(b.where, " AND "))
	return append([]any(nil), b.args...)
}

// bindPositional rewrites ? markers to the next $n placeholders and appends
// the values to args.
func bindPositional(cond string, args []any, values []any) (string, []any) {
	for _, v := range values {
		args = append(args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
	}
	return cond, args
}

func positiveIntParam(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// normalizeRow converts driver byte slices to strings and leaves typed
// values (time.Time, bool, numbers) alone so the envelope marshals cleanly.
func normalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		switch t := v.(type) {
		case []byte:
			row[k] = string(t)
		case time.Time:
			row[k] = t.UTC()
		}
	}
	return row
}
