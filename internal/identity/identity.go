// Package identity mints the role-scoped business identifiers carried by
// accounts and profiles. A student identifier is the admission year plus the
// semester code plus a 4-digit sequence, scoped to that exact (year, code)
// pair. Faculty and admin identifiers are a letter prefix plus a 5-digit
// sequence with a single global scope each; that asymmetry mirrors the
// registrar's numbering scheme and is intentional.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Scope is the key space within which a sequence is unique.
type Scope struct {
	// Key identifies the counter row, e.g. "student:2024:01".
	Key string
	// Prefix is prepended to the padded sequence, e.g. "202401" or "F-".
	Prefix string
	// Width is the zero-padded width of the numeric suffix.
	Width int
}

func StudentScope(year, code string) Scope {
	return Scope{
		Key:    "student:" + year + ":" + code,
		Prefix: year + code,
		Width:  4,
	}
}

func FacultyScope() Scope {
	return Scope{Key: "faculty", Prefix: "F-", Width: 5}
}

func AdminScope() Scope {
	return Scope{Key: "admin", Prefix: "A-", Width: 5}
}

// Encode renders sequence number n as a full identifier in this scope.
func (sc Scope) Encode(n int64) string {
	return fmt.Sprintf("%s%0*d", sc.Prefix, sc.Width, n)
}

// Parse extracts the numeric suffix from an identifier previously produced
// by Encode in this scope.
func (sc Scope) Parse(id string) (int64, error) {
	if !strings.HasPrefix(id, sc.Prefix) {
		return 0, fmt.Errorf("identifier %q outside scope %s", id, sc.Key)
	}
	suffix := id[len(sc.Prefix):]
	if len(suffix) != sc.Width {
		return 0, fmt.Errorf("identifier %q: suffix width %d, want %d", id, len(suffix), sc.Width)
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q: non-numeric suffix: %w", id, err)
	}
	return n, nil
}

// Allocator derives the next unused identifier per scope from a counter
// table. The counter update and the consuming inserts run on the same
// transaction, so two racing provisioning calls serialize on the counter
// row; the UNIQUE constraint on accounts.public_id remains the last-resort
// conflict detector.
type Allocator struct{}

func NewAllocator() *Allocator { return &Allocator{} }

// EnsureTable creates the counter table if not exists (idempotent).
func (a *Allocator) EnsureTable(ctx context.Context, db *sqlx.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS id_sequences (
  scope TEXT PRIMARY KEY,
  value BIGINT NOT NULL DEFAULT 0
);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// Next increments and returns the encoded identifier for sc. A missing
// counter row is seeded from the highest identifier already assigned in the
// scope, so sequences continue monotonically for data that predates the
// counter table. Fixed-width zero padding makes the lexicographic max the
// numeric max.
func (a *Allocator) Next(ctx context.Context, ext sqlx.ExtContext, sc Scope) (string, error) {
	last, err := a.lastAssigned(ctx, ext, sc)
	if err != nil {
		return "", fmt.Errorf("seed scope %s: %w", sc.Key, err)
	}
	if _, err := ext.ExecContext(ctx,
		`INSERT INTO id_sequences (scope, value) VALUES ($1, $2) ON CONFLICT (scope) DO NOTHING`,
		sc.Key, last,
	); err != nil {
		return "", fmt.Errorf("ensure scope %s: %w", sc.Key, err)
	}
	var n int64
	row := ext.QueryRowxContext(ctx,
		`UPDATE id_sequences SET value = value + 1 WHERE scope = $1 RETURNING value`,
		sc.Key,
	)
	if err := row.Scan(&n); err != nil {
		return "", fmt.Errorf("advance scope %s: %w", sc.Key, err)
	}
	return sc.Encode(n), nil
}

func (a *Allocator) lastAssigned(ctx context.Context, ext sqlx.ExtContext, sc Scope) (int64, error) {
	var id string
	row := ext.QueryRowxContext(ctx,
		`SELECT public_id FROM accounts WHERE public_id LIKE $1 ORDER BY public_id DESC LIMIT 1`,
		sc.Prefix+"%",
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	n, err := sc.Parse(id)
	if err != nil {
		// Rows matching the prefix but not the format belong to another
		// scope family (e.g. a longer year prefix); start fresh.
		return 0, nil
	}
	return n, nil
}
