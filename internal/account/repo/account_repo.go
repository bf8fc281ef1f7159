package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/registrar/internal/account/entity"
)

// Repo provides data access for the accounts table.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent). The
// UNIQUE constraint on public_id is the last-resort detector for identifier
// allocation races.
func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  ref TEXT PRIMARY KEY,
  public_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'in-progress',
  need_password_change BOOLEAN NOT NULL DEFAULT true,
  password_changed_at TIMESTAMPTZ,
  is_deleted BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const accountColumns = `ref, public_id, email, password_hash, role, status,
	need_password_change, password_changed_at, is_deleted, created_at, updated_at`

// Create inserts a new account on the caller's transaction and reports the
// number of affected rows.
func (r *Repo) Create(ctx context.Context, ext sqlx.ExtContext, a *entity.Account) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO accounts (ref, public_id, email, password_hash, role, status, need_password_change)
		 VALUES (:ref, :public_id, :email, :password_hash, :role, :status, :need_password_change)`, a)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) GetByRef(ctx context.Context, ref string) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a,
		`SELECT `+accountColumns+` FROM accounts WHERE ref = $1`, ref); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) GetByPublicID(ctx context.Context, publicID string) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a,
		`SELECT `+accountColumns+` FROM accounts WHERE public_id = $1 AND is_deleted = false`, publicID); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateStatus patches the lifecycle status and returns the updated row.
func (r *Repo) UpdateStatus(ctx context.Context, ref string, status entity.Status) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a,
		`UPDATE accounts SET status = $2, updated_at = NOW()
		 WHERE ref = $1 RETURNING `+accountColumns, ref, status); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetDeleted flips the soft-delete flag on the caller's transaction and
// reports the number of affected rows.
func (r *Repo) SetDeleted(ctx context.Context, ext sqlx.ExtContext, ref string, deleted bool) (int64, error) {
	res, err := ext.ExecContext(ctx,
		`UPDATE accounts SET is_deleted = $2, updated_at = NOW() WHERE ref = $1`, ref, deleted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
