package student

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx invokes the unit of work directly; a returned error stands in for
// a rollback, so the profile flag flipped inside a failed unit of work is
// never visible afterwards.
type fakeTx struct {
	calls  int
	failed bool
}

func (f *fakeTx) Transact(_ context.Context, fn func(ext sqlx.ExtContext) error) error {
	f.calls++
	if err := fn(nil); err != nil {
		f.failed = true
		return err
	}
	return nil
}

type fakeProfileDeleter struct {
	accountRef string
	publicID   string
	err        error
	deleted    []string
}

func (f *fakeProfileDeleter) SetDeleted(_ context.Context, _ sqlx.ExtContext, ref string, _ bool) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.deleted = append(f.deleted, ref)
	return f.accountRef, f.publicID, nil
}

type fakeAccountDeleter struct {
	rows    int64
	err     error
	deleted []string
}

func (f *fakeAccountDeleter) SetDeleted(_ context.Context, _ sqlx.ExtContext, ref string, _ bool) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, ref)
	return f.rows, nil
}

type deleteFixture struct {
	tx       *fakeTx
	profiles *fakeProfileDeleter
	accounts *fakeAccountDeleter
	svc      *Service
}

func newDeleteFixture(t *testing.T) *deleteFixture {
	t.Helper()
	f := &deleteFixture{
		tx:       &fakeTx{},
		profiles: &fakeProfileDeleter{accountRef: "acct-1", publicID: "2024010001"},
		accounts: &fakeAccountDeleter{rows: 1},
	}
	f.svc = &Service{
		tx:       f.tx,
		profiles: f.profiles,
		accounts: f.accounts,
		logger:   zap.NewNop().Sugar(),
	}
	return f
}

func TestDelete_PairFlippedTogether(t *testing.T) {
	f := newDeleteFixture(t)

	require.NoError(t, f.svc.Delete(context.Background(), "stu-1"))
	assert.Equal(t, []string{"stu-1"}, f.profiles.deleted)
	assert.Equal(t, []string{"acct-1"}, f.accounts.deleted, "account resolved from the profile row")
	assert.Equal(t, 1, f.tx.calls)
	assert.False(t, f.tx.failed)
}

func TestDelete_AccountFailureRollsBackProfileFlag(t *testing.T) {
	f := newDeleteFixture(t)
	f.accounts.err = errors.New("connection reset")

	err := f.svc.Delete(context.Background(), "stu-1")
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.True(t, f.tx.failed, "unit of work must report failure so the profile flag rolls back")
	assert.Equal(t, []string{"stu-1"}, f.profiles.deleted, "profile was flipped inside the failed transaction")
}

func TestDelete_MissingAccountRowFailsTransaction(t *testing.T) {
	f := newDeleteFixture(t)
	f.accounts.rows = 0

	err := f.svc.Delete(context.Background(), "stu-1")
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.True(t, f.tx.failed)
}

func TestDelete_UnknownProfile(t *testing.T) {
	f := newDeleteFixture(t)
	f.profiles.err = sql.ErrNoRows

	err := f.svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.accounts.deleted, "account untouched when the profile row does not exist")
}
