package admin

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

func newDeleteService(tx *fakeTx, profiles *fakeProfileDeleter, accounts *fakeAccountDeleter) *Service {
	return &Service{
		tx:       tx,
		profiles: profiles,
		accounts: accounts,
		logger:   zap.NewNop().Sugar(),
	}
}

func TestDelete_PairFlippedTogether(t *testing.T) {
	tx := &fakeTx{}
	profiles := &fakeProfileDeleter{accountRef: "acct-3", publicID: "A-00003"}
	accounts := &fakeAccountDeleter{rows: 1}
	svc := newDeleteService(tx, profiles, accounts)

	require.NoError(t, svc.Delete(context.Background(), "adm-3"))
	assert.Equal(t, []string{"adm-3"}, profiles.deleted)
	assert.Equal(t, []string{"acct-3"}, accounts.deleted)
	assert.False(t, tx.failed)
}

func TestDelete_AccountFailureRollsBackProfileFlag(t *testing.T) {
	tx := &fakeTx{}
	profiles := &fakeProfileDeleter{accountRef: "acct-3", publicID: "A-00003"}
	accounts := &fakeAccountDeleter{err: errors.New("connection reset")}
	svc := newDeleteService(tx, profiles, accounts)

	err := svc.Delete(context.Background(), "adm-3")
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.True(t, tx.failed, "unit of work must report failure so the profile flag rolls back")
}

func TestDelete_UnknownProfile(t *testing.T) {
	tx := &fakeTx{}
	profiles := &fakeProfileDeleter{err: sql.ErrNoRows}
	accounts := &fakeAccountDeleter{rows: 1}
	svc := newDeleteService(tx, profiles, accounts)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, accounts.deleted)
}
