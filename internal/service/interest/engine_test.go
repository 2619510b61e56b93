package interest

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type fakeAccountStore struct {
	ids      []uuid.UUID
	accounts map[uuid.UUID]domain.SavingsAccount
	failOn   map[uuid.UUID]error
	listErr  error
	updated  []uuid.UUID
}

func newFakeStore(accts ...*domain.SavingsAccount) *fakeAccountStore {
	f := &fakeAccountStore{
		accounts: make(map[uuid.UUID]domain.SavingsAccount),
		failOn:   make(map[uuid.UUID]error),
	}
	for _, a := range accts {
		f.ids = append(f.ids, a.ID)
		f.accounts[a.ID] = *a
	}
	return f
}

func (f *fakeAccountStore) ListActiveIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.listErr
}

func (f *fakeAccountStore) GetForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*domain.SavingsAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAccountStore) Update(_ context.Context, _ *sql.Tx, s *domain.SavingsAccount) error {
	if err := f.failOn[s.ID]; err != nil {
		return err
	}
	s.Version++
	f.accounts[s.ID] = *s
	f.updated = append(f.updated, s.ID)
	return nil
}

func newTestEngine(t *testing.T, store accountStore) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := NewEngine(store, db, slog.Default())
	e.now = func() time.Time { return now }
	return e, mock
}

func TestEngine_Run_FailureIsIsolated(t *testing.T) {
	a1 := openAccount(1000, now.Add(-2*day))
	a2 := openAccount(2000, now.Add(-2*day))
	a3 := openAccount(3000, now.Add(-2*day))
	store := newFakeStore(a1, a2, a3)
	store.failOn[a2.ID] = errors.New("connection reset")

	engine, mock := newTestEngine(t, store)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, RunResult{Scanned: 3, Accrued: 2, Failed: 1}, result)
	assert.Equal(t, []uuid.UUID{a1.ID, a3.ID}, store.updated)
	assert.Equal(t, compound(1000, 0.04, 2), store.accounts[a1.ID].SavedAmount)
	assert.Equal(t, 2000.0, store.accounts[a2.ID].SavedAmount)
	assert.Equal(t, compound(3000, 0.04, 2), store.accounts[a3.ID].SavedAmount)
}

func TestEngine_Run_SkipsNotDueAndInactive(t *testing.T) {
	fresh := openAccount(1000, now.Add(-time.Hour))
	done := openAccount(600, now.Add(-5*day))
	done.Status = domain.SavingsStatusCompleted
	store := newFakeStore(fresh, done)

	engine, mock := newTestEngine(t, store)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, RunResult{Scanned: 2}, result)
	assert.Empty(t, store.updated)
	assert.Equal(t, 600.0, store.accounts[done.ID].SavedAmount)
}

func TestEngine_Run_CountsCompletions(t *testing.T) {
	target := 500.0
	acct := openAccount(499.99, now.Add(-day))
	acct.TargetAmount = &target
	store := newFakeStore(acct)

	engine, mock := newTestEngine(t, store)
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, domain.SavingsStatusCompleted, store.accounts[acct.ID].Status)
	assert.Equal(t, int64(2), store.accounts[acct.ID].Version)
}

func TestEngine_Run_SecondRunIsNoop(t *testing.T) {
	acct := openAccount(1000, now.Add(-3*day))
	store := newFakeStore(acct)

	engine, mock := newTestEngine(t, store)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	afterFirst := store.accounts[acct.ID]

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 0, result.Accrued)
	assert.Equal(t, afterFirst, store.accounts[acct.ID])
}

func TestEngine_Run_SkipsAccountDeletedAfterListing(t *testing.T) {
	kept := openAccount(1000, now.Add(-2*day))
	gone := openAccount(500, now.Add(-2*day))
	store := newFakeStore(gone, kept)
	delete(store.accounts, gone.ID)

	engine, mock := newTestEngine(t, store)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, RunResult{Scanned: 2, Accrued: 1}, result)
	assert.Equal(t, []uuid.UUID{kept.ID}, store.updated)
}

func TestEngine_Run_ListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db down")

	engine, _ := newTestEngine(t, store)
	_, err := engine.Run(context.Background())
	require.Error(t, err)
}
