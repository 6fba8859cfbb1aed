package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestDocumentLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	_, err := database.GetDoc(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Put("a/1", []byte("one"))
		tx.Put("a/2", []byte("two"))
		return nil
	})
	require.NoError(t, err)

	doc, err := database.GetDoc(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), doc.Data)
	assert.Equal(t, int64(1), doc.Revision)

	// Updating bumps the revision.
	err = database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Put("a/1", []byte("uno"))
		return nil
	})
	require.NoError(t, err)
	doc, err = database.GetDoc(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Revision)

	docs, err := database.ListDocs(ctx, "a/")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a/1", docs[0].Path)

	err = database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Delete("a/1")
		return nil
	})
	require.NoError(t, err)
	_, err = database.GetDoc(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionReadsOwnWrites(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	err := database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Put("x", []byte("v"))
		data, err := tx.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)

		tx.Delete("x")
		_, err = tx.Get(ctx, "x")
		assert.ErrorIs(t, err, ErrNotFound)
		tx.Put("x", []byte("v2"))
		return nil
	})
	require.NoError(t, err)
}

func TestConflictDetectedAndRetried(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Put("doc", []byte("v1"))
		return nil
	}))

	attempts := 0
	err := database.RunTransaction(ctx, func(tx *Tx) error {
		attempts++
		if _, err := tx.Get(ctx, "doc"); err != nil {
			return err
		}
		if attempts == 1 {
			// Sneak a write in before this transaction commits.
			require.NoError(t, database.RunTransaction(ctx, func(inner *Tx) error {
				inner.Put("doc", []byte("v2"))
				return nil
			}))
		}
		tx.Put("doc", []byte("v3"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	doc, err := database.GetDoc(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), doc.Data)
}

func TestConflictOnObservedAbsence(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	attempts := 0
	err := database.RunTransaction(ctx, func(tx *Tx) error {
		attempts++
		_, err := tx.Get(ctx, "new")
		if attempts == 1 {
			require.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, database.RunTransaction(ctx, func(inner *Tx) error {
				inner.Put("new", []byte("raced"))
				return nil
			}))
		}
		if err != nil && err != ErrNotFound {
			return err
		}
		tx.Put("new", []byte("mine"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "creation of an observed-missing path conflicts")
}

func TestRetryBudgetExhausted(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.RunTransaction(ctx, func(tx *Tx) error {
		tx.Put("hot", []byte("0"))
		return nil
	}))

	err := database.RunTransaction(ctx, func(tx *Tx) error {
		if _, err := tx.Get(ctx, "hot"); err != nil {
			return err
		}
		// Every attempt loses the race.
		require.NoError(t, database.RunTransaction(ctx, func(inner *Tx) error {
			data, err := inner.Get(ctx, "hot")
			if err != nil {
				return err
			}
			inner.Put("hot", append(data, 'x'))
			return nil
		}))
		tx.Put("hot", []byte("loser"))
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLedgerRunningBalance(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)

	require.NoError(t, database.RunTransaction(ctx, func(tx *Tx) error {
		tx.AppendLedger("alice", "1234", -500, LedgerBuyIn, now)
		return nil
	}))
	require.NoError(t, database.RunTransaction(ctx, func(tx *Tx) error {
		tx.AppendLedger("alice", "1234", 650, LedgerCashOut, now.Add(time.Hour))
		return nil
	}))

	balance, err := database.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	entries, err := database.LedgerEntries(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, LedgerCashOut, entries[0].Kind)
	assert.Equal(t, int64(150), entries[0].RunningBalance)
	assert.Equal(t, LedgerBuyIn, entries[1].Kind)
	assert.Equal(t, int64(-500), entries[1].RunningBalance)

	// Unknown players have a zero balance and an empty ledger.
	balance, err = database.AccountBalance(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestBalanceReadConflictsWithAppend(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	attempts := 0
	err := database.RunTransaction(ctx, func(tx *Tx) error {
		attempts++
		balance, err := tx.Balance(ctx, "bob")
		if err != nil {
			return err
		}
		if attempts == 1 {
			require.NoError(t, database.RunTransaction(ctx, func(inner *Tx) error {
				inner.AppendLedger("bob", "9999", -100, LedgerBuyIn, now)
				return nil
			}))
		}
		tx.AppendLedger("bob", "9999", balance-400, LedgerBuyIn, now)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "stale balance read must not commit")
}
