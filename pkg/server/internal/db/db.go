// Package db is the storage layer: a document store with optimistic
// revision checks, plus per-player accounts backed by an append-only
// ledger. Everything lives in a single sqlite database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound means the requested document or account does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a transaction read a document that changed before
	// commit. RunTransaction retries on it; callers see it only once the
	// retry budget is spent.
	ErrConflict = errors.New("concurrent modification")
)

// DB wraps the sqlite connection.
type DB struct {
	*sql.DB
}

// NewDB opens (and if needed creates) the database at dbPath. The DSN
// forces immediate write transactions so conflicting writers queue on
// the busy timeout instead of failing mid-transaction.
func NewDB(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", dbPath)
	sdb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := createTables(sdb); err != nil {
		sdb.Close()
		return nil, err
	}
	return &DB{sdb}, nil
}

func createTables(sdb *sql.DB) error {
	_, err := sdb.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return err
	}

	_, err = sdb.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			player_id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			revision INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return err
	}

	_, err = sdb.Exec(`
		CREATE TABLE IF NOT EXISTS ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			table_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			kind TEXT NOT NULL,
			running_balance INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (player_id) REFERENCES accounts(player_id)
		)
	`)
	return err
}

// Doc is one stored document.
type Doc struct {
	Path     string
	Data     []byte
	Revision int64
}

// LedgerEntry is one row of a player's chip ledger. Amount is signed:
// buy-ins debit (negative), cash-outs credit (positive).
type LedgerEntry struct {
	ID             int64
	PlayerID       string
	TableID        string
	Amount         int64
	Kind           string
	RunningBalance int64
	CreatedAt      time.Time
}

// Ledger entry kinds.
const (
	LedgerBuyIn   = "buy_in"
	LedgerCashOut = "cash_out"
)

// GetDoc reads a single document outside any transaction.
func (db *DB) GetDoc(ctx context.Context, path string) (*Doc, error) {
	d := &Doc{Path: path}
	err := db.QueryRowContext(ctx,
		"SELECT data, revision FROM documents WHERE path = ?", path).
		Scan(&d.Data, &d.Revision)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return d, nil
}

// ListDocs returns every document whose path starts with prefix, in
// path order.
func (db *DB) ListDocs(ctx context.Context, prefix string) ([]Doc, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT path, data, revision FROM documents WHERE path LIKE ? || '%' ORDER BY path", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var d Doc
		if err := rows.Scan(&d.Path, &d.Data, &d.Revision); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// AccountBalance reads a player's current balance. Unknown players have
// a zero balance.
func (db *DB) AccountBalance(ctx context.Context, playerID string) (int64, error) {
	var balance int64
	err := db.QueryRowContext(ctx,
		"SELECT balance FROM accounts WHERE player_id = ?", playerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for %s: %w", playerID, err)
	}
	return balance, nil
}

// LedgerEntries returns a player's most recent ledger rows, newest
// first.
func (db *DB) LedgerEntries(ctx context.Context, playerID string, limit int) ([]LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, player_id, table_id, amount, kind, running_balance, created_at
		FROM ledger WHERE player_id = ? ORDER BY id DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for %s: %w", playerID, err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.TableID, &e.Amount,
			&e.Kind, &e.RunningBalance, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// maxAttempts bounds the optimistic retry loop in RunTransaction.
const maxAttempts = 5

// Tx is one optimistic transaction over the document store. Reads go to
// the live database and record the revision seen; writes and ledger
// appends are buffered. At commit every recorded revision is verified
// inside a single sqlite write transaction, and any mismatch aborts the
// attempt with ErrConflict.
type Tx struct {
	db *DB

	docReads     map[string]int64
	accountReads map[string]int64
	writes       map[string][]byte // nil value marks a delete
	ledger       []LedgerEntry
}

// RunTransaction runs fn with a fresh Tx and commits it, retrying the
// whole function on revision conflicts. After maxAttempts conflicts the
// final ErrConflict surfaces to the caller.
func (db *DB) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx := &Tx{
			db:           db,
			docReads:     make(map[string]int64),
			accountReads: make(map[string]int64),
			writes:       make(map[string][]byte),
		}
		if err := fn(tx); err != nil {
			return err
		}
		err := tx.commit(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Get reads a document, preferring data already written in this
// transaction. The first live read of each path pins its revision.
func (tx *Tx) Get(ctx context.Context, path string) ([]byte, error) {
	if data, ok := tx.writes[path]; ok {
		if data == nil {
			return nil, ErrNotFound
		}
		return data, nil
	}
	d, err := tx.db.GetDoc(ctx, path)
	if err == ErrNotFound {
		if _, seen := tx.docReads[path]; !seen {
			tx.docReads[path] = 0
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, seen := tx.docReads[path]; !seen {
		tx.docReads[path] = d.Revision
	}
	return d.Data, nil
}

// Put buffers a document write.
func (tx *Tx) Put(path string, data []byte) {
	tx.writes[path] = data
}

// Delete buffers a document delete.
func (tx *Tx) Delete(path string) {
	tx.writes[path] = nil
}

// List reads every document under prefix, pinning each revision. The
// absence of other documents under the prefix is not pinned, so new
// siblings do not conflict.
func (tx *Tx) List(ctx context.Context, prefix string) ([]Doc, error) {
	docs, err := tx.db.ListDocs(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if data, ok := tx.writes[d.Path]; ok {
			if data == nil {
				continue
			}
			d.Data = data
		} else if _, seen := tx.docReads[d.Path]; !seen {
			tx.docReads[d.Path] = d.Revision
		}
		out = append(out, d)
	}
	return out, nil
}

// Balance reads a player's account balance and pins the account
// revision, so a concurrent ledger append conflicts this transaction.
func (tx *Tx) Balance(ctx context.Context, playerID string) (int64, error) {
	var balance, revision int64
	err := tx.db.QueryRowContext(ctx,
		"SELECT balance, revision FROM accounts WHERE player_id = ?", playerID).
		Scan(&balance, &revision)
	if err == sql.ErrNoRows {
		balance, revision = 0, 0
	} else if err != nil {
		return 0, fmt.Errorf("failed to read balance for %s: %w", playerID, err)
	}
	if _, seen := tx.accountReads[playerID]; !seen {
		tx.accountReads[playerID] = revision
	}
	return balance, nil
}

// AppendLedger buffers a ledger append for commit. The running balance
// is computed at commit time from the account row.
func (tx *Tx) AppendLedger(playerID, tableID string, amount int64, kind string, at time.Time) {
	tx.ledger = append(tx.ledger, LedgerEntry{
		PlayerID:  playerID,
		TableID:   tableID,
		Amount:    amount,
		Kind:      kind,
		CreatedAt: at,
	})
}

func (tx *Tx) commit(ctx context.Context) error {
	stx, err := tx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer stx.Rollback()

	for path, rev := range tx.docReads {
		var cur int64
		err := stx.QueryRowContext(ctx,
			"SELECT revision FROM documents WHERE path = ?", path).Scan(&cur)
		if err == sql.ErrNoRows {
			cur = 0
		} else if err != nil {
			return fmt.Errorf("failed to verify %s: %w", path, err)
		}
		if cur != rev {
			return fmt.Errorf("document %s: %w", path, ErrConflict)
		}
	}
	for playerID, rev := range tx.accountReads {
		var cur int64
		err := stx.QueryRowContext(ctx,
			"SELECT revision FROM accounts WHERE player_id = ?", playerID).Scan(&cur)
		if err == sql.ErrNoRows {
			cur = 0
		} else if err != nil {
			return fmt.Errorf("failed to verify account %s: %w", playerID, err)
		}
		if cur != rev {
			return fmt.Errorf("account %s: %w", playerID, ErrConflict)
		}
	}

	for path, data := range tx.writes {
		if data == nil {
			if _, err := stx.ExecContext(ctx,
				"DELETE FROM documents WHERE path = ?", path); err != nil {
				return fmt.Errorf("failed to delete %s: %w", path, err)
			}
			continue
		}
		_, err := stx.ExecContext(ctx, `
			INSERT INTO documents (path, data, revision) VALUES (?, ?, 1)
			ON CONFLICT(path) DO UPDATE SET data = excluded.data, revision = revision + 1`,
			path, data)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	for _, e := range tx.ledger {
		var balance int64
		err := stx.QueryRowContext(ctx,
			"SELECT balance FROM accounts WHERE player_id = ?", e.PlayerID).Scan(&balance)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read account %s: %w", e.PlayerID, err)
		}
		running := balance + e.Amount
		_, err = stx.ExecContext(ctx, `
			INSERT INTO accounts (player_id, balance, revision) VALUES (?, ?, 1)
			ON CONFLICT(player_id) DO UPDATE SET balance = ?, revision = revision + 1`,
			e.PlayerID, running, running)
		if err != nil {
			return fmt.Errorf("failed to update account %s: %w", e.PlayerID, err)
		}
		_, err = stx.ExecContext(ctx, `
			INSERT INTO ledger (player_id, table_id, amount, kind, running_balance, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.PlayerID, e.TableID, e.Amount, e.Kind, running, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append ledger for %s: %w", e.PlayerID, err)
		}
	}

	return stx.Commit()
}
