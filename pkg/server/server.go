// Package server implements the authoritative table service: table
// lifecycle, seating, hand orchestration, and the chip ledger. All game
// state lives in the document store; every operation is one optimistic
// transaction over it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/coder/quartz"
	"github.com/decred/slog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cardroom/holdem/pkg/poker"
	"github.com/cardroom/holdem/pkg/server/internal/db"
)

// Table ids are four digits.
const (
	minTableID = 1000
	maxTableID = 9999
	// idAttempts bounds the random probing for a free table id before
	// giving up with a resource-exhausted error.
	idAttempts = 50
)

// Config collects the server dependencies.
type Config struct {
	// DBPath is the sqlite database file.
	DBPath string
	// Log receives server logs; nil disables logging.
	Log slog.Logger
	// GameLog receives per-table hand-flow logs; nil disables them.
	GameLog slog.Logger
	// Clock drives action timeouts; nil means the real clock.
	Clock quartz.Clock
	// SweepInterval is how often expired action timers are collected.
	// Zero means one second.
	SweepInterval time.Duration
}

// Server is the table service.
type Server struct {
	log           slog.Logger
	gameLog       slog.Logger
	db            *db.DB
	clock         quartz.Clock
	sweepInterval time.Duration
}

// NewServer opens the database and builds a server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("server: DBPath is required")
	}
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: failed to open database: %w", err)
	}

	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	gameLog := cfg.GameLog
	if gameLog == nil {
		gameLog = slog.Disabled
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	interval := cfg.SweepInterval
	if interval == 0 {
		interval = time.Second
	}

	return &Server{
		log:           log,
		gameLog:       gameLog,
		db:            database,
		clock:         clock,
		sweepInterval: interval,
	}, nil
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

func tablePath(tableID string) string {
	return "tables/" + tableID
}

func holePath(tableID, playerID string) string {
	return "holecards/" + tableID + "/" + playerID
}

func holePrefix(tableID string) string {
	return "holecards/" + tableID + "/"
}

func playerPath(playerID string) string {
	return "players/" + playerID
}

// validTableID reports whether id has the four-digit table id form.
func validTableID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// getTable loads and decodes a table document inside tx, re-attaching
// the hand-flow logger the document cannot carry.
func (s *Server) getTable(ctx context.Context, tx *db.Tx, tableID string) (*poker.Table, error) {
	if !validTableID(tableID) {
		return nil, status.Errorf(codes.InvalidArgument, "malformed table id %q", tableID)
	}
	data, err := tx.Get(ctx, tablePath(tableID))
	if err == db.ErrNotFound {
		return nil, status.Errorf(codes.NotFound, "table %s not found", tableID)
	}
	if err != nil {
		return nil, err
	}
	var tbl poker.Table
	if err := json.Unmarshal(data, &tbl); err != nil {
		return nil, fmt.Errorf("corrupt table document %s: %w", tableID, err)
	}
	tbl.SetLogger(s.gameLog)
	return &tbl, nil
}

// putTable encodes and buffers the table document.
func putTable(tx *db.Tx, tbl *poker.Table) error {
	data, err := json.Marshal(tbl)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", tbl.ID, err)
	}
	tx.Put(tablePath(tbl.ID), data)
	return nil
}

// loadHoleCards reads the private hole-card documents for every seat
// dealt into the current hand. Folded seats whose cards were already
// discarded are skipped.
func loadHoleCards(ctx context.Context, tx *db.Tx, tbl *poker.Table) (poker.HoleCards, error) {
	hole := make(poker.HoleCards)
	if tbl.Hand == nil {
		return hole, nil
	}
	for _, seat := range tbl.Seats {
		if !seat.InHand() {
			continue
		}
		data, err := tx.Get(ctx, holePath(tbl.ID, seat.PlayerID))
		if err == db.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var cards []poker.Card
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("corrupt hole cards for %s: %w", seat.PlayerID, err)
		}
		hole[seat.PlayerID] = cards
	}
	return hole, nil
}

// putHoleCards persists each player's hole cards as a private document.
func putHoleCards(tx *db.Tx, tableID string, hole poker.HoleCards) error {
	for playerID, cards := range hole {
		data, err := json.Marshal(cards)
		if err != nil {
			return fmt.Errorf("failed to encode hole cards for %s: %w", playerID, err)
		}
		tx.Put(holePath(tableID, playerID), data)
	}
	return nil
}

// dropHoleCards deletes every hole-card document for the table.
func dropHoleCards(ctx context.Context, tx *db.Tx, tableID string) error {
	docs, err := tx.List(ctx, holePrefix(tableID))
	if err != nil {
		return err
	}
	for _, d := range docs {
		tx.Delete(d.Path)
	}
	return nil
}

// allocateTableID probes random four-digit ids until one is free. The
// miss on each probed path is pinned, so a concurrent creation of the
// same id conflicts rather than collides.
func allocateTableID(ctx context.Context, tx *db.Tx) (string, error) {
	rng := rand.New(poker.NewCryptoSource())
	for i := 0; i < idAttempts; i++ {
		id := fmt.Sprintf("%d", minTableID+rng.Intn(maxTableID-minTableID+1))
		_, err := tx.Get(ctx, tablePath(id))
		if err == db.ErrNotFound {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", status.Error(codes.ResourceExhausted, "no free table id")
}

// PlayerProfile is the per-player profile document, created the first
// time a player buys in anywhere and refreshed on every buy-in after
// that.
type PlayerProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// touchPlayer upserts the player profile inside tx.
func touchPlayer(ctx context.Context, tx *db.Tx, playerID string, now time.Time) error {
	profile := PlayerProfile{ID: playerID, Username: playerID, CreatedAt: now}
	data, err := tx.Get(ctx, playerPath(playerID))
	switch err {
	case nil:
		if err := json.Unmarshal(data, &profile); err != nil {
			return fmt.Errorf("corrupt player document %s: %w", playerID, err)
		}
	case db.ErrNotFound:
	default:
		return err
	}
	profile.LastSeen = now
	out, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", playerID, err)
	}
	tx.Put(playerPath(playerID), out)
	return nil
}

// checkDebtCeiling verifies that debiting buyIn keeps the player within
// the table's debt allowance.
func checkDebtCeiling(ctx context.Context, tx *db.Tx, playerID string, buyIn, maxDebt int64) error {
	balance, err := tx.Balance(ctx, playerID)
	if err != nil {
		return err
	}
	if balance-buyIn < -maxDebt {
		return status.Errorf(codes.PermissionDenied,
			"buy-in of %d would put player %s beyond the debt ceiling of %d",
			buyIn, playerID, maxDebt)
	}
	return nil
}
