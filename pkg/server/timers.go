package server

import (
	"context"
	"encoding/json"

	"github.com/cardroom/holdem/pkg/poker"
	"github.com/cardroom/holdem/pkg/server/internal/db"
)

// Run drives the action-timeout sweeper until ctx is cancelled. Seats
// that let their action deadline pass are folded automatically.
func (s *Server) Run(ctx context.Context) error {
	waiter := s.clock.TickerFunc(ctx, s.sweepInterval, func() error {
		s.sweepExpired(ctx)
		return nil
	}, "timeout-sweep")
	return waiter.Wait()
}

// sweepExpired folds every seat whose action deadline has passed. The
// scan runs outside any transaction; each expired table is then
// re-checked and folded inside its own transaction, so a player action
// racing the sweep simply wins or loses the revision check.
func (s *Server) sweepExpired(ctx context.Context) {
	now := s.clock.Now().UTC()
	docs, err := s.db.ListDocs(ctx, "tables/")
	if err != nil {
		s.log.Errorf("Timeout sweep failed to list tables: %v", err)
		return
	}

	for _, d := range docs {
		var tbl poker.Table
		if err := json.Unmarshal(d.Data, &tbl); err != nil {
			continue
		}
		h := tbl.Hand
		if h == nil || h.Complete() || h.CurrentTurnPos < 0 || now.Before(h.ActionDeadline) {
			continue
		}
		if err := s.foldExpired(ctx, tbl.ID); err != nil {
			s.log.Errorf("Timeout sweep failed on table %s: %v", tbl.ID, err)
		}
	}
}

func (s *Server) foldExpired(ctx context.Context, tableID string) error {
	return s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		tbl, err := s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		hole, err := loadHoleCards(ctx, tx, tbl)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		pos := -1
		if tbl.Hand != nil {
			pos = tbl.Hand.CurrentTurnPos
		}
		acted, err := tbl.HandleTimeout(hole, now)
		if err != nil {
			return err
		}
		if !acted {
			return nil
		}
		s.log.Infof("Table %s: seat %d folded on timeout", tableID, pos)
		return putTable(tx, tbl)
	})
}
