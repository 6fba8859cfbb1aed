package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cardroom/holdem/pkg/poker"
	"github.com/cardroom/holdem/pkg/server/internal/db"
)

// StartGame deals the next hand. Only the host may start one, and only
// when no hand is in progress.
func (s *Server) StartGame(ctx context.Context, tableID, playerID string) (*poker.Table, error) {
	if playerID == "" {
		return nil, status.Error(codes.Unauthenticated, "player id is required")
	}

	var tbl *poker.Table
	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		var err error
		tbl, err = s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if tbl.HostID != playerID {
			return status.Errorf(codes.PermissionDenied,
				"only the host may start a hand on table %s", tableID)
		}
		if tbl.Status == poker.TableEnded {
			return status.Errorf(codes.FailedPrecondition, "table %s has ended", tableID)
		}
		if tbl.Hand != nil {
			return status.Errorf(codes.FailedPrecondition,
				"table %s has an unfinished hand", tableID)
		}
		if tbl.PlayableSeats() < 2 {
			return status.Errorf(codes.FailedPrecondition,
				"table %s needs at least 2 funded seats", tableID)
		}

		if err := dropHoleCards(ctx, tx, tableID); err != nil {
			return err
		}
		hole, err := tbl.StartHand(s.clock.Now().UTC())
		if err != nil {
			return status.Error(codes.FailedPrecondition, err.Error())
		}
		if err := putHoleCards(tx, tableID, hole); err != nil {
			return err
		}
		return putTable(tx, tbl)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Infof("Table %s: hand %d dealt (dealer seat %d)",
		tableID, tbl.Hand.Number, tbl.Hand.DealerPos)
	return tbl.Sanitized(), nil
}

// PlayerAction applies one action for the player whose turn it is. If
// the action ends the hand, resolution (pot construction, showdown, and
// payouts) happens in the same transaction.
func (s *Server) PlayerAction(ctx context.Context, tableID, playerID string, action poker.Action) (*poker.Table, error) {
	if playerID == "" {
		return nil, status.Error(codes.Unauthenticated, "player id is required")
	}

	var tbl *poker.Table
	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		var err error
		tbl, err = s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		hole, err := loadHoleCards(ctx, tx, tbl)
		if err != nil {
			return err
		}
		if err := tbl.ApplyAction(playerID, action, hole, s.clock.Now().UTC()); err != nil {
			return mapActionErr(err)
		}
		return putTable(tx, tbl)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Debugf("Table %s: %s %s", tableID, playerID, action.Kind)
	if tbl.Hand.Complete() {
		s.log.Infof("Table %s: hand %d complete", tableID, tbl.Hand.Number)
	}
	return tbl.Sanitized(), nil
}

// EndHand clears a completed hand and readies the table for the next
// deal. Any seated player may call it; calling with no hand pending, or
// with a hand still running, fails the precondition.
func (s *Server) EndHand(ctx context.Context, tableID, playerID string) (*poker.Table, error) {
	if playerID == "" {
		return nil, status.Error(codes.Unauthenticated, "player id is required")
	}

	var tbl *poker.Table
	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		var err error
		tbl, err = s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if tbl.SeatOf(playerID) == nil {
			return status.Errorf(codes.PermissionDenied,
				"player %s is not seated at table %s", playerID, tableID)
		}
		if tbl.Hand == nil {
			return status.Errorf(codes.FailedPrecondition,
				"table %s has no hand to end", tableID)
		}
		if !tbl.Hand.Complete() {
			return status.Errorf(codes.FailedPrecondition,
				"hand %d on table %s is still in progress", tbl.Hand.Number, tableID)
		}
		if err := dropHoleCards(ctx, tx, tableID); err != nil {
			return err
		}
		if err := tbl.EndHand(); err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		return putTable(tx, tbl)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return tbl.Sanitized(), nil
}

// Balance returns a player's ledger balance.
func (s *Server) Balance(ctx context.Context, playerID string) (int64, error) {
	if playerID == "" {
		return 0, status.Error(codes.Unauthenticated, "player id is required")
	}
	balance, err := s.db.AccountBalance(ctx, playerID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	return balance, nil
}

// Ledger returns a player's most recent ledger entries, newest first.
func (s *Server) Ledger(ctx context.Context, playerID string, limit int) ([]db.LedgerEntry, error) {
	if playerID == "" {
		return nil, status.Error(codes.Unauthenticated, "player id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	entries, err := s.db.LedgerEntries(ctx, playerID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return entries, nil
}
