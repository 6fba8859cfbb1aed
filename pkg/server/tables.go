package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cardroom/holdem/pkg/poker"
	"github.com/cardroom/holdem/pkg/server/internal/db"
)

// normalizeSettings fills omitted settings fields with the defaults.
func normalizeSettings(in poker.Settings) poker.Settings {
	def := poker.DefaultSettings()
	if in.MaxPlayers == 0 {
		in.MaxPlayers = def.MaxPlayers
	}
	if in.SmallBlind == 0 {
		in.SmallBlind = def.SmallBlind
	}
	if in.BigBlind == 0 {
		in.BigBlind = def.BigBlind
	}
	if in.MinBuyIn == 0 {
		in.MinBuyIn = def.MinBuyIn
	}
	if in.MaxStack == 0 {
		in.MaxStack = def.MaxStack
	}
	if in.MaxDebtPerPlayer == 0 {
		in.MaxDebtPerPlayer = def.MaxDebtPerPlayer
	}
	if in.ActionTimer == 0 {
		in.ActionTimer = def.ActionTimer
	}
	if in.BlindIncreaseInterval == 0 {
		in.BlindIncreaseInterval = def.BlindIncreaseInterval
	}
	return in
}

// CreateTable creates a table with the host seated and their buy-in
// debited from the ledger.
func (s *Server) CreateTable(ctx context.Context, hostID string, settings poker.Settings, buyIn int64) (*poker.Table, error) {
	if hostID == "" {
		return nil, status.Error(codes.Unauthenticated, "host id is required")
	}
	settings = normalizeSettings(settings)
	if err := settings.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if buyIn < settings.MinBuyIn || buyIn > settings.MaxStack {
		return nil, status.Errorf(codes.InvalidArgument,
			"buy-in %d outside [%d, %d]", buyIn, settings.MinBuyIn, settings.MaxStack)
	}

	var tbl *poker.Table
	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		if err := checkDebtCeiling(ctx, tx, hostID, buyIn, settings.MaxDebtPerPlayer); err != nil {
			return err
		}
		id, err := allocateTableID(ctx, tx)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		if err := touchPlayer(ctx, tx, hostID, now); err != nil {
			return err
		}
		tbl = poker.NewTable(id, hostID, settings, buyIn, now)
		tbl.SetLogger(s.gameLog)
		tx.AppendLedger(hostID, id, -buyIn, db.LedgerBuyIn, now)
		return putTable(tx, tbl)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Infof("Player %s created table %s (buy-in %d)", hostID, tbl.ID, buyIn)
	return tbl, nil
}

// JoinTable seats a player at an existing table, debiting the buy-in.
func (s *Server) JoinTable(ctx context.Context, tableID, playerID string, buyIn int64) (*poker.Table, error) {
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
		if tbl.Status == poker.TableEnded {
			return status.Errorf(codes.FailedPrecondition, "table %s has ended", tableID)
		}
		if tbl.SeatOf(playerID) != nil {
			return status.Errorf(codes.AlreadyExists,
				"player %s is already seated at table %s", playerID, tableID)
		}
		if len(tbl.Seats) >= tbl.Settings.MaxPlayers {
			return status.Errorf(codes.FailedPrecondition, "table %s is full", tableID)
		}
		if buyIn < tbl.Settings.MinBuyIn || buyIn > tbl.Settings.MaxStack {
			return status.Errorf(codes.InvalidArgument,
				"buy-in %d outside [%d, %d]", buyIn, tbl.Settings.MinBuyIn, tbl.Settings.MaxStack)
		}
		if err := checkDebtCeiling(ctx, tx, playerID, buyIn, tbl.Settings.MaxDebtPerPlayer); err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		if err := touchPlayer(ctx, tx, playerID, now); err != nil {
			return err
		}
		if _, err := tbl.AddSeat(playerID, buyIn, now); err != nil {
			return status.Error(codes.FailedPrecondition, err.Error())
		}
		tx.AppendLedger(playerID, tableID, -buyIn, db.LedgerBuyIn, now)
		return putTable(tx, tbl)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.log.Infof("Player %s joined table %s (buy-in %d)", playerID, tableID, buyIn)
	return tbl.Sanitized(), nil
}

// LeaveTable removes a player from the table and credits their stack
// back to the ledger. Leaving mid-hand folds the player; chips already
// committed to the hand stay in the pot as dead money.
func (s *Server) LeaveTable(ctx context.Context, tableID, playerID string) error {
	if playerID == "" {
		return status.Error(codes.Unauthenticated, "player id is required")
	}

	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		tbl, err := s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		seat := tbl.SeatOf(playerID)
		if seat == nil {
			return status.Errorf(codes.NotFound,
				"player %s is not seated at table %s", playerID, tableID)
		}

		now := s.clock.Now().UTC()
		if tbl.Hand != nil && !tbl.Hand.Complete() {
			hole, err := loadHoleCards(ctx, tx, tbl)
			if err != nil {
				return err
			}
			if err := tbl.ForceFold(playerID, hole, now); err != nil {
				return err
			}
			if tbl.Hand != nil && !tbl.Hand.Complete() && seat.TotalContrib > 0 {
				if tbl.Hand.DeadMoney == nil {
					tbl.Hand.DeadMoney = make(map[string]int64)
				}
				tbl.Hand.DeadMoney[playerID] += seat.TotalContrib
				seat.TotalContrib = 0
			}
		}
		tx.Delete(holePath(tableID, playerID))

		cashOut := seat.Chips
		if cashOut > 0 {
			tx.AppendLedger(playerID, tableID, cashOut, db.LedgerCashOut, now)
		}
		if err := tbl.RemoveSeat(playerID); err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		s.log.Infof("Player %s left table %s (cash-out %d)", playerID, tableID, cashOut)
		return putTable(tx, tbl)
	})
	return mapStoreErr(err)
}

// TableView is a table as one player may see it: the shared document
// plus only that player's hole cards.
type TableView struct {
	Table     *poker.Table `json:"table"`
	HoleCards []poker.Card `json:"holeCards,omitempty"`
}

// GetTable returns the table with the viewer's private cards attached.
// Other players' hole cards are never included; completed hands reveal
// showdown hands through the table's last result.
func (s *Server) GetTable(ctx context.Context, tableID, viewerID string) (*TableView, error) {
	view := &TableView{}
	err := s.db.RunTransaction(ctx, func(tx *db.Tx) error {
		tbl, err := s.getTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		view.Table = tbl.Sanitized()
		view.HoleCards = nil
		if viewerID == "" || tbl.SeatOf(viewerID) == nil {
			return nil
		}
		data, err := tx.Get(ctx, holePath(tableID, viewerID))
		if err == db.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &view.HoleCards)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return view, nil
}

// ListTables returns every table that has not ended.
func (s *Server) ListTables(ctx context.Context) ([]*poker.Table, error) {
	docs, err := s.db.ListDocs(ctx, "tables/")
	if err != nil {
		return nil, mapStoreErr(err)
	}
	tables := make([]*poker.Table, 0, len(docs))
	for _, d := range docs {
		var tbl poker.Table
		if err := json.Unmarshal(d.Data, &tbl); err != nil {
			s.log.Warnf("Skipping corrupt table document %s: %v", d.Path, err)
			continue
		}
		if tbl.Status == poker.TableEnded {
			continue
		}
		tables = append(tables, tbl.Sanitized())
	}
	return tables, nil
}
