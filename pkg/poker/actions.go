package poker

import (
	"errors"
	"fmt"
	"time"
)

// ActionKind is one of the five player actions.
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "allin"
)

// Action is a player's request to act on their turn. Amount is only
// meaningful for raises, where it is the total the round bet is raised
// to, not the increment.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Amount int64      `json:"amount,omitempty"`
}

// ActionRecord is one entry of a hand's action history.
type ActionRecord struct {
	PlayerID string     `json:"playerId"`
	Kind     ActionKind `json:"kind"`
	// Amount is the round total after the action for calls and raises.
	Amount int64     `json:"amount,omitempty"`
	Phase  GamePhase `json:"phase"`
	Forced bool      `json:"forced,omitempty"`
	At     time.Time `json:"at"`
}

var (
	// ErrNoHand means no hand is in progress on the table.
	ErrNoHand = errors.New("no hand in progress")
	// ErrNotPlayersTurn means the acting player does not hold the action.
	ErrNotPlayersTurn = errors.New("not this player's turn")
	// ErrInvalidAction means the action is not legal in the current state.
	ErrInvalidAction = errors.New("invalid action")
)

// ApplyAction validates and applies a player action, then advances the
// hand: moving the turn, closing streets, running out all-in boards, and
// resolving the hand when it ends. hole must contain the hole cards of
// every player dealt into the hand, in case the action completes it.
func (t *Table) ApplyAction(playerID string, a Action, hole HoleCards, now time.Time) error {
	h := t.Hand
	if h == nil || h.Complete() {
		return ErrNoHand
	}
	s := t.SeatOf(playerID)
	if s == nil {
		return fmt.Errorf("%w: player %s is not seated", ErrNotPlayersTurn, playerID)
	}
	if h.CurrentTurnPos < 0 || s.Position != h.CurrentTurnPos || !s.CanAct() {
		return fmt.Errorf("%w: player %s", ErrNotPlayersTurn, playerID)
	}

	switch a.Kind {
	case ActionFold:
		return t.applyFold(s, hole, now)
	case ActionCheck:
		return t.applyCheck(s, hole, now)
	case ActionCall:
		return t.applyCall(s, hole, now)
	case ActionRaise:
		return t.applyRaise(s, a.Amount, hole, now)
	case ActionAllIn:
		return t.applyAllIn(s, hole, now)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Kind)
	}
}

// record appends one entry to the hand's action history.
func (t *Table) record(s *Seat, kind ActionKind, amount int64, forced bool, now time.Time) {
	t.Hand.Actions = append(t.Hand.Actions, ActionRecord{
		PlayerID: s.PlayerID,
		Kind:     kind,
		Amount:   amount,
		Phase:    t.Hand.Phase,
		Forced:   forced,
		At:       now,
	})
}

func (t *Table) applyFold(s *Seat, hole HoleCards, now time.Time) error {
	return t.foldSeat(s, false, hole, now)
}

// foldSeat folds an in-turn seat. forced marks folds the table imposed,
// such as an action timeout, rather than the player choosing to fold.
func (t *Table) foldSeat(s *Seat, forced bool, hole HoleCards, now time.Time) error {
	t.record(s, ActionFold, 0, forced, now)
	s.Status = SeatFolded
	s.HasActed = true
	return t.advanceTurn(s.Position, hole, now)
}

func (t *Table) applyCheck(s *Seat, hole HoleCards, now time.Time) error {
	if s.CurrentBet < t.Hand.CurrentBet {
		return fmt.Errorf("%w: cannot check facing a bet of %d", ErrInvalidAction, t.Hand.CurrentBet)
	}
	t.record(s, ActionCheck, 0, false, now)
	s.HasActed = true
	return t.advanceTurn(s.Position, hole, now)
}

func (t *Table) applyCall(s *Seat, hole HoleCards, now time.Time) error {
	owed := t.Hand.CurrentBet - s.CurrentBet
	if owed <= 0 {
		return fmt.Errorf("%w: nothing to call", ErrInvalidAction)
	}
	t.commit(s, owed)
	t.record(s, ActionCall, s.CurrentBet, false, now)
	s.HasActed = true
	return t.advanceTurn(s.Position, hole, now)
}

// applyRaise raises the round bet to total. A raise must add at least
// the current minimum raise unless it puts the seat all-in; a short
// all-in raise does not reopen action for seats that already acted.
func (t *Table) applyRaise(s *Seat, total int64, hole HoleCards, now time.Time) error {
	h := t.Hand
	if s.HasActed {
		// Only a full raise reopens the betting. A seat that already
		// acted and faces a short all-in may call or fold, not raise.
		return fmt.Errorf("%w: betting is not reopened", ErrInvalidAction)
	}
	if total <= h.CurrentBet {
		return fmt.Errorf("%w: raise to %d does not exceed current bet %d",
			ErrInvalidAction, total, h.CurrentBet)
	}
	add := total - s.CurrentBet
	if add > s.Chips {
		return fmt.Errorf("%w: raise to %d needs %d chips, seat has %d",
			ErrInvalidAction, total, add, s.Chips)
	}
	increment := total - h.CurrentBet
	allIn := add == s.Chips
	if increment < h.MinRaise && !allIn {
		return fmt.Errorf("%w: raise increment %d below minimum %d",
			ErrInvalidAction, increment, h.MinRaise)
	}

	t.commit(s, add)
	kind := ActionRaise
	if allIn {
		kind = ActionAllIn
	}
	t.record(s, kind, total, false, now)
	s.HasActed = true

	if increment >= h.MinRaise {
		// A full raise reopens the action for everyone else.
		h.MinRaise = increment
		for _, other := range t.Seats {
			if other != s && other.CanAct() {
				other.HasActed = false
			}
		}
	}
	h.CurrentBet = total
	return t.advanceTurn(s.Position, hole, now)
}

// applyAllIn commits the seat's whole stack. Below the current bet it is
// a call for less; above it, a raise subject to the short-raise rule.
func (t *Table) applyAllIn(s *Seat, hole HoleCards, now time.Time) error {
	if s.Chips <= 0 {
		return fmt.Errorf("%w: no chips to commit", ErrInvalidAction)
	}
	h := t.Hand
	total := s.CurrentBet + s.Chips
	if total <= h.CurrentBet {
		t.commit(s, s.Chips)
		t.record(s, ActionAllIn, s.CurrentBet, false, now)
		s.HasActed = true
		return t.advanceTurn(s.Position, hole, now)
	}
	return t.applyRaise(s, total, hole, now)
}

// ForceFold folds a seat regardless of whose turn it is, used when a
// player leaves or disconnects mid-hand. Folding out of turn can end
// the hand or close the betting round, so the same advancement runs as
// for a voluntary fold. No-op for seats not contesting the hand.
func (t *Table) ForceFold(playerID string, hole HoleCards, now time.Time) error {
	h := t.Hand
	if h == nil || h.Complete() {
		return nil
	}
	s := t.SeatOf(playerID)
	if s == nil || !s.InHand() || s.Folded() {
		return nil
	}
	wasTurn := h.CurrentTurnPos == s.Position
	t.record(s, ActionFold, 0, true, now)
	s.Status = SeatFolded
	s.HasActed = true
	if wasTurn {
		return t.advanceTurn(s.Position, hole, now)
	}
	if len(t.unfoldedSeats()) == 1 {
		h.CurrentTurnPos = -1
		return t.resolveHand(hole, now)
	}
	if h.CurrentTurnPos >= 0 && t.roundComplete() {
		return t.finishRound(hole, now)
	}
	return nil
}

// commit moves chips from the stack into the current round's bet,
// flipping the seat all-in when the stack empties.
func (t *Table) commit(s *Seat, amount int64) {
	if amount > s.Chips {
		amount = s.Chips
	}
	s.Chips -= amount
	s.CurrentBet += amount
	s.TotalContrib += amount
	if s.Chips == 0 {
		s.Status = SeatAllIn
	}
}
