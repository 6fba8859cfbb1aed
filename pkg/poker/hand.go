package poker

import (
	"fmt"
	"time"
)

// GamePhase is the street a hand is on.
type GamePhase string

const (
	PhasePreflop  GamePhase = "preflop"
	PhaseFlop     GamePhase = "flop"
	PhaseTurn     GamePhase = "turn"
	PhaseRiver    GamePhase = "river"
	PhaseShowdown GamePhase = "showdown"
	// PhaseComplete means the hand has been resolved and paid out; it
	// stays on the table until the next hand starts.
	PhaseComplete GamePhase = "complete"
)

// HoleCards maps player id to that player's two private cards. Hole
// cards never appear in the table document; the caller loads them from
// private per-player documents and passes them in where resolution
// needs them.
type HoleCards map[string][]Card

// Hand is the state of a single hand in progress. It is embedded in the
// table document and persisted with it.
type Hand struct {
	Number int64     `json:"number"`
	Phase  GamePhase `json:"phase"`

	DealerPos int `json:"dealerPos"`
	SBPos     int `json:"sbPos"`
	BBPos     int `json:"bbPos"`
	// CurrentTurnPos is the position whose action is pending, or -1 when
	// no action is pending (between streets, or after resolution).
	CurrentTurnPos int `json:"currentTurnPos"`

	// Blinds are locked at hand start so a mid-hand blind increase never
	// changes a hand already underway.
	SmallBlind int64 `json:"smallBlind"`
	BigBlind   int64 `json:"bigBlind"`

	// CurrentBet is the highest per-round commitment any seat has made
	// this street. MinRaise is the increment a full raise must add.
	CurrentBet int64 `json:"currentBet"`
	MinRaise   int64 `json:"minRaise"`

	Community []Card `json:"community"`
	DeckCards []Card `json:"deckCards"`
	Pots      []Pot  `json:"pots,omitempty"`

	// DeadMoney holds contributions from players who left mid-hand.
	// Their chips stay in the pots; the players themselves can win
	// nothing.
	DeadMoney map[string]int64 `json:"deadMoney,omitempty"`

	// Actions is the ordered history of actions taken this hand.
	Actions []ActionRecord `json:"actions,omitempty"`

	ActionDeadline time.Time `json:"actionDeadline"`

	Result *HandResult `json:"result,omitempty"`

	StartedAt time.Time `json:"startedAt"`
}

// Complete reports whether the hand has been resolved.
func (h *Hand) Complete() bool { return h != nil && h.Phase == PhaseComplete }

// advanceBlindStamp rolls the next-increase stamp forward past now.
// Blind levels themselves do not change here: the engine only records
// when the next increase is due, and each hand locks the blinds it
// started with.
func (t *Table) advanceBlindStamp(now time.Time) {
	for !now.Before(t.NextBlindIncrease) {
		t.NextBlindIncrease = t.NextBlindIncrease.Add(t.Settings.BlindIncreaseInterval)
	}
}

// dealInSeats decides which seats play the next hand and returns them.
// Established seats (dealt a previous hand, still holding chips) always
// play. A new player sits out until the big blind reaches their seat:
// a sitting seat is dealt in only when it would post the big blind. On
// a fresh table every funded seat is dealt in.
func (t *Table) dealInSeats(dealer *Seat) []*Seat {
	established := make(map[int]bool)
	n := 0
	for _, s := range t.Seats {
		if s.Status == SeatPlaying && s.Chips > 0 {
			established[s.Position] = true
			n++
		}
	}
	if n < 2 {
		// Fresh table, or play shrank below two: everyone funded plays.
		var in []*Seat
		for _, s := range t.Seats {
			if s.Chips > 0 {
				in = append(in, s)
			}
		}
		return in
	}

	// Walk the blinds over established seats plus sitting candidates,
	// dropping any sitting seat that would land on the small blind.
	excluded := make(map[int]bool)
	for {
		member := func(s *Seat) bool {
			if s.Chips <= 0 || excluded[s.Position] {
				return false
			}
			return established[s.Position] || s.Status == SeatSitting
		}
		sb, bb := t.blindSeats(dealer, member)
		if sb != nil && !established[sb.Position] && sb != dealer {
			excluded[sb.Position] = true
			continue
		}
		var in []*Seat
		for _, s := range t.Seats {
			if !member(s) {
				continue
			}
			if established[s.Position] || (bb != nil && s.Position == bb.Position) {
				in = append(in, s)
			}
		}
		if len(in) >= 2 {
			return in
		}
		// The only admissible newcomer was dropped; fall back to
		// established seats alone.
		var est []*Seat
		for _, s := range t.Seats {
			if established[s.Position] {
				est = append(est, s)
			}
		}
		return est
	}
}

// StartHand deals a new hand: rotates the dealer, posts blinds, riffles
// and deals hole cards, and opens preflop action. It returns the hole
// cards dealt so the caller can persist them privately; they are not
// stored in the hand itself.
func (t *Table) StartHand(now time.Time) (HoleCards, error) {
	if t.Hand != nil && !t.Hand.Complete() {
		return nil, fmt.Errorf("table %s already has a hand in progress", t.ID)
	}
	if t.PlayableSeats() < 2 {
		return nil, fmt.Errorf("table %s needs at least 2 funded seats to deal", t.ID)
	}

	t.advanceBlindStamp(now)

	dealer := t.nextDealer()
	if dealer == nil {
		return nil, fmt.Errorf("table %s has no seat able to deal", t.ID)
	}

	players := t.dealInSeats(dealer)
	if len(players) < 2 {
		return nil, fmt.Errorf("table %s needs at least 2 seats dealt in", t.ID)
	}
	inHand := make(map[int]bool, len(players))
	for _, s := range players {
		inHand[s.Position] = true
	}
	if !inHand[dealer.Position] {
		// Dealer must hold cards; re-pick among this hand's players.
		dealer = t.nextSeatWhere(dealer.Position, func(s *Seat) bool { return inHand[s.Position] })
	}

	for _, s := range t.Seats {
		s.CurrentBet = 0
		s.TotalContrib = 0
		s.HasActed = false
		s.IsDealer = false
		s.IsSmallBlind = false
		s.IsBigBlind = false
		if inHand[s.Position] {
			s.Status = SeatPlaying
		} else if s.Chips <= 0 || s.Status == SeatSitting {
			s.Status = SeatSitting
		}
	}

	member := func(s *Seat) bool { return inHand[s.Position] }
	sb, bb := t.blindSeats(dealer, member)
	if sb == nil || bb == nil {
		return nil, fmt.Errorf("table %s could not place blinds", t.ID)
	}
	dealer.IsDealer = true
	sb.IsSmallBlind = true
	bb.IsBigBlind = true

	t.HandCounter++
	h := &Hand{
		Number:         t.HandCounter,
		Phase:          PhasePreflop,
		DealerPos:      dealer.Position,
		SBPos:          sb.Position,
		BBPos:          bb.Position,
		CurrentTurnPos: -1,
		SmallBlind:     t.Settings.SmallBlind,
		BigBlind:       t.Settings.BigBlind,
		MinRaise:       t.Settings.BigBlind,
		StartedAt:      now,
	}
	t.Hand = h
	t.LastDealerPos = dealer.Position
	t.LastResult = nil

	t.commit(sb, h.SmallBlind)
	t.commit(bb, h.BigBlind)
	h.CurrentBet = h.BigBlind

	deck := NewDeck(newDealRNG())
	deck.ShuffleN(RiffleCount)

	// Two cards to each player, one at a time, clockwise from the small
	// blind.
	hole := make(HoleCards, len(players))
	for round := 0; round < 2; round++ {
		pos := h.SBPos
		for i := 0; i < len(players); i++ {
			s := t.SeatAt(pos)
			cards, err := deck.Deal(1)
			if err != nil {
				return nil, err
			}
			hole[s.PlayerID] = append(hole[s.PlayerID], cards[0])
			next := t.nextSeatWhere(pos, member)
			pos = next.Position
		}
	}
	h.DeckCards = deck.Cards()

	first := t.firstToActPreflop(bb)
	if first == nil {
		// Blinds put everyone all-in; run the board out immediately. The
		// caller resolves with the hole cards it is about to persist.
		h.CurrentTurnPos = -1
		if err := t.runOutBoard(); err != nil {
			return nil, err
		}
		if err := t.resolveHand(hole, now); err != nil {
			return nil, err
		}
	} else {
		h.CurrentTurnPos = first.Position
		h.ActionDeadline = now.Add(t.Settings.ActionTimer)
	}

	t.Status = TablePlaying
	t.logger().Debugf("Table %s: hand %d dealt to %d seats, button seat %d, blinds %d/%d",
		t.ID, h.Number, len(players), dealer.Position, h.SmallBlind, h.BigBlind)
	return hole, nil
}

// seatsInHand returns the seats dealt into the current hand, in position
// order.
func (t *Table) seatsInHand() []*Seat {
	var out []*Seat
	for _, s := range t.Seats {
		if s.InHand() {
			out = append(out, s)
		}
	}
	return out
}

// unfoldedSeats returns the in-hand seats that have not folded.
func (t *Table) unfoldedSeats() []*Seat {
	var out []*Seat
	for _, s := range t.Seats {
		if s.Status == SeatPlaying || s.Status == SeatAllIn {
			out = append(out, s)
		}
	}
	return out
}

// roundComplete reports whether the current betting round is finished:
// every seat still able to act has acted and matched the current bet.
// Blind posts do not count as acting, which gives the big blind its
// option on an unraised preflop.
func (t *Table) roundComplete() bool {
	for _, s := range t.Seats {
		if !s.CanAct() {
			continue
		}
		if !s.HasActed || s.CurrentBet < t.Hand.CurrentBet {
			return false
		}
	}
	return true
}

// advanceTurn moves the action to the next seat owing action after
// fromPos, or finishes the betting round if nobody owes one.
func (t *Table) advanceTurn(fromPos int, hole HoleCards, now time.Time) error {
	h := t.Hand

	if len(t.unfoldedSeats()) == 1 {
		// Everyone else folded; the last seat standing wins uncontested.
		h.CurrentTurnPos = -1
		return t.resolveHand(hole, now)
	}

	if !t.roundComplete() {
		next := t.nextSeatWhere(fromPos, func(s *Seat) bool {
			return s.CanAct() && (!s.HasActed || s.CurrentBet < h.CurrentBet)
		})
		if next != nil {
			h.CurrentTurnPos = next.Position
			h.ActionDeadline = now.Add(t.Settings.ActionTimer)
			return nil
		}
	}
	return t.finishRound(hole, now)
}

// finishRound closes the street and either advances to the next one,
// runs the board out when fewer than two seats can still act, or
// resolves the hand after the river.
func (t *Table) finishRound(hole HoleCards, now time.Time) error {
	h := t.Hand
	h.CurrentTurnPos = -1

	canAct := 0
	for _, s := range t.Seats {
		if s.CanAct() {
			canAct++
		}
	}
	if canAct < 2 {
		// All-in confrontation: no more betting, deal the rest of the
		// board and go straight to showdown.
		if err := t.runOutBoard(); err != nil {
			return err
		}
		return t.resolveHand(hole, now)
	}

	if h.Phase == PhaseRiver {
		return t.resolveHand(hole, now)
	}

	if err := t.dealNextStreet(); err != nil {
		return err
	}
	for _, s := range t.Seats {
		s.CurrentBet = 0
		s.HasActed = false
	}
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind

	first := t.firstToActPostflop(h.DealerPos)
	if first == nil {
		return t.finishRound(hole, now)
	}
	h.CurrentTurnPos = first.Position
	h.ActionDeadline = now.Add(t.Settings.ActionTimer)
	return nil
}

// dealNextStreet burns one card and deals the next street's community
// cards from the persisted deck.
func (t *Table) dealNextStreet() error {
	h := t.Hand
	deck := DeckFrom(h.DeckCards)

	var n int
	switch h.Phase {
	case PhasePreflop:
		h.Phase = PhaseFlop
		n = 3
	case PhaseFlop:
		h.Phase = PhaseTurn
		n = 1
	case PhaseTurn:
		h.Phase = PhaseRiver
		n = 1
	default:
		return fmt.Errorf("no street follows phase %s", h.Phase)
	}

	if err := deck.Burn(); err != nil {
		return err
	}
	cards, err := deck.Deal(n)
	if err != nil {
		return err
	}
	h.Community = append(h.Community, cards...)
	h.DeckCards = deck.Cards()
	t.logger().Tracef("Table %s: hand %d %s, board %v", t.ID, h.Number, h.Phase, h.Community)
	return nil
}

// runOutBoard deals every remaining street with burns intact.
func (t *Table) runOutBoard() error {
	for t.Hand.Phase != PhaseRiver {
		if err := t.dealNextStreet(); err != nil {
			return err
		}
	}
	return nil
}

// HandleTimeout folds the seat whose action deadline has passed. It is
// a no-op when no action is pending or the deadline has not arrived.
func (t *Table) HandleTimeout(hole HoleCards, now time.Time) (bool, error) {
	h := t.Hand
	if h == nil || h.Complete() || h.CurrentTurnPos < 0 {
		return false, nil
	}
	if now.Before(h.ActionDeadline) {
		return false, nil
	}
	s := t.SeatAt(h.CurrentTurnPos)
	if s == nil || !s.CanAct() {
		return false, nil
	}
	if err := t.foldSeat(s, true, hole, now); err != nil {
		return false, err
	}
	return true, nil
}

// EndHand clears a completed hand off the table: the result moves to
// LastResult, seats reset for the next deal, busted seats sit out, and
// the table drops back to waiting if fewer than two seats can play. It
// fails when there is no hand to clear or the hand is still running.
func (t *Table) EndHand() error {
	if t.Hand == nil {
		return fmt.Errorf("table %s has no hand to end", t.ID)
	}
	if !t.Hand.Complete() {
		return fmt.Errorf("hand %d on table %s is still in progress", t.Hand.Number, t.ID)
	}
	t.LastResult = t.Hand.Result
	t.Hand = nil

	for _, s := range t.Seats {
		s.CurrentBet = 0
		s.TotalContrib = 0
		s.HasActed = false
		s.IsDealer = false
		s.IsSmallBlind = false
		s.IsBigBlind = false
		if s.Chips > 0 && s.Status != SeatSitting {
			s.Status = SeatPlaying
		} else if s.Chips <= 0 {
			s.Status = SeatSitting
		}
	}

	if t.PlayableSeats() < 2 {
		t.Status = TableWaiting
	}
	return nil
}
