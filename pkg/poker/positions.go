package poker

// Position helpers. All walks are clockwise by seat position with
// wraparound; seats are addressed by table position, not slice index.

// nextSeatWhere returns the first seat strictly after position from
// (clockwise, wrapping) satisfying pred, or nil if none does.
func (t *Table) nextSeatWhere(from int, pred func(*Seat) bool) *Seat {
	max := t.Settings.MaxPlayers
	for i := 1; i <= max; i++ {
		s := t.SeatAt((from + i) % max)
		if s != nil && pred(s) {
			return s
		}
	}
	return nil
}

// nextDealer picks the dealer for the next hand: the first funded seat
// clockwise from the previous dealer. Seats still waiting to be dealt
// in never hold the button. A table's very first hand has no previous
// dealer; the button is then placed uniformly at random among funded
// seats, drawn from the same RNG source that shuffles the deck.
func (t *Table) nextDealer() *Seat {
	if t.LastDealerPos < 0 {
		return t.randomDealer()
	}
	from := t.LastDealerPos
	if s := t.nextSeatWhere(from, func(s *Seat) bool {
		return s.Chips > 0 && s.Status == SeatPlaying
	}); s != nil {
		return s
	}
	return t.nextSeatWhere(from, func(s *Seat) bool { return s.Chips > 0 })
}

func (t *Table) randomDealer() *Seat {
	var funded []*Seat
	for _, s := range t.Seats {
		if s.Chips > 0 {
			funded = append(funded, s)
		}
	}
	if len(funded) == 0 {
		return nil
	}
	return funded[newDealRNG().Intn(len(funded))]
}

// blindSeats returns the small and big blind seats for a hand with the
// given dealer. Heads-up the dealer posts the small blind and the other
// player the big blind; with three or more the blinds are the next two
// seats with chips clockwise from the dealer.
func (t *Table) blindSeats(dealer *Seat, inHand func(*Seat) bool) (sb, bb *Seat) {
	if t.countSeats(inHand) == 2 {
		sb = dealer
		bb = t.nextSeatWhere(dealer.Position, inHand)
		return sb, bb
	}
	sb = t.nextSeatWhere(dealer.Position, inHand)
	bb = t.nextSeatWhere(sb.Position, inHand)
	return sb, bb
}

// firstToActPreflop is the seat after the big blind, which heads-up is
// the dealer (small blind).
func (t *Table) firstToActPreflop(bb *Seat) *Seat {
	return t.nextSeatWhere(bb.Position, func(s *Seat) bool { return s.CanAct() })
}

// firstToActPostflop is the first seat still able to act clockwise from
// the dealer.
func (t *Table) firstToActPostflop(dealerPos int) *Seat {
	return t.nextSeatWhere(dealerPos, func(s *Seat) bool { return s.CanAct() })
}

func (t *Table) countSeats(pred func(*Seat) bool) int {
	n := 0
	for _, s := range t.Seats {
		if pred(s) {
			n++
		}
	}
	return n
}
