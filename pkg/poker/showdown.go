package poker

import (
	"fmt"
	"sort"
	"time"
)

// PotResult records who won one pot and with what.
type PotResult struct {
	Amount  int64    `json:"amount"`
	Winners []string `json:"winners"`
	// WinningDesc names the winning hand, empty when the pot was won
	// uncontested.
	WinningDesc string `json:"winningDesc,omitempty"`
}

// HandResult is the public summary of a completed hand. Hole cards
// appear only for players who reached showdown; an uncontested win
// reveals nothing.
type HandResult struct {
	HandNumber  int64             `json:"handNumber"`
	Board       []Card            `json:"board"`
	Pots        []PotResult       `json:"pots"`
	Payouts     map[string]int64  `json:"payouts"`
	Revealed    map[string][]Card `json:"revealed,omitempty"`
	Uncontested bool              `json:"uncontested"`
	EndedAt     time.Time         `json:"endedAt"`
}

// resolveHand ends the hand: builds the pots from each seat's total
// contribution, picks winners, and pays stacks. With one unfolded seat
// left the pots go to it without revealing a card; otherwise every
// unfolded seat's hole cards are evaluated against the board and each
// pot is split among its best eligible hands. Odd chips from a split go
// one each to winners in clockwise order starting at the small blind.
func (t *Table) resolveHand(hole HoleCards, now time.Time) error {
	h := t.Hand

	contribs := make(map[string]int64)
	folded := make(map[string]bool)
	for _, s := range t.seatsInHand() {
		contribs[s.PlayerID] = s.TotalContrib
		if s.Folded() {
			folded[s.PlayerID] = true
		}
	}
	order := t.clockwiseFrom(h.SBPos)

	deadIDs := make([]string, 0, len(h.DeadMoney))
	for id := range h.DeadMoney {
		deadIDs = append(deadIDs, id)
	}
	sort.Strings(deadIDs)
	for _, id := range deadIDs {
		contribs[id] += h.DeadMoney[id]
		folded[id] = true
		if t.SeatOf(id) == nil {
			order = append(order, id)
		}
	}
	pots := BuildPots(contribs, folded, order)
	h.Pots = pots

	unfolded := t.unfoldedSeats()
	if len(unfolded) == 0 {
		return fmt.Errorf("hand %d on table %s has no seat left to pay", h.Number, t.ID)
	}

	result := &HandResult{
		HandNumber: h.Number,
		Board:      append([]Card(nil), h.Community...),
		Payouts:    make(map[string]int64),
		EndedAt:    now,
	}

	if len(unfolded) == 1 {
		winner := unfolded[0]
		result.Uncontested = true
		for _, p := range pots {
			winner.Chips += p.Amount
			result.Payouts[winner.PlayerID] += p.Amount
			result.Pots = append(result.Pots, PotResult{
				Amount:  p.Amount,
				Winners: []string{winner.PlayerID},
			})
		}
		t.clearBets()
		h.Phase = PhaseComplete
		h.Result = result
		t.logger().Debugf("Table %s: hand %d won uncontested by %s for %d",
			t.ID, h.Number, winner.PlayerID, result.Payouts[winner.PlayerID])
		return nil
	}

	h.Phase = PhaseShowdown

	values := make(map[string]HandValue, len(unfolded))
	result.Revealed = make(map[string][]Card, len(unfolded))
	for _, s := range unfolded {
		cards, ok := hole[s.PlayerID]
		if !ok || len(cards) != 2 {
			return fmt.Errorf("missing hole cards for player %s in hand %d", s.PlayerID, h.Number)
		}
		hv, err := EvaluateBest(append(append([]Card(nil), cards...), h.Community...))
		if err != nil {
			return err
		}
		values[s.PlayerID] = hv
		result.Revealed[s.PlayerID] = append([]Card(nil), cards...)
	}

	for _, p := range pots {
		pr := PotResult{Amount: p.Amount}
		var best uint32
		for _, id := range p.Eligible {
			if v, ok := values[id]; ok && v.TotalOrder > best {
				best = v.TotalOrder
			}
		}
		for _, id := range p.Eligible {
			if v, ok := values[id]; ok && v.TotalOrder == best {
				pr.Winners = append(pr.Winners, id)
			}
		}
		if len(pr.Winners) == 0 {
			return fmt.Errorf("pot of %d in hand %d has no winner", p.Amount, h.Number)
		}
		pr.WinningDesc = values[pr.Winners[0]].Desc

		share := p.Amount / int64(len(pr.Winners))
		remainder := p.Amount % int64(len(pr.Winners))
		for _, id := range pr.Winners {
			amount := share
			if remainder > 0 {
				amount++
				remainder--
			}
			t.SeatOf(id).Chips += amount
			result.Payouts[id] += amount
		}
		result.Pots = append(result.Pots, pr)
	}

	t.clearBets()
	h.Phase = PhaseComplete
	h.Result = result
	t.logger().Debugf("Table %s: hand %d showdown payouts %v", t.ID, h.Number, result.Payouts)
	return nil
}

// clearBets zeroes per-hand bet bookkeeping once the pots are paid out.
func (t *Table) clearBets() {
	for _, s := range t.Seats {
		s.CurrentBet = 0
		s.TotalContrib = 0
	}
}

// clockwiseFrom lists seated player ids in clockwise position order
// starting at the given position.
func (t *Table) clockwiseFrom(pos int) []string {
	max := t.Settings.MaxPlayers
	out := make([]string, 0, len(t.Seats))
	for i := 0; i < max; i++ {
		if s := t.SeatAt((pos + i) % max); s != nil {
			out = append(out, s.PlayerID)
		}
	}
	return out
}
