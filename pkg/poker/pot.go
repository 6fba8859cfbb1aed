package poker

import "sort"

// Pot is one layer of the pot structure: the main pot first, then side
// pots capped at increasing contribution levels. Eligible preserves the
// caller's player ordering so downstream odd-chip distribution stays
// deterministic.
type Pot struct {
	Amount   int64    `json:"amount"`
	Eligible []string `json:"eligible"`
}

// BuildPots derives main and side pots from each player's total
// contribution for the hand. folded players' chips stay in the pots but
// the players themselves appear in no eligibility set. order is the seat
// ordering used for eligibility lists; every contributing player must
// appear in it.
//
// Invariant: the sum of all pot amounts equals the sum of all
// contributions.
func BuildPots(contribs map[string]int64, folded map[string]bool, order []string) []Pot {
	levelSet := make(map[int64]bool)
	for _, c := range contribs {
		if c > 0 {
			levelSet[c] = true
		}
	}
	if len(levelSet) == 0 {
		return nil
	}

	levels := make([]int64, 0, len(levelSet))
	for lvl := range levelSet {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]Pot, 0, len(levels))
	prev := int64(0)
	for _, lvl := range levels {
		var p Pot
		for _, id := range order {
			c := contribs[id]
			if c <= prev {
				continue
			}
			slice := c
			if slice > lvl {
				slice = lvl
			}
			p.Amount += slice - prev
			if c >= lvl && !folded[id] {
				p.Eligible = append(p.Eligible, id)
			}
		}
		// A level where every matching player folded produces a pot with
		// no eligible players; fold its chips into the previous layer so
		// no pot is ever unwinnable.
		if len(p.Eligible) == 0 && len(pots) > 0 {
			pots[len(pots)-1].Amount += p.Amount
		} else {
			pots = append(pots, p)
		}
		prev = lvl
	}
	return pots
}

// PotTotal sums all pot amounts.
func PotTotal(pots []Pot) int64 {
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	return total
}
