package poker

import (
	"fmt"
	"sort"
)

// HandRank represents the category of a poker hand, weakest first.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the conventional category name.
func (r HandRank) String() string {
	switch r {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue is a complete evaluation of a five-card hand.
//
// TotalOrder is a single scalar that is strictly monotone across the 7,462
// equivalence classes of five-card hands: a higher value always beats a
// lower one, and equality means a tie under standard rules (suits never
// break ties). The packing is 4 bits of category followed by five 4-bit
// tiebreak ranks in significance order, so comparing two TotalOrder values
// compares category first, then each tiebreak in turn.
type HandValue struct {
	Rank       HandRank
	TotalOrder uint32
	Tiebreaks  [5]Rank
	Best       []Card // the five cards forming the hand
	Desc       string
}

// CompareHands orders two hand values: -1 if a loses to b, 0 on a tie,
// 1 if a beats b.
func CompareHands(a, b HandValue) int {
	switch {
	case a.TotalOrder < b.TotalOrder:
		return -1
	case a.TotalOrder > b.TotalOrder:
		return 1
	default:
		return 0
	}
}

func packOrder(rank HandRank, tb [5]Rank) uint32 {
	v := uint32(rank)
	for _, r := range tb {
		v = v<<4 | uint32(r)&0xf
	}
	return v
}

// Evaluate5 ranks exactly five cards.
func Evaluate5(cards []Card) (HandValue, error) {
	if len(cards) != 5 {
		return HandValue{}, fmt.Errorf("poker: evaluate5 needs 5 cards, got %d", len(cards))
	}

	sorted := make([]Card, 5)
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank > sorted[j].Rank })

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	straightHigh, straight := straightHighCard(sorted)

	// Group ranks by multiplicity: groups sorted by (count, rank) descending
	// gives the primary cards first and kickers after.
	counts := make(map[Rank]int)
	for _, c := range sorted {
		counts[c.Rank]++
	}
	type group struct {
		rank  Rank
		count int
	}
	groups := make([]group, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, group{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	var (
		rank HandRank
		tb   [5]Rank
		desc string
	)

	switch {
	case flush && straight && straightHigh == Ace:
		rank = RoyalFlush
		tb[0] = Ace
		desc = "Royal Flush"
	case flush && straight:
		rank = StraightFlush
		tb[0] = straightHigh
		desc = fmt.Sprintf("Straight Flush, %s High", straightHigh.Name())
	case groups[0].count == 4:
		rank = FourOfAKind
		tb[0] = groups[0].rank
		tb[1] = groups[1].rank
		desc = fmt.Sprintf("Four of a Kind, %ss", groups[0].rank.Name())
	case groups[0].count == 3 && groups[1].count == 2:
		rank = FullHouse
		tb[0] = groups[0].rank
		tb[1] = groups[1].rank
		desc = fmt.Sprintf("Full House, %ss over %ss", groups[0].rank.Name(), groups[1].rank.Name())
	case flush:
		rank = Flush
		for i, c := range sorted {
			tb[i] = c.Rank
		}
		desc = fmt.Sprintf("Flush, %s High", sorted[0].Rank.Name())
	case straight:
		rank = Straight
		tb[0] = straightHigh
		desc = fmt.Sprintf("Straight, %s High", straightHigh.Name())
	case groups[0].count == 3:
		rank = ThreeOfAKind
		tb[0] = groups[0].rank
		tb[1] = groups[1].rank
		tb[2] = groups[2].rank
		desc = fmt.Sprintf("Three of a Kind, %ss", groups[0].rank.Name())
	case groups[0].count == 2 && groups[1].count == 2:
		rank = TwoPair
		tb[0] = groups[0].rank
		tb[1] = groups[1].rank
		tb[2] = groups[2].rank
		desc = fmt.Sprintf("Two Pair, %ss and %ss", groups[0].rank.Name(), groups[1].rank.Name())
	case groups[0].count == 2:
		rank = Pair
		tb[0] = groups[0].rank
		tb[1] = groups[1].rank
		tb[2] = groups[2].rank
		tb[3] = groups[3].rank
		desc = fmt.Sprintf("Pair of %ss", groups[0].rank.Name())
	default:
		rank = HighCard
		for i, c := range sorted {
			tb[i] = c.Rank
		}
		desc = fmt.Sprintf("High Card, %s", sorted[0].Rank.Name())
	}

	return HandValue{
		Rank:       rank,
		TotalOrder: packOrder(rank, tb),
		Tiebreaks:  tb,
		Best:       sorted,
		Desc:       desc,
	}, nil
}

// straightHighCard reports whether the five rank-descending cards form a
// straight and returns its high card. The wheel A-2-3-4-5 counts with high
// card 5; aces never wrap above king.
func straightHighCard(sorted []Card) (Rank, bool) {
	run := true
	for i := 1; i < 5; i++ {
		if sorted[i-1].Rank != sorted[i].Rank+1 {
			run = false
			break
		}
	}
	if run {
		return sorted[0].Rank, true
	}

	// Wheel: A,5,4,3,2 when sorted descending.
	if sorted[0].Rank == Ace && sorted[1].Rank == Five && sorted[2].Rank == Four &&
		sorted[3].Rank == Three && sorted[4].Rank == Two {
		return Five, true
	}
	return 0, false
}

// EvaluateBest finds the best five-card hand among 5 to 7 cards by
// enumerating every C(n,5) combination. 21 evaluations at worst.
func EvaluateBest(cards []Card) (HandValue, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HandValue{}, fmt.Errorf("poker: evaluateBest needs 5..7 cards, got %d", n)
	}
	if n == 5 {
		return Evaluate5(cards)
	}

	var best HandValue
	found := false
	combo := make([]Card, 5)
	idx := make([]int, 5)
	for i := range idx {
		idx[i] = i
	}
	for {
		for i, j := range idx {
			combo[i] = cards[j]
		}
		hv, err := Evaluate5(combo)
		if err != nil {
			return HandValue{}, err
		}
		if !found || hv.TotalOrder > best.TotalOrder {
			best = hv
			found = true
		}

		// Advance the combination indices.
		i := 4
		for i >= 0 && idx[i] == n-5+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < 5; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return best, nil
}
