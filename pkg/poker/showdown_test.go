package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riverHand puts a crafted river state on the table so resolution can be
// tested against known cards.
func riverHand(tbl *Table, board []Card) *Hand {
	h := &Hand{
		Number:         1,
		Phase:          PhaseRiver,
		DealerPos:      0,
		SBPos:          1,
		BBPos:          2,
		CurrentTurnPos: -1,
		SmallBlind:     5,
		BigBlind:       10,
		Community:      board,
	}
	tbl.Hand = h
	tbl.Status = TablePlaying
	return h
}

func TestShowdownSplitPotOddChip(t *testing.T) {
	tbl := newTestTable(t, 50, 50, 99)
	board := []Card{
		{Ace, Spades}, {King, Spades}, {Queen, Diamonds}, {Jack, Clubs}, {Ten, Hearts},
	}
	h := riverHand(tbl, board)

	// Both live hands play the broadway board and tie; p2 folded after
	// committing a single chip.
	tbl.SeatOf("p0").Status = SeatPlaying
	tbl.SeatOf("p0").TotalContrib = 50
	tbl.SeatOf("p1").Status = SeatPlaying
	tbl.SeatOf("p1").TotalContrib = 50
	tbl.SeatOf("p2").Status = SeatFolded
	tbl.SeatOf("p2").TotalContrib = 1

	hole := HoleCards{
		"p0": {{Two, Hearts}, {Three, Clubs}},
		"p1": {{Two, Diamonds}, {Three, Spades}},
	}
	require.NoError(t, tbl.resolveHand(hole, t0))

	res := h.Result
	require.NotNil(t, res)
	assert.False(t, res.Uncontested)
	// 101 chips total; the odd chip goes to the first winner clockwise
	// from the small blind, which is p1.
	assert.Equal(t, int64(51), res.Payouts["p1"])
	assert.Equal(t, int64(50), res.Payouts["p0"])
	assert.NotContains(t, res.Payouts, "p2")
	assert.Len(t, res.Revealed, 2)
	assert.NotContains(t, res.Revealed, "p2", "folded hands stay hidden")
}

func TestShowdownSidePotsSplitByStrength(t *testing.T) {
	tbl := newTestTable(t, 0, 70, 70)
	board := []Card{
		{Two, Spades}, {Seven, Diamonds}, {Nine, Hearts}, {Jack, Clubs}, {Three, Diamonds},
	}
	h := riverHand(tbl, board)

	// p0 was all-in short for 30; p1 and p2 bet on to 100 each.
	tbl.SeatOf("p0").Status = SeatAllIn
	tbl.SeatOf("p0").TotalContrib = 30
	tbl.SeatOf("p1").Status = SeatPlaying
	tbl.SeatOf("p1").TotalContrib = 100
	tbl.SeatOf("p2").Status = SeatPlaying
	tbl.SeatOf("p2").TotalContrib = 100

	hole := HoleCards{
		"p0": {{Ace, Spades}, {Ace, Diamonds}},
		"p1": {{King, Spades}, {King, Diamonds}},
		"p2": {{Queen, Spades}, {Queen, Diamonds}},
	}
	require.NoError(t, tbl.resolveHand(hole, t0))

	res := h.Result
	require.NotNil(t, res)
	require.Len(t, res.Pots, 2)

	// Main pot (30 x 3) goes to the aces; the kings take the side pot
	// (70 x 2) the short stack had no share of.
	assert.Equal(t, int64(90), res.Pots[0].Amount)
	assert.Equal(t, []string{"p0"}, res.Pots[0].Winners)
	assert.Equal(t, "Pair of Aces", res.Pots[0].WinningDesc)
	assert.Equal(t, int64(140), res.Pots[1].Amount)
	assert.Equal(t, []string{"p1"}, res.Pots[1].Winners)
	assert.Equal(t, "Pair of Kings", res.Pots[1].WinningDesc)

	assert.Equal(t, int64(90), tbl.SeatOf("p0").Chips)
	assert.Equal(t, int64(210), tbl.SeatOf("p1").Chips)
	assert.Equal(t, int64(70), tbl.SeatOf("p2").Chips)
}

func TestShowdownFlushBeatsBoardStraight(t *testing.T) {
	tbl := newTestTable(t, 100, 100)
	board := []Card{
		{King, Spades}, {Queen, Spades}, {Jack, Spades}, {Ten, Diamonds}, {Nine, Hearts},
	}
	h := riverHand(tbl, board)

	tbl.SeatOf("p0").Status = SeatPlaying
	tbl.SeatOf("p0").TotalContrib = 100
	tbl.SeatOf("p1").Status = SeatPlaying
	tbl.SeatOf("p1").TotalContrib = 100

	// p0 makes an ace-high straight; p1's two low spades complete a
	// flush on the three-spade board.
	hole := HoleCards{
		"p0": {{Ace, Spades}, {Two, Diamonds}},
		"p1": {{Seven, Spades}, {Three, Spades}},
	}
	require.NoError(t, tbl.resolveHand(hole, t0))

	res := h.Result
	require.NotNil(t, res)
	require.Len(t, res.Pots, 1)
	assert.Equal(t, []string{"p1"}, res.Pots[0].Winners)
	assert.Contains(t, res.Pots[0].WinningDesc, "Flush")
	assert.Equal(t, int64(200), res.Payouts["p1"])
	assert.NotContains(t, res.Payouts, "p0")
}

func TestShowdownMissingHoleCardsFails(t *testing.T) {
	tbl := newTestTable(t, 50, 50)
	riverHand(tbl, []Card{
		{Two, Spades}, {Seven, Diamonds}, {Nine, Hearts}, {Jack, Clubs}, {Three, Diamonds},
	})
	tbl.SeatOf("p0").Status = SeatPlaying
	tbl.SeatOf("p0").TotalContrib = 20
	tbl.SeatOf("p1").Status = SeatPlaying
	tbl.SeatOf("p1").TotalContrib = 20

	err := tbl.resolveHand(HoleCards{"p0": {{Ace, Spades}, {Ace, Diamonds}}}, t0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing hole cards")
}
