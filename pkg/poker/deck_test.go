package poker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDeals makes live-game shuffles deterministic for the duration of
// a test.
func seedDeals(t *testing.T, seed int64) {
	t.Helper()
	old := newDealRNG
	newDealRNG = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	t.Cleanup(func() { newDealRNG = old })
}

func TestNewDeckCanonicalOrder(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, d.Size())

	cards := d.Cards()
	assert.Equal(t, Card{Rank: Two, Suit: Spades}, cards[0])
	assert.Equal(t, Card{Rank: Ace, Suit: Spades}, cards[12])
	assert.Equal(t, Card{Rank: Two, Suit: Hearts}, cards[13])
	assert.Equal(t, Card{Rank: Ace, Suit: Clubs}, cards[51])

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleIsPermutation(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(42)))
	before := make(map[Card]bool)
	for _, c := range d.Cards() {
		before[c] = true
	}

	d.ShuffleN(RiffleCount)

	require.Equal(t, 52, d.Size())
	for _, c := range d.Cards() {
		assert.True(t, before[c], "shuffle invented card %s", c)
		delete(before, c)
	}
	assert.Empty(t, before)
}

func TestShuffleDeterministicPerSeed(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(7)))
	b := NewDeck(rand.New(rand.NewSource(7)))
	a.ShuffleN(RiffleCount)
	b.ShuffleN(RiffleCount)
	assert.Equal(t, a.Cards(), b.Cards())

	c := NewDeck(rand.New(rand.NewSource(8)))
	c.ShuffleN(RiffleCount)
	assert.NotEqual(t, a.Cards(), c.Cards())
}

func TestShuffleMovesCards(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	original := NewDeck(nil).Cards()
	d.ShuffleN(RiffleCount)

	moved := 0
	for i, c := range d.Cards() {
		if c != original[i] {
			moved++
		}
	}
	// Seven riffles should leave almost nothing in place.
	assert.Greater(t, moved, 40)
}

func TestDealAndBurn(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))

	cards, err := d.Deal(2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 50, d.Size())

	require.NoError(t, d.Burn())
	assert.Equal(t, 49, d.Size())

	_, err = d.Deal(50)
	require.Error(t, err)
	assert.Equal(t, 49, d.Size(), "failed deal must not consume cards")
}

func TestDeckFromRoundTrip(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(9)))
	d.ShuffleN(RiffleCount)
	_, err := d.Deal(6)
	require.NoError(t, err)

	restored := DeckFrom(d.Cards())
	require.Equal(t, d.Size(), restored.Size())

	want, err := d.Deal(5)
	require.NoError(t, err)
	got, err := restored.Deal(5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCryptoSourceProducesOutput(t *testing.T) {
	rng := rand.New(NewCryptoSource())
	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		seen[rng.Int63()] = true
	}
	// Ten draws colliding would mean the source is broken.
	assert.Greater(t, len(seen), 1)
}
