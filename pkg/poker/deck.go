package poker

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// RiffleCount is the default number of riffle shuffles applied to a fresh
// deck. Seven Gilbert-Shannon-Reeds riffles bring a 52-card deck within 1%
// total variation distance of uniform.
const RiffleCount = 7

// cryptoSource is a rand.Source64 backed by the OS entropy pool. Deck
// secrecy depends on the shuffle being unpredictable, so game decks must
// never be driven by a seeded PRNG outside of tests.
type cryptoSource struct{}

// NewCryptoSource returns a rand.Source64 reading from crypto/rand.
func NewCryptoSource() rand.Source64 {
	return cryptoSource{}
}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// The OS entropy pool failing is not a recoverable game state.
		panic(fmt.Sprintf("poker: crypto entropy unavailable: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

func (cryptoSource) Seed(int64) {}

// newDealRNG builds the RNG driving live-game shuffles. Tests swap it
// for a seeded PRNG to make deals deterministic.
var newDealRNG = func() *rand.Rand {
	return rand.New(NewCryptoSource())
}

// Deck represents an ordered sequence of cards. The remaining cards of a
// hand in progress round-trip through Cards/DeckFrom so the deck can live
// inside the persisted hand document.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates the 52 distinct cards in canonical order: suits in the
// order spades, hearts, diamonds, clubs; ranks ascending 2..A within each
// suit. The deck is not shuffled.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, Card{Rank: rank, Suit: suit})
		}
	}
	return d
}

// DeckFrom wraps an existing card sequence, typically the remaining deck
// loaded from a hand document. The result can deal but not shuffle.
func DeckFrom(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle performs one Gilbert-Shannon-Reeds riffle in place: the cut point
// is Binomial(n, 1/2), then the halves are interleaved with each card drawn
// from the left pile with probability |left|/(|left|+|right|).
func (d *Deck) Shuffle() {
	n := len(d.cards)
	if n < 2 {
		return
	}

	cut := 0
	for i := 0; i < n; i++ {
		if d.rng.Int63()%2 == 1 {
			cut++
		}
	}

	left := make([]Card, cut)
	copy(left, d.cards[:cut])
	right := make([]Card, n-cut)
	copy(right, d.cards[cut:])

	merged := d.cards[:0]
	for len(left) > 0 || len(right) > 0 {
		if len(right) == 0 {
			merged = append(merged, left...)
			break
		}
		if len(left) == 0 {
			merged = append(merged, right...)
			break
		}
		if d.rng.Int63n(int64(len(left)+len(right))) < int64(len(left)) {
			merged = append(merged, left[0])
			left = left[1:]
		} else {
			merged = append(merged, right[0])
			right = right[1:]
		}
	}
	d.cards = merged
}

// ShuffleN applies n riffles. Entropy compounds with each pass.
func (d *Deck) ShuffleN(n int) {
	for i := 0; i < n; i++ {
		d.Shuffle()
	}
}

// Deal removes and returns the first n cards. Dealing more cards than
// remain means hand-state invariants were already violated upstream, so
// this fails loudly instead of short-dealing.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("poker: cannot deal %d cards, %d remain", n, len(d.cards))
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// Burn discards the top card without revealing it.
func (d *Deck) Burn() error {
	_, err := d.Deal(1)
	return err
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, for persistence.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
