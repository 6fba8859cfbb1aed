package poker

import (
	"encoding/json"
	"fmt"
)

// Suit is one of the four card suits, stored as its symbol.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists the suits in canonical deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Rank is a card rank; numeric values match pip counts with ace high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the short rank symbol used on card faces.
func (r Rank) String() string {
	switch r {
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Name returns the spoken rank name, as used in hand descriptions.
func (r Rank) Name() string {
	switch r {
	case Two:
		return "Two"
	case Three:
		return "Three"
	case Four:
		return "Four"
	case Five:
		return "Five"
	case Six:
		return "Six"
	case Seven:
		return "Seven"
	case Eight:
		return "Eight"
	case Nine:
		return "Nine"
	case Ten:
		return "Ten"
	case Jack:
		return "Jack"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Ace:
		return "Ace"
	default:
		return "Unknown"
	}
}

// Card is a single playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard builds a card from rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String renders the card as rank followed by suit symbol, e.g. "A♠".
func (c Card) String() string {
	return c.Rank.String() + string(c.Suit)
}

type cardJSON struct {
	Rank Rank   `json:"rank"`
	Suit string `json:"suit"`
}

// MarshalJSON encodes the card with its suit symbol.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Rank: c.Rank, Suit: string(c.Suit)})
}

// UnmarshalJSON decodes a card, accepting suit symbols ("♠"), single
// letters ("s") and full words ("spades").
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	if cj.Rank < Two || cj.Rank > Ace {
		return fmt.Errorf("poker: invalid card rank %d", cj.Rank)
	}
	suit, err := parseSuit(cj.Suit)
	if err != nil {
		return err
	}
	c.Rank = cj.Rank
	c.Suit = suit
	return nil
}

func parseSuit(s string) (Suit, error) {
	switch s {
	case "♠", "s", "S", "spades":
		return Spades, nil
	case "♥", "h", "H", "hearts":
		return Hearts, nil
	case "♦", "d", "D", "diamonds":
		return Diamonds, nil
	case "♣", "c", "C", "clubs":
		return Clubs, nil
	default:
		return "", fmt.Errorf("poker: invalid card suit %q", s)
	}
}
