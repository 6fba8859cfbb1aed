package poker

import (
	"fmt"
	"time"

	"github.com/decred/slog"
)

// SeatStatus tracks what a seat is doing in the current hand.
type SeatStatus string

const (
	// SeatSitting is a seat waiting to be dealt in. Fresh joiners sit
	// until they occupy the big blind; busted seats sit until they leave.
	SeatSitting SeatStatus = "sitting"
	// SeatPlaying is a seat dealt into the current hand and able to act.
	SeatPlaying SeatStatus = "playing"
	// SeatFolded is a seat that folded the current hand.
	SeatFolded SeatStatus = "folded"
	// SeatAllIn is a seat with every chip committed to the current hand.
	SeatAllIn SeatStatus = "allin"
)

// Seat is one position at a table.
type Seat struct {
	PlayerID string     `json:"playerId"`
	Position int        `json:"position"`
	Chips    int64      `json:"chips"`
	Status   SeatStatus `json:"status"`

	// CurrentBet is the chips committed to the current betting round only;
	// it resets to zero at each street. TotalContrib accumulates across the
	// whole hand and feeds pot construction.
	CurrentBet   int64 `json:"currentBet"`
	TotalContrib int64 `json:"totalContrib"`
	HasActed     bool  `json:"hasActed"`

	IsDealer     bool `json:"isDealer"`
	IsSmallBlind bool `json:"isSmallBlind"`
	IsBigBlind   bool `json:"isBigBlind"`

	SeatedAt time.Time `json:"seatedAt"`
}

// Folded reports whether the seat has folded the current hand.
func (s *Seat) Folded() bool { return s.Status == SeatFolded }

// AllIn reports whether the seat is all-in for the current hand.
func (s *Seat) AllIn() bool { return s.Status == SeatAllIn }

// InHand reports whether the seat was dealt into the current hand and has
// not folded.
func (s *Seat) InHand() bool {
	return s.Status == SeatPlaying || s.Status == SeatAllIn || s.Status == SeatFolded
}

// CanAct reports whether the seat may still take actions this hand.
func (s *Seat) CanAct() bool { return s.Status == SeatPlaying }

// Settings holds per-table configuration, immutable for the life of
// the table.
type Settings struct {
	MaxPlayers            int           `json:"maxPlayers"`
	SmallBlind            int64         `json:"smallBlind"`
	BigBlind              int64         `json:"bigBlind"`
	MinBuyIn              int64         `json:"minBuyIn"`
	MaxStack              int64         `json:"maxStack"`
	MaxDebtPerPlayer      int64         `json:"maxDebtPerPlayer"`
	ActionTimer           time.Duration `json:"actionTimer"`
	BlindIncreaseInterval time.Duration `json:"blindIncreaseInterval"`
	ShowHandStrength      bool          `json:"showHandStrength"`
}

// DefaultSettings returns the engine defaults applied to omitted fields.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:            10,
		SmallBlind:            5,
		BigBlind:              10,
		MinBuyIn:              100,
		MaxStack:              2000,
		MaxDebtPerPlayer:      1000,
		ActionTimer:           30 * time.Second,
		BlindIncreaseInterval: 15 * time.Minute,
		ShowHandStrength:      false,
	}
}

// Validate checks the settings ranges.
func (s Settings) Validate() error {
	if s.MaxPlayers < 2 || s.MaxPlayers > 10 {
		return fmt.Errorf("maxPlayers must be in [2,10], got %d", s.MaxPlayers)
	}
	if s.SmallBlind <= 0 {
		return fmt.Errorf("smallBlind must be positive, got %d", s.SmallBlind)
	}
	if s.BigBlind <= s.SmallBlind {
		return fmt.Errorf("bigBlind (%d) must exceed smallBlind (%d)", s.BigBlind, s.SmallBlind)
	}
	if s.MinBuyIn <= 0 {
		return fmt.Errorf("minBuyIn must be positive, got %d", s.MinBuyIn)
	}
	if s.MaxStack < s.MinBuyIn {
		return fmt.Errorf("maxStack (%d) must be at least minBuyIn (%d)", s.MaxStack, s.MinBuyIn)
	}
	if s.MaxDebtPerPlayer < 0 {
		return fmt.Errorf("maxDebtPerPlayer must not be negative, got %d", s.MaxDebtPerPlayer)
	}
	if s.ActionTimer <= 0 {
		return fmt.Errorf("actionTimer must be positive, got %v", s.ActionTimer)
	}
	if s.BlindIncreaseInterval <= 0 {
		return fmt.Errorf("blindIncreaseInterval must be positive, got %v", s.BlindIncreaseInterval)
	}
	return nil
}

// TableStatus is the table lifecycle state.
type TableStatus string

const (
	TableWaiting TableStatus = "waiting"
	TablePlaying TableStatus = "playing"
	TableEnded   TableStatus = "ended"
)

// Table is the authoritative table document. Everything game-critical
// except private hole cards lives here; the document round-trips through
// the store on every mutation.
type Table struct {
	ID        string      `json:"id"`
	HostID    string      `json:"hostId"`
	Status    TableStatus `json:"status"`
	Settings  Settings    `json:"settings"`
	Seats     []*Seat     `json:"seats"`
	Hand      *Hand       `json:"hand,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`

	// HandCounter is the number of the most recently started hand;
	// hand numbers increase monotonically per table.
	HandCounter int64 `json:"handCounter"`
	// LastDealerPos remembers the dealer across hands for rotation.
	// -1 means no hand has been dealt yet.
	LastDealerPos int `json:"lastDealerPos"`
	// NextBlindIncrease is the wall-clock stamp of the next scheduled
	// blind increase. The engine records it but applies no schedule.
	NextBlindIncrease time.Time `json:"nextBlindIncrease"`
	// LastResult summarizes the most recently completed hand for
	// observers; hole cards only appear here if a showdown revealed them.
	LastResult *HandResult `json:"lastResult,omitempty"`

	// log never rides the table document; the owner re-attaches it
	// after each load.
	log slog.Logger
}

// SetLogger attaches the logger used for hand-flow logging. Tables
// without one stay silent.
func (t *Table) SetLogger(log slog.Logger) { t.log = log }

func (t *Table) logger() slog.Logger {
	if t.log == nil {
		return slog.Disabled
	}
	return t.log
}

// NewTable creates a waiting table with the host in seat 0.
func NewTable(id, hostID string, settings Settings, hostChips int64, now time.Time) *Table {
	return &Table{
		ID:       id,
		HostID:   hostID,
		Status:   TableWaiting,
		Settings: settings,
		Seats: []*Seat{{
			PlayerID: hostID,
			Position: 0,
			Chips:    hostChips,
			Status:   SeatSitting,
			SeatedAt: now,
		}},
		CreatedAt:         now,
		LastDealerPos:     -1,
		NextBlindIncrease: now.Add(settings.BlindIncreaseInterval),
	}
}

// Sanitized returns the table as it may leave the server: identical to
// the stored document except that the undealt deck is stripped from the
// hand. Seats are shared with the original, not copied; callers must
// treat the result as read-only.
func (t *Table) Sanitized() *Table {
	if t.Hand == nil || t.Hand.DeckCards == nil {
		return t
	}
	out := *t
	h := *t.Hand
	h.DeckCards = nil
	out.Hand = &h
	return &out
}

// SeatOf returns the seat occupied by playerID, or nil.
func (t *Table) SeatOf(playerID string) *Seat {
	for _, s := range t.Seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

// SeatAt returns the seat at the given position, or nil.
func (t *Table) SeatAt(position int) *Seat {
	for _, s := range t.Seats {
		if s.Position == position {
			return s
		}
	}
	return nil
}

// AddSeat seats a player at the lowest free position.
func (t *Table) AddSeat(playerID string, chips int64, now time.Time) (*Seat, error) {
	if len(t.Seats) >= t.Settings.MaxPlayers {
		return nil, fmt.Errorf("table %s is full", t.ID)
	}
	if t.SeatOf(playerID) != nil {
		return nil, fmt.Errorf("player %s already seated at table %s", playerID, t.ID)
	}
	pos := -1
	for i := 0; i < t.Settings.MaxPlayers; i++ {
		if t.SeatAt(i) == nil {
			pos = i
			break
		}
	}
	if pos == -1 {
		return nil, fmt.Errorf("table %s has no free position", t.ID)
	}
	seat := &Seat{
		PlayerID: playerID,
		Position: pos,
		Chips:    chips,
		Status:   SeatSitting,
		SeatedAt: now,
	}
	t.Seats = append(t.Seats, seat)
	t.sortSeats()
	return seat, nil
}

// RemoveSeat removes playerID's seat and transfers host to the earliest
// seated remaining player when the host leaves. With no seats left the
// table is marked ended.
func (t *Table) RemoveSeat(playerID string) error {
	idx := -1
	for i, s := range t.Seats {
		if s.PlayerID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("player %s not seated at table %s", playerID, t.ID)
	}
	t.Seats = append(t.Seats[:idx], t.Seats[idx+1:]...)

	if len(t.Seats) == 0 {
		t.Status = TableEnded
		t.HostID = ""
		return nil
	}
	if t.HostID == playerID {
		earliest := t.Seats[0]
		for _, s := range t.Seats[1:] {
			if s.SeatedAt.Before(earliest.SeatedAt) {
				earliest = s
			}
		}
		t.HostID = earliest.PlayerID
	}
	return nil
}

// sortSeats keeps the seat slice ordered by position; all position lookups
// and clockwise walks rely on this ordering.
func (t *Table) sortSeats() {
	for i := 1; i < len(t.Seats); i++ {
		for j := i; j > 0 && t.Seats[j-1].Position > t.Seats[j].Position; j-- {
			t.Seats[j-1], t.Seats[j] = t.Seats[j], t.Seats[j-1]
		}
	}
}

// PlayableSeats counts seats that could be dealt into a new hand.
func (t *Table) PlayableSeats() int {
	n := 0
	for _, s := range t.Seats {
		if s.Chips > 0 {
			n++
		}
	}
	return n
}
