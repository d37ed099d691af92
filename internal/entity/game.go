package entity

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/bingoton/bingoton-backend/internal/apperror"
)

const (
	PhaseRegistration = "registration"
	PhaseActive       = "active"
	PhaseResolved     = "resolved"
)

const (
	CategoryFiveInRow = "five_in_row"
	CategoryFullCard  = "full_card"
)

// Winners holds the players that hit each prize category, in ascending
// player-id order. A player appears at most once per category.
type Winners struct {
	FiveInRow []string `json:"five_in_row"`
	FullCard  []string `json:"full_card"`
}

// Game is the single authoritative state of one bingo round. Every
// writer loads it fresh, mutates it as a whole and saves it back, so
// each field is always replaced whole-value, never incremented in place.
type Game struct {
	ID           string            `json:"id"`
	Phase        string            `json:"phase"`
	Players      map[string][]Card `json:"players"`
	Pending      map[string][]Card `json:"pending_players"`
	DrawnNumbers []int             `json:"drawn_numbers"`
	Jackpot      float64           `json:"jackpot"`
	Winners      Winners           `json:"winners"`
	ResolvedAt   time.Time         `json:"resolved_at,omitempty"`
	PaidOut      bool              `json:"paid_out"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:           id,
		Phase:        PhaseRegistration,
		Players:      make(map[string][]Card),
		Pending:      make(map[string][]Card),
		DrawnNumbers: []int{},
	}
}

// NewGameID returns an id that never repeats across rounds: the
// ledger de-duplicates win credits by game id, so a reused id would
// swallow a returning winner's payout.
func NewGameID() string {
	return fmt.Sprintf("%016x", rand.Uint64()) //nolint:gosec // opaque id, not a secret
}

func (that *Game) IsRegistration() bool {
	return that.Phase == PhaseRegistration
}

func (that *Game) IsActive() bool {
	return that.Phase == PhaseActive
}

func (that *Game) IsResolved() bool {
	return that.Phase == PhaseResolved
}

func (that *Game) ConfirmActivePhase() error {
	switch {
	case that.IsActive():
		return nil
	case that.IsResolved():
		return apperror.ErrAlreadyResolved
	default:
		return apperror.ErrGameNotActive
	}
}

// TotalCards counts the cards sold into the current round. Pending
// cards belong to the next round and are not counted.
func (that *Game) TotalCards() int {
	total := 0
	for _, cards := range that.Players {
		total += len(cards)
	}
	return total
}

func (that *Game) ActivePlayers() int {
	return len(that.Players)
}

// MergePending moves cards bought during the previous round into the
// current player set and empties the pending bucket.
func (that *Game) MergePending() {
	for id, cards := range that.Pending {
		that.Players[id] = append(that.Players[id], cards...)
	}
	that.Pending = make(map[string][]Card)
}

// AvailableNumbers returns the not-yet-drawn numbers in ascending order.
func (that *Game) AvailableNumbers() []int {
	drawn := that.DrawnSet()

	available := make([]int, 0, TotalNumbers-len(that.DrawnNumbers))
	for n := 1; n <= TotalNumbers; n++ {
		if _, ok := drawn[n]; !ok {
			available = append(available, n)
		}
	}
	return available
}

func (that *Game) DrawnSet() map[int]struct{} {
	drawn := make(map[int]struct{}, len(that.DrawnNumbers))
	for _, n := range that.DrawnNumbers {
		drawn[n] = struct{}{}
	}
	return drawn
}

// CheckWinners rebuilds both winner sets from scratch against the
// current drawn numbers. Rebuilding whole-value instead of appending
// keeps the sets correct when a concurrent writer wins a save race.
// Players are scanned in id order so repeated checks of equal state
// produce identical sets. A full-card hit resolves the game in the
// same mutation; no draw may follow it.
func (that *Game) CheckWinners() {
	drawn := that.DrawnSet()
	winners := Winners{}

	ids := make([]string, 0, len(that.Players))
	for id := range that.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fiveInRow, fullCard := false, false
		for _, card := range that.Players[id] {
			if card.HasFiveInRow(drawn) {
				fiveInRow = true
			}
			if card.IsFullCard(drawn) {
				fullCard = true
			}
		}
		if fiveInRow {
			winners.FiveInRow = append(winners.FiveInRow, id)
		}
		if fullCard {
			winners.FullCard = append(winners.FullCard, id)
		}
	}

	that.Winners = winners
	if len(winners.FullCard) > 0 {
		that.Phase = PhaseResolved
	}
}

func (that *Game) HasWinners() bool {
	return len(that.Winners.FiveInRow) > 0 || len(that.Winners.FullCard) > 0
}

// Validate is the store-boundary integrity check. A game failing it is
// treated as missing and replaced with a fresh one.
func (that *Game) Validate() error {
	switch that.Phase {
	case PhaseRegistration, PhaseActive, PhaseResolved:
	default:
		return fmt.Errorf("unknown phase %q", that.Phase)
	}

	if that.ID == "" {
		return fmt.Errorf("empty game id")
	}

	if len(that.DrawnNumbers) > TotalNumbers {
		return fmt.Errorf("%d drawn numbers exceeds %d", len(that.DrawnNumbers), TotalNumbers)
	}

	seen := make(map[int]struct{}, len(that.DrawnNumbers))
	for _, n := range that.DrawnNumbers {
		if n < 1 || n > TotalNumbers {
			return fmt.Errorf("drawn number %d out of range", n)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("drawn number %d repeated", n)
		}
		seen[n] = struct{}{}
	}

	if that.Jackpot < 0 {
		return fmt.Errorf("negative jackpot %f", that.Jackpot)
	}

	for id, cards := range that.Players {
		for _, card := range cards {
			if err := card.Validate(); err != nil {
				return fmt.Errorf("player %s: %w", id, err)
			}
		}
	}

	return nil
}
