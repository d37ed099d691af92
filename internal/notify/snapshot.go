package notify

import (
	"sort"

	"github.com/bingoton/bingoton-backend/internal/entity"
)

// PlayerStat is one player's slice of a snapshot.
type PlayerStat struct {
	ID    string `json:"id"`
	Cards int    `json:"cards"`
}

// Snapshot is the deterministic projection of a round that gets pushed
// to subscribers. Equal game states must project to equal snapshots:
// players are emitted sorted by id so that map iteration order never
// leaks into the payload, and the payload equality is what the hub
// uses to de-duplicate broadcasts.
type Snapshot struct {
	GameID        string         `json:"game_id"`
	Phase         string         `json:"phase"`
	DrawnNumbers  []int          `json:"drawn_numbers"`
	LastNumber    int            `json:"last_number,omitempty"`
	CardsSold     int            `json:"cards_sold"`
	Jackpot       float64        `json:"jackpot"`
	ActivePlayers int            `json:"active_players"`
	Players       []PlayerStat   `json:"players"`
	Winners       entity.Winners `json:"winners"`
}

// Project builds the snapshot for a game. It is pure: it copies what
// it needs and never aliases the game's slices.
func Project(game *entity.Game) Snapshot {
	snapshot := Snapshot{
		GameID:        game.ID,
		Phase:         game.Phase,
		DrawnNumbers:  append([]int{}, game.DrawnNumbers...),
		CardsSold:     game.TotalCards(),
		Jackpot:       game.Jackpot,
		ActivePlayers: game.ActivePlayers(),
		Players:       make([]PlayerStat, 0, len(game.Players)),
		Winners: entity.Winners{
			FiveInRow: append([]string{}, game.Winners.FiveInRow...),
			FullCard:  append([]string{}, game.Winners.FullCard...),
		},
	}

	if n := len(game.DrawnNumbers); n > 0 {
		snapshot.LastNumber = game.DrawnNumbers[n-1]
	}

	for id, cards := range game.Players {
		snapshot.Players = append(snapshot.Players, PlayerStat{ID: id, Cards: len(cards)})
	}
	sort.Slice(snapshot.Players, func(i, j int) bool {
		return snapshot.Players[i].ID < snapshot.Players[j].ID
	})

	return snapshot
}
