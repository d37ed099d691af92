package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowCard builds a deterministic valid card: row r holds the values
// 10c+1+r for the first five columns.
func rowCard() Card {
	var card Card
	for row := 0; row < CardRows; row++ {
		for col := 0; col < NumbersPerRow; col++ {
			card[row][col] = col*10 + 1 + row
		}
	}
	return card
}

func TestGamePhaseMethods(t *testing.T) {
	t.Run("New game starts in registration", func(t *testing.T) {
		// Given: a fresh game
		game := NewGame("4242")

		// Then: it is in registration and nothing else
		assert.True(t, game.IsRegistration())
		assert.False(t, game.IsActive())
		assert.False(t, game.IsResolved())
	})

	t.Run("ConfirmActivePhase returns nil only when active", func(t *testing.T) {
		assert.NoError(t, (&Game{Phase: PhaseActive}).ConfirmActivePhase())
		assert.Error(t, (&Game{Phase: PhaseRegistration}).ConfirmActivePhase())
		assert.Error(t, (&Game{Phase: PhaseResolved}).ConfirmActivePhase())
	})
}

func TestNewGameID(t *testing.T) {
	t.Run("Ids do not repeat across rounds", func(t *testing.T) {
		// Given: many consecutive rounds
		seen := make(map[string]struct{})

		for i := 0; i < 10000; i++ {
			id := NewGameID()

			// Then: every id is fresh; the ledger keys win credits on it
			require.NotEmpty(t, id)
			_, dup := seen[id]
			require.False(t, dup, "id %q repeated", id)
			seen[id] = struct{}{}
		}
	})
}

func TestGame_MergePending(t *testing.T) {
	t.Run("Pending cards move into players and the bucket empties", func(t *testing.T) {
		// Given: a game with one registered and one pending player
		game := NewGame("4242")
		game.Players["alice"] = []Card{rowCard()}
		game.Pending["bob"] = []Card{rowCard(), rowCard()}
		game.Pending["alice"] = []Card{rowCard()}

		// When: pending purchases are merged
		game.MergePending()

		// Then: all cards live under players and pending is empty
		assert.Len(t, game.Players["alice"], 2)
		assert.Len(t, game.Players["bob"], 2)
		assert.Empty(t, game.Pending)
		assert.Equal(t, 4, game.TotalCards())
	})
}

func TestGame_AvailableNumbers(t *testing.T) {
	t.Run("Full pool when nothing is drawn", func(t *testing.T) {
		game := NewGame("4242")

		available := game.AvailableNumbers()

		assert.Len(t, available, TotalNumbers)
		assert.Equal(t, 1, available[0])
		assert.Equal(t, TotalNumbers, available[len(available)-1])
	})

	t.Run("Drawn numbers leave the pool", func(t *testing.T) {
		game := NewGame("4242")
		game.DrawnNumbers = []int{1, 45, 90}

		available := game.AvailableNumbers()

		assert.Len(t, available, TotalNumbers-3)
		assert.NotContains(t, available, 1)
		assert.NotContains(t, available, 45)
		assert.NotContains(t, available, 90)
	})
}

func TestGame_CheckWinners(t *testing.T) {
	t.Run("Covered row yields five-in-row only", func(t *testing.T) {
		// Given: alice's card with exactly its first row drawn
		game := NewGame("4242")
		card := rowCard()
		game.Players["alice"] = []Card{card}
		game.Phase = PhaseActive
		game.DrawnNumbers = card.Numbers()[:NumbersPerRow]

		// When: winners are checked
		game.CheckWinners()

		// Then: alice is a five-in-row winner, no full card, still active
		assert.Equal(t, []string{"alice"}, game.Winners.FiveInRow)
		assert.Empty(t, game.Winners.FullCard)
		assert.True(t, game.IsActive())
	})

	t.Run("Full card resolves the game in the same step", func(t *testing.T) {
		// Given: alice's card fully covered
		game := NewGame("4242")
		card := rowCard()
		game.Players["alice"] = []Card{card}
		game.Phase = PhaseActive
		game.DrawnNumbers = card.Numbers()

		// When: winners are checked
		game.CheckWinners()

		// Then: alice wins both categories and the phase flips to resolved
		assert.Equal(t, []string{"alice"}, game.Winners.FiveInRow)
		assert.Equal(t, []string{"alice"}, game.Winners.FullCard)
		assert.True(t, game.IsResolved())
	})

	t.Run("Player appears once even with two qualifying cards", func(t *testing.T) {
		// Given: alice holding two identical covered cards
		game := NewGame("4242")
		card := rowCard()
		game.Players["alice"] = []Card{card, card}
		game.Phase = PhaseActive
		game.DrawnNumbers = card.Numbers()

		// When: winners are checked
		game.CheckWinners()

		// Then: alice is listed once per category
		assert.Equal(t, []string{"alice"}, game.Winners.FiveInRow)
		assert.Equal(t, []string{"alice"}, game.Winners.FullCard)
	})

	t.Run("Repeated checks rebuild the same sets", func(t *testing.T) {
		// Given: a resolved state with winners already computed
		game := NewGame("4242")
		card := rowCard()
		game.Players["alice"] = []Card{card}
		game.Players["bob"] = []Card{card}
		game.Phase = PhaseActive
		game.DrawnNumbers = card.Numbers()
		game.CheckWinners()
		first := game.Winners

		// When: winners are checked again on the same state
		game.CheckWinners()

		// Then: the sets are identical, not duplicated
		assert.Equal(t, first, game.Winners)
		assert.Equal(t, []string{"alice", "bob"}, game.Winners.FullCard)
	})
}

func TestGame_Validate(t *testing.T) {
	t.Run("Fresh game is valid", func(t *testing.T) {
		require.NoError(t, NewGame("4242").Validate())
	})

	t.Run("Rejects unknown phase", func(t *testing.T) {
		game := NewGame("4242")
		game.Phase = "paused"

		assert.Error(t, game.Validate())
	})

	t.Run("Rejects out-of-range drawn number", func(t *testing.T) {
		game := NewGame("4242")
		game.DrawnNumbers = []int{0}

		assert.Error(t, game.Validate())
	})

	t.Run("Rejects repeated drawn number", func(t *testing.T) {
		game := NewGame("4242")
		game.DrawnNumbers = []int{7, 7}

		assert.Error(t, game.Validate())
	})

	t.Run("Rejects a malformed card", func(t *testing.T) {
		game := NewGame("4242")
		game.Players["alice"] = []Card{{}}

		assert.Error(t, game.Validate())
	})
}
