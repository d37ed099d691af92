package entity

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	CardRows    = 3
	CardColumns = 9

	NumbersPerRow  = 5
	NumbersPerCard = CardRows * NumbersPerRow

	// TotalNumbers is the size of the 90-ball draw pool.
	TotalNumbers = 90

	// EmptyCell marks an unfilled cell; it is never a drawable number.
	EmptyCell = 0
)

var (
	ErrWrongRowFill     = errors.New("row must hold exactly five numbers")
	ErrNumberOutOfRange = errors.New("number is outside its column range")
	ErrDuplicateNumber  = errors.New("duplicate number on card")
)

// Card is a single 90-ball bingo ticket: a 3x9 grid where every row
// holds exactly five numbers and column c only holds values from
// 10c+1 to 10c+10. A card is generated once and never mutated.
type Card [CardRows][CardColumns]int

// NewCard generates a random card. Each column gets a shuffled pool of
// its ten legal values; every row then fills five random distinct
// columns, taking the next value from that column's pool. A column is
// picked at most once per row, so no pool ever runs out.
func NewCard() Card {
	var pools [CardColumns][]int
	for col := range pools {
		pool := make([]int, 0, 10)
		for n := col*10 + 1; n <= col*10+10; n++ {
			pool = append(pool, n)
		}
		rand.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		pools[col] = pool
	}

	var card Card
	for row := 0; row < CardRows; row++ {
		filled := 0
		for filled < NumbersPerRow {
			col := rand.Intn(CardColumns) //nolint:gosec // game randomness, not crypto
			if card[row][col] != EmptyCell {
				continue
			}

			card[row][col] = pools[col][0]
			pools[col] = pools[col][1:]
			filled++
		}
	}

	return card
}

// Validate is the completeness oracle for a card: five filled cells
// per row, every value inside its column range, no value twice.
func (that Card) Validate() error {
	seen := make(map[int]struct{}, NumbersPerCard)

	for row := 0; row < CardRows; row++ {
		filled := 0
		for col := 0; col < CardColumns; col++ {
			num := that[row][col]
			if num == EmptyCell {
				continue
			}
			filled++

			if num < col*10+1 || num > col*10+10 {
				return fmt.Errorf("%w: %d in column %d", ErrNumberOutOfRange, num, col)
			}

			if _, ok := seen[num]; ok {
				return fmt.Errorf("%w: %d", ErrDuplicateNumber, num)
			}
			seen[num] = struct{}{}
		}

		if filled != NumbersPerRow {
			return fmt.Errorf("%w: row %d has %d", ErrWrongRowFill, row, filled)
		}
	}

	return nil
}

// Numbers returns the fifteen filled values in row-major order.
func (that Card) Numbers() []int {
	numbers := make([]int, 0, NumbersPerCard)
	for row := 0; row < CardRows; row++ {
		for col := 0; col < CardColumns; col++ {
			if that[row][col] != EmptyCell {
				numbers = append(numbers, that[row][col])
			}
		}
	}
	return numbers
}

// RowCovered reports whether every number in the given row has been drawn.
func (that Card) RowCovered(row int, drawn map[int]struct{}) bool {
	for col := 0; col < CardColumns; col++ {
		num := that[row][col]
		if num == EmptyCell {
			continue
		}
		if _, ok := drawn[num]; !ok {
			return false
		}
	}
	return true
}

// HasFiveInRow reports whether any row is fully covered by the drawn set.
func (that Card) HasFiveInRow(drawn map[int]struct{}) bool {
	for row := 0; row < CardRows; row++ {
		if that.RowCovered(row, drawn) {
			return true
		}
	}
	return false
}

// IsFullCard reports whether all fifteen numbers have been drawn.
func (that Card) IsFullCard(drawn map[int]struct{}) bool {
	for row := 0; row < CardRows; row++ {
		if !that.RowCovered(row, drawn) {
			return false
		}
	}
	return true
}
