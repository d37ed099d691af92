package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/bingoton/bingoton-backend/internal/apperror"
	"github.com/bingoton/bingoton-backend/internal/entity"
)

// Prize split of the jackpot between the two categories.
const (
	FullCardShare  = 0.9
	FiveInRowShare = 0.1
)

type gameRepo interface {
	Load(ctx context.Context) (*entity.Game, error)
	Save(ctx context.Context, game *entity.Game) error
}

type wallet interface {
	Debit(ctx context.Context, playerID string, amount float64) error
	Refund(ctx context.Context, playerID string, amount float64) error
}

type payer interface {
	Payout(ctx context.Context, playerID, gameID, category string, amount float64) error
}

// GameManager owns every mutation of the current round. The state
// store itself is last-writer-wins with no locks, so each operation
// loads a fresh state, computes and saves inside one critical section,
// and only ever replaces fields whole-value. Jackpot and winner sets
// are recomputed from scratch on every mutation, never incremented.
type GameManager struct {
	logger *slog.Logger
	games  gameRepo
	wallet wallet
	payer  payer

	ticketPrice float64
	maxCards    int
	cooldown    time.Duration

	mu sync.Mutex
}

func NewGameManager(logger *slog.Logger, games gameRepo, wallet wallet, payer payer, ticketPrice float64, maxCards int, cooldown time.Duration) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		games:  games,
		wallet: wallet,
		payer:  payer,

		ticketPrice: ticketPrice,
		maxCards:    maxCards,
		cooldown:    cooldown,
	}
}

// Current returns the running round, initializing one if missing.
func (that *GameManager) Current(ctx context.Context) (*entity.Game, error) {
	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	return game, nil
}

// PurchaseTickets debits the player and appends freshly generated
// cards. During an active round the cards land in the pending bucket
// for the next one. This operation never reads or writes the drawn
// numbers, so it is safe to interleave with DrawNext.
func (that *GameManager) PurchaseTickets(ctx context.Context, playerID string, count int) (*entity.Game, error) {
	if count <= 0 {
		return nil, apperror.ErrInvalidTicketCount
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	bucket := game.Players
	if game.IsActive() || game.IsResolved() {
		bucket = game.Pending
	}

	if len(bucket[playerID])+count > that.maxCards {
		return nil, fmt.Errorf("%w: at most %d cards per player", apperror.ErrLimitExceeded, that.maxCards)
	}

	price := float64(count) * that.ticketPrice
	if err = that.wallet.Debit(ctx, playerID, price); err != nil {
		return nil, err
	}

	cards := make([]entity.Card, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, entity.NewCard())
	}
	bucket[playerID] = append(bucket[playerID], cards...)

	game.Jackpot = float64(game.TotalCards()) * that.ticketPrice

	if err = that.games.Save(ctx, game); err != nil {
		// The debit is already durable; give the money back before
		// reporting the failure, or the player paid for nothing.
		if refundErr := that.wallet.Refund(ctx, playerID, price); refundErr != nil {
			that.logger.Error("failed to refund after save failure", "player", playerID, "amount", price, "error", refundErr)
		}

		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("tickets purchased", "player", playerID, "count", count, "game", game.ID, "jackpot", game.Jackpot)

	return game, nil
}

// StartGame moves a registration round into the active phase. Pending
// cards from the previous round are merged in first. With no players
// at all this is a reported no-op, not a failure.
func (that *GameManager) StartGame(ctx context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	if !game.IsRegistration() {
		return game, apperror.ErrGameAlreadyStarted
	}

	game.MergePending()

	if game.ActivePlayers() == 0 {
		return game, apperror.ErrNoPlayersRegistered
	}

	game.Phase = entity.PhaseActive
	game.DrawnNumbers = []int{}
	game.Winners = entity.Winners{}
	game.Jackpot = float64(game.TotalCards()) * that.ticketPrice

	if err = that.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("game started", "game", game.ID, "players", game.ActivePlayers(), "cards", game.TotalCards(), "jackpot", game.Jackpot)

	return game, nil
}

// DrawNext draws one number uniformly from the remaining pool and
// re-checks winners in the same mutation. Loading fresh state on every
// call makes a duplicate tick a harmless re-draw, never a double
// append; an exhausted pool resolves the round without drawing.
func (that *GameManager) DrawNext(ctx context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	if err = game.ConfirmActivePhase(); err != nil {
		return game, err
	}

	available := game.AvailableNumbers()
	if len(available) == 0 {
		game.Phase = entity.PhaseResolved
		game.ResolvedAt = time.Now().UTC()

		if err = that.games.Save(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to save game: %w", err)
		}

		that.logger.Info("all numbers drawn, round resolved", "game", game.ID)

		return game, nil
	}

	number := available[rand.Intn(len(available))] //nolint:gosec // game randomness, not crypto
	game.DrawnNumbers = append(game.DrawnNumbers, number)

	game.CheckWinners()
	if game.IsResolved() && game.ResolvedAt.IsZero() {
		game.ResolvedAt = time.Now().UTC()
	}

	if err = that.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("number drawn", "game", game.ID, "number", number, "drawn", len(game.DrawnNumbers))

	if game.IsResolved() {
		that.logger.Info("full card hit, round resolved", "game", game.ID, "winners", game.Winners.FullCard)
	}

	return game, nil
}

// Resolve pays the prizes for a resolved round exactly once. The
// paid-out flag guards against the scheduler and a manual trigger both
// observing the resolved phase; the ledger additionally refuses to
// credit the same win twice, so a retry after a partial failure is safe.
func (that *GameManager) Resolve(ctx context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	if !game.IsResolved() {
		return game, apperror.ErrGameNotResolved
	}

	if game.PaidOut {
		return game, apperror.ErrAlreadyResolved
	}

	if !game.HasWinners() {
		that.logger.Info("no winners this round", "game", game.ID, "jackpot", game.Jackpot)
	} else if err = that.payWinners(ctx, game); err != nil {
		return nil, err
	}

	game.PaidOut = true
	if game.ResolvedAt.IsZero() {
		game.ResolvedAt = time.Now().UTC()
	}

	if err = that.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	return game, nil
}

func (that *GameManager) payWinners(ctx context.Context, game *entity.Game) error {
	fullCardPrize := 0.0
	if n := len(game.Winners.FullCard); n > 0 {
		fullCardPrize = game.Jackpot * FullCardShare / float64(n)
	}

	fiveInRowPrize := 0.0
	if n := len(game.Winners.FiveInRow); n > 0 {
		fiveInRowPrize = game.Jackpot * FiveInRowShare / float64(n)
	}

	for _, winner := range game.Winners.FiveInRow {
		if err := that.payer.Payout(ctx, winner, game.ID, entity.CategoryFiveInRow, fiveInRowPrize); err != nil {
			return fmt.Errorf("failed to pay five-in-row winner %s: %w", winner, err)
		}
	}

	for _, winner := range game.Winners.FullCard {
		if err := that.payer.Payout(ctx, winner, game.ID, entity.CategoryFullCard, fullCardPrize); err != nil {
			return fmt.Errorf("failed to pay full-card winner %s: %w", winner, err)
		}
	}

	return nil
}

// NextGame archives a paid-out round after the cooldown and opens a
// fresh registration round. Pending purchases carry over and merge in
// when the new round starts.
func (that *GameManager) NextGame(ctx context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	if !game.IsResolved() || !game.PaidOut {
		return game, apperror.ErrGameNotResolved
	}

	if time.Since(game.ResolvedAt) < that.cooldown {
		return game, apperror.ErrCooldownActive
	}

	fresh := entity.NewGame(entity.NewGameID())
	fresh.Pending = game.Pending

	if err = that.games.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("new round opened", "game", fresh.ID, "previous", game.ID, "pending_players", len(fresh.Pending))

	return fresh, nil
}
