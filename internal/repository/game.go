package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bingoton/bingoton-backend/internal/entity"
)

// currentGameKey is the single slot holding the running round. Every
// writer overwrites the whole value; the store never locks it.
const currentGameKey = "game:current"

type GameRepository interface {
	Load(ctx context.Context) (*entity.Game, error)
	Save(ctx context.Context, game *entity.Game) error
}

type dbGame struct {
	logger *slog.Logger
	client *redis.Client
}

func NewGameRepository(logger *slog.Logger, client *redis.Client) GameRepository {
	return &dbGame{
		logger: logger.With("component", "game_repository"),
		client: client,
	}
}

// Load reads the current round. A missing slot initializes a fresh
// registration-phase game; a malformed or invariant-breaking record is
// logged at error severity and replaced the same way instead of being
// propagated as a fatal failure.
func (that *dbGame) Load(ctx context.Context) (*entity.Game, error) {
	response, err := that.client.Get(ctx, currentGameKey).Result()

	if errors.Is(err, redis.Nil) {
		return that.reset(ctx, "no current game, initializing a fresh one", nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get current game: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return that.reset(ctx, "corrupted game state, resetting", err)
	}

	if game.Players == nil {
		game.Players = make(map[string][]entity.Card)
	}
	if game.Pending == nil {
		game.Pending = make(map[string][]entity.Card)
	}
	if game.DrawnNumbers == nil {
		game.DrawnNumbers = []int{}
	}

	if err = game.Validate(); err != nil {
		return that.reset(ctx, "invalid game state, resetting", err)
	}

	return &game, nil
}

func (that *dbGame) Save(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, currentGameKey, gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set current game: %w", err)
	}

	return nil
}

func (that *dbGame) reset(ctx context.Context, reason string, cause error) (*entity.Game, error) {
	if cause != nil {
		that.logger.Error(reason, "error", cause)
	} else {
		that.logger.Info(reason)
	}

	fresh := entity.NewGame(entity.NewGameID())
	if err := that.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to save fresh game: %w", err)
	}

	return fresh, nil
}
