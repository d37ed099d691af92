package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bingoton/bingoton-backend/internal/apperror"
	"github.com/bingoton/bingoton-backend/internal/entity"
)

type gameEngine interface {
	Current(ctx context.Context) (*entity.Game, error)
	StartGame(ctx context.Context) (*entity.Game, error)
	DrawNext(ctx context.Context) (*entity.Game, error)
	Resolve(ctx context.Context) (*entity.Game, error)
	NextGame(ctx context.Context) (*entity.Game, error)
}

// Scheduler is the timed actor that moves the round along: it starts
// registration rounds, draws numbers, pays out resolved rounds and
// opens the next one after the cooldown. A failed tick is logged and
// retried after a backoff; nothing short of context cancellation stops
// the loop.
type Scheduler struct {
	logger *slog.Logger
	engine gameEngine

	drawInterval time.Duration
	backoff      time.Duration
}

func New(logger *slog.Logger, engine gameEngine, drawInterval, backoff time.Duration) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "scheduler"),

		engine: engine,

		drawInterval: drawInterval,
		backoff:      backoff,
	}
}

func (that *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(that.drawInterval)
	defer ticker.Stop()

	that.logger.Info("scheduler started", "draw_interval", that.drawInterval)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if err := that.Tick(ctx); err != nil {
				that.logger.Error("tick failed, backing off", "error", err)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(that.backoff):
				}
			}
		}
	}
}

// Tick loads the current round and advances it one step according to
// its phase. Every call reloads state, so a tick racing a command
// interface write at worst repeats a safely re-invokable operation.
func (that *Scheduler) Tick(ctx context.Context) error {
	game, err := that.engine.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current game: %w", err)
	}

	switch game.Phase {
	case entity.PhaseRegistration:
		return that.startRound(ctx)
	case entity.PhaseActive:
		if _, err = that.engine.DrawNext(ctx); err != nil {
			return that.ignoreNoOp(err, "draw skipped")
		}
		return nil
	case entity.PhaseResolved:
		return that.finishRound(ctx, game)
	default:
		return fmt.Errorf("unknown phase %q", game.Phase)
	}
}

func (that *Scheduler) startRound(ctx context.Context) error {
	_, err := that.engine.StartGame(ctx)

	if errors.Is(err, apperror.ErrNoPlayersRegistered) {
		that.logger.Info("no players registered, waiting for purchases")
		return nil
	}

	if err != nil {
		return that.ignoreNoOp(err, "start skipped")
	}

	return nil
}

func (that *Scheduler) finishRound(ctx context.Context, game *entity.Game) error {
	if !game.PaidOut {
		if _, err := that.engine.Resolve(ctx); err != nil {
			return that.ignoreNoOp(err, "resolve skipped")
		}
		return nil
	}

	_, err := that.engine.NextGame(ctx)

	if errors.Is(err, apperror.ErrCooldownActive) {
		that.logger.Debug("cooldown active, waiting")
		return nil
	}

	if err != nil {
		return that.ignoreNoOp(err, "next round skipped")
	}

	return nil
}

// ignoreNoOp downgrades the designed-to-be-reinvokable statuses to a
// log line: another writer simply moved the round along between our
// load and the operation's own fresh load.
func (that *Scheduler) ignoreNoOp(err error, message string) error {
	switch {
	case errors.Is(err, apperror.ErrGameNotActive),
		errors.Is(err, apperror.ErrGameAlreadyStarted),
		errors.Is(err, apperror.ErrGameNotResolved),
		errors.Is(err, apperror.ErrAlreadyResolved):
		that.logger.Info(message, "reason", err)
		return nil
	default:
		return err
	}
}
