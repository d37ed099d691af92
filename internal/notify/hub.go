package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bingoton/bingoton-backend/internal/entity"
)

type gameLoader interface {
	Load(ctx context.Context) (*entity.Game, error)
}

// Sink is one subscriber connection. Send must bound its own write
// time so a hung subscriber cannot stall the broadcast to the rest.
type Sink interface {
	Send(payload []byte) error
	Close() error
}

// Hub polls the state store, projects it into a snapshot and pushes
// the serialized snapshot to every subscriber - but only when the
// payload actually changed since the last broadcast. A subscriber
// whose send fails is dropped, not retried; the connection is presumed
// dead.
type Hub struct {
	logger *slog.Logger
	games  gameLoader

	pollInterval time.Duration

	mu          sync.Mutex
	subscribers map[Sink]struct{}
	lastPayload []byte
}

func NewHub(logger *slog.Logger, games gameLoader, pollInterval time.Duration) *Hub {
	return &Hub{
		logger: logger.With("component", "notification_hub"),

		games: games,

		pollInterval: pollInterval,
		subscribers:  make(map[Sink]struct{}),
	}
}

func (that *Hub) Subscribe(sink Sink) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.subscribers[sink] = struct{}{}
	that.logger.Info("subscriber added", "total", len(that.subscribers))
}

func (that *Hub) Unsubscribe(sink Sink) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.subscribers[sink]; !ok {
		return
	}

	delete(that.subscribers, sink)
	that.logger.Info("subscriber removed", "total", len(that.subscribers))
}

func (that *Hub) Subscribers() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subscribers)
}

// Run polls until the context is cancelled. A failed poll is logged
// and retried on the next tick; it never stops the loop.
func (that *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(that.pollInterval)
	defer ticker.Stop()

	that.logger.Info("notification hub started", "poll_interval", that.pollInterval)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("notification hub stopped")
			return nil
		case <-ticker.C:
			if err := that.Poll(ctx); err != nil {
				that.logger.Error("poll failed", "error", err)
			}
		}
	}
}

// Poll performs one load-project-diff-broadcast cycle.
func (that *Hub) Poll(ctx context.Context) error {
	game, err := that.games.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}

	payload, err := json.Marshal(Project(game))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if bytes.Equal(payload, that.lastPayload) {
		return nil
	}
	that.lastPayload = payload

	for sink := range that.subscribers {
		if err := sink.Send(payload); err != nil {
			that.logger.Warn("send failed, dropping subscriber", "error", err)
			delete(that.subscribers, sink)

			if closeErr := sink.Close(); closeErr != nil {
				that.logger.Debug("failed to close dropped subscriber", "error", closeErr)
			}
		}
	}

	return nil
}
