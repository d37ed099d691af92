package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bingoton/bingoton-backend/internal/config"
	"github.com/bingoton/bingoton-backend/internal/notify"
	"github.com/bingoton/bingoton-backend/internal/repository"
	"github.com/bingoton/bingoton-backend/internal/repository/storage"
	"github.com/bingoton/bingoton-backend/internal/repository/storage/sqlite"
	"github.com/bingoton/bingoton-backend/internal/scheduler"
	"github.com/bingoton/bingoton-backend/internal/service"
	"github.com/bingoton/bingoton-backend/internal/usecase"
	"github.com/bingoton/bingoton-backend/transport/rest"
	"github.com/bingoton/bingoton-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application: the shared state store, the game
// engine, the draw scheduler, the notification hub and both transports.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	ledgerStorage, err := sqlite.New(conf.LedgerStoragePath)
	if err != nil {
		return fmt.Errorf("could not open ledger storage: %w", err)
	}

	defer func() {
		if err = ledgerStorage.Close(); err != nil {
			log.Error("could not close ledger storage", "error", err)
		}
	}()

	if err = ledgerStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init ledger storage: %w", err)
	}

	gameRepo := repository.NewGameRepository(logger, redisStorage.Connection)
	ledgerRepo := repository.NewLedgerRepository(ledgerStorage.Connection)
	payments := service.NewPaymentService(logger, ledgerRepo)

	gameManager := usecase.NewGameManager(
		logger,
		gameRepo,
		payments,
		payments,
		conf.Game.TicketPrice,
		conf.Game.MaxCardsPerPlayer,
		conf.Game.ResolveCooldown,
	)

	drawScheduler := scheduler.New(logger, gameManager, conf.Game.DrawInterval, conf.Game.TickBackoff)
	hub := notify.NewHub(logger, gameRepo, conf.Game.PollInterval)

	// run draw scheduler
	go func() {
		if schedErr := drawScheduler.Run(ctx); schedErr != nil {
			log.Error("scheduler stopped with error", "error", schedErr)
		}
	}()

	// run notification hub
	go func() {
		if hubErr := hub.Run(ctx); hubErr != nil {
			log.Error("notification hub stopped with error", "error", hubErr)
		}
	}()

	// run HTTP command interface
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(logger, gameManager, payments)
		if httpErr := rest.Start(ctx, handlers, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket subscriber server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, conf.Game.SendTimeout)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
