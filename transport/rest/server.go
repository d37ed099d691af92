package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Start - starts the HTTP command interface.
func Start(ctx context.Context, handlers Handlers, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.Ping)
	mux.HandleFunc("/purchase", handlers.Purchase)
	mux.HandleFunc("/status", handlers.Status)
	mux.HandleFunc("/jackpot", handlers.Jackpot)
	mux.HandleFunc("/deposit", handlers.Deposit)
	mux.HandleFunc("/withdraw", handlers.Withdraw)
	mux.HandleFunc("/balance", handlers.Balance)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
