package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bingoton/bingoton-backend/internal/apperror"
	"github.com/bingoton/bingoton-backend/internal/entity"
	"github.com/bingoton/bingoton-backend/internal/notify"
)

type gameEngine interface {
	Current(ctx context.Context) (*entity.Game, error)
	PurchaseTickets(ctx context.Context, playerID string, count int) (*entity.Game, error)
}

type paymentService interface {
	Deposit(ctx context.Context, playerID string, amount float64) error
	Withdraw(ctx context.Context, playerID string, amount float64) error
	Balance(ctx context.Context, playerID string) (float64, error)
}

type Handlers interface {
	Ping(w http.ResponseWriter, _ *http.Request)

	Purchase(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Jackpot(w http.ResponseWriter, r *http.Request)

	Deposit(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	Balance(w http.ResponseWriter, r *http.Request)
}

type handlers struct {
	logger   *slog.Logger
	engine   gameEngine
	payments paymentService
}

func NewHandlers(logger *slog.Logger, engine gameEngine, payments paymentService) Handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		engine:   engine,
		payments: payments,
	}
}

type purchaseRequest struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

func (that *handlers) Purchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if req.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	game, err := that.engine.PurchaseTickets(r.Context(), req.PlayerID, req.Count)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, map[string]any{
		"status":  "ok",
		"game_id": game.ID,
		"phase":   game.Phase,
		"jackpot": game.Jackpot,
	})
}

func (that *handlers) Status(w http.ResponseWriter, r *http.Request) {
	game, err := that.engine.Current(r.Context())
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, notify.Project(game))
}

func (that *handlers) Jackpot(w http.ResponseWriter, r *http.Request) {
	game, err := that.engine.Current(r.Context())
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, map[string]any{
		"game_id":       game.ID,
		"jackpot":       game.Jackpot,
		"drawn_numbers": game.DrawnNumbers,
	})
}

type fundsRequest struct {
	PlayerID string  `json:"player_id"`
	Amount   float64 `json:"amount"`
}

func (that *handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	that.handleFunds(w, r, that.payments.Deposit)
}

func (that *handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	that.handleFunds(w, r, that.payments.Withdraw)
}

func (that *handlers) handleFunds(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, float64) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req fundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if req.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	if err := apply(r.Context(), req.PlayerID, req.Amount); err != nil {
		that.writeError(w, err)
		return
	}

	balance, err := that.payments.Balance(r.Context(), req.PlayerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, map[string]any{"status": "ok", "balance": balance})
}

func (that *handlers) Balance(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	balance, err := that.payments.Balance(r.Context(), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, map[string]any{"player_id": playerID, "balance": balance})
}

// writeError maps user-input failures to short status strings and
// everything else to a logged 500; internal details never leak out.
func (that *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrLimitExceeded),
		errors.Is(err, apperror.ErrInvalidTicketCount),
		errors.Is(err, apperror.ErrInvalidAmount),
		errors.Is(err, apperror.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		that.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
