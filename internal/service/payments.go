package service

import (
	"context"
	"fmt"
	"log/slog"
)

type ledgerRepo interface {
	Deposit(ctx context.Context, playerID string, amount float64) error
	Withdraw(ctx context.Context, playerID string, amount float64) error
	Debit(ctx context.Context, playerID string, amount float64) error
	Refund(ctx context.Context, playerID string, amount float64) error
	Balance(ctx context.Context, playerID string) (float64, error)
	RecordWin(ctx context.Context, playerID, gameID, category string, amount float64) (bool, error)
}

// PaymentService fronts the funds ledger for the game engine and the
// command interface: ticket debits, prize payouts, deposits and
// withdrawals.
type PaymentService struct {
	logger *slog.Logger
	ledger ledgerRepo
}

func NewPaymentService(logger *slog.Logger, ledger ledgerRepo) *PaymentService {
	return &PaymentService{
		logger: logger.With("component", "payments"),
		ledger: ledger,
	}
}

// Debit charges a ticket purchase. A failed debit means no purchase.
func (that *PaymentService) Debit(ctx context.Context, playerID string, amount float64) error {
	if err := that.ledger.Debit(ctx, playerID, amount); err != nil {
		return fmt.Errorf("failed to debit player %s: %w", playerID, err)
	}

	return nil
}

// Refund credits a ticket debit back after the purchase failed to
// take effect.
func (that *PaymentService) Refund(ctx context.Context, playerID string, amount float64) error {
	if err := that.ledger.Refund(ctx, playerID, amount); err != nil {
		return fmt.Errorf("failed to refund player %s: %w", playerID, err)
	}

	that.logger.Info("ticket purchase refunded", "player", playerID, "amount", amount)

	return nil
}

// Payout credits a prize. The ledger records a win at most once per
// player, game and category, so calling this again during a retried
// resolve is harmless.
func (that *PaymentService) Payout(ctx context.Context, playerID, gameID, category string, amount float64) error {
	credited, err := that.ledger.RecordWin(ctx, playerID, gameID, category, amount)
	if err != nil {
		return fmt.Errorf("failed to pay out to player %s: %w", playerID, err)
	}

	if !credited {
		that.logger.Info("win already paid, skipping", "player", playerID, "game", gameID, "category", category)
		return nil
	}

	that.logger.Info("prize paid", "player", playerID, "game", gameID, "category", category, "amount", amount)

	return nil
}

func (that *PaymentService) Deposit(ctx context.Context, playerID string, amount float64) error {
	if err := that.ledger.Deposit(ctx, playerID, amount); err != nil {
		return fmt.Errorf("failed to deposit for player %s: %w", playerID, err)
	}

	return nil
}

func (that *PaymentService) Withdraw(ctx context.Context, playerID string, amount float64) error {
	if err := that.ledger.Withdraw(ctx, playerID, amount); err != nil {
		return fmt.Errorf("failed to withdraw for player %s: %w", playerID, err)
	}

	return nil
}

func (that *PaymentService) Balance(ctx context.Context, playerID string) (float64, error) {
	balance, err := that.ledger.Balance(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for player %s: %w", playerID, err)
	}

	return balance, nil
}
