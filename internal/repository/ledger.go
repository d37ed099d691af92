package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bingoton/bingoton-backend/internal/apperror"
)

const (
	txTypeDeposit  = "deposit"
	txTypeWithdraw = "withdraw"
	txTypeTicket   = "ticket"
	txTypeWin      = "win"
	txTypeRefund   = "refund"
)

// LedgerRepository is the funds bookkeeping side of the game: deposits,
// withdrawals, ticket debits and prize credits. Balance is always
// derived from the transaction history, never stored.
type LedgerRepository interface {
	Deposit(ctx context.Context, playerID string, amount float64) error
	Withdraw(ctx context.Context, playerID string, amount float64) error
	Debit(ctx context.Context, playerID string, amount float64) error
	Refund(ctx context.Context, playerID string, amount float64) error
	Balance(ctx context.Context, playerID string) (float64, error)
	RecordWin(ctx context.Context, playerID, gameID, category string, amount float64) (bool, error)
}

type ledgerRepository struct {
	conn *sql.DB
}

func NewLedgerRepository(conn *sql.DB) LedgerRepository {
	return &ledgerRepository{
		conn: conn,
	}
}

func (that *ledgerRepository) Deposit(ctx context.Context, playerID string, amount float64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount
	}

	return that.insert(ctx, playerID, txTypeDeposit, amount)
}

func (that *ledgerRepository) Withdraw(ctx context.Context, playerID string, amount float64) error {
	return that.spend(ctx, playerID, txTypeWithdraw, amount)
}

// Debit charges a ticket purchase against the player's balance.
func (that *ledgerRepository) Debit(ctx context.Context, playerID string, amount float64) error {
	return that.spend(ctx, playerID, txTypeTicket, amount)
}

// Refund gives a ticket debit back after the purchase itself failed.
// It is a plain credit with no balance check.
func (that *ledgerRepository) Refund(ctx context.Context, playerID string, amount float64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount
	}

	return that.insert(ctx, playerID, txTypeRefund, amount)
}

func (that *ledgerRepository) spend(ctx context.Context, playerID, txType string, amount float64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount
	}

	balance, err := that.Balance(ctx, playerID)
	if err != nil {
		return err
	}

	if balance < amount {
		return apperror.ErrInsufficientFunds
	}

	return that.insert(ctx, playerID, txType, amount)
}

func (that *ledgerRepository) Balance(ctx context.Context, playerID string) (float64, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN type IN (?, ?, ?) THEN amount ELSE -amount END), 0)
		FROM transactions WHERE player_id = ?`

	var balance float64
	err := that.conn.QueryRowContext(ctx, query, txTypeDeposit, txTypeWin, txTypeRefund, playerID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("can't read balance: %w", err)
	}

	return balance, nil
}

// RecordWin credits a prize exactly once per player, game and category.
// It returns false without crediting when the win is already recorded,
// which makes a retried resolve safe.
func (that *ledgerRepository) RecordWin(ctx context.Context, playerID, gameID, category string, amount float64) (bool, error) {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO wins (player_id, game_id, category, amount) VALUES (?, ?, ?, ?)`,
		playerID, gameID, category, amount)
	if err != nil {
		return false, fmt.Errorf("can't record win: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't read rows affected: %w", err)
	}

	if inserted == 0 {
		return false, nil
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (player_id, type, amount) VALUES (?, ?, ?)`,
		playerID, txTypeWin, amount); err != nil {
		return false, fmt.Errorf("can't credit win: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("can't commit win: %w", err)
	}

	return true, nil
}

func (that *ledgerRepository) insert(ctx context.Context, playerID, txType string, amount float64) error {
	query := `INSERT INTO transactions (player_id, type, amount) VALUES (?, ?, ?)`

	if _, err := that.conn.ExecContext(ctx, query, playerID, txType, amount); err != nil {
		return fmt.Errorf("can't save transaction: %w", err)
	}

	return nil
}
