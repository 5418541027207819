package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

var _ domain.TradeStore = (*TradeStore)(nil)

// NewTradeStore creates a new TradeStore backed by the given pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Record persists a trade execution. Replays of the same execution ID are
// silently skipped via ON CONFLICT DO NOTHING.
func (s *TradeStore) Record(ctx context.Context, exec domain.TradeExecution) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trade_history (
			id, user_id, strategy_id, symbol, buy_exchange, sell_exchange,
			quantity, buy_price, sell_price, profit, profit_percentage,
			status, fail_reason, buy_order_id, sell_order_id, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		) ON CONFLICT (id) DO NOTHING`,
		exec.ID, exec.UserID, exec.StrategyID, exec.Symbol,
		exec.BuyExchange, exec.SellExchange,
		exec.Quantity, exec.BuyPrice, exec.SellPrice,
		exec.Profit, exec.ProfitPercentage,
		string(exec.Status), exec.FailReason,
		exec.BuyOrderID, exec.SellOrderID, exec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record trade %s: %w", exec.ID, err)
	}
	return nil
}

// ListByUser returns the most recent trade executions for a user, newest
// first, capped at limit rows.
func (s *TradeStore) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.TradeExecution, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, strategy_id, symbol, buy_exchange, sell_exchange,
			quantity, buy_price, sell_price, profit, profit_percentage,
			status, COALESCE(fail_reason, ''),
			COALESCE(buy_order_id, ''), COALESCE(sell_order_id, ''), executed_at
		 FROM trade_history
		 WHERE user_id = $1
		 ORDER BY executed_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for user %d: %w", userID, err)
	}
	defer rows.Close()

	var execs []domain.TradeExecution
	for rows.Next() {
		var e domain.TradeExecution
		var status string
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.StrategyID, &e.Symbol,
			&e.BuyExchange, &e.SellExchange,
			&e.Quantity, &e.BuyPrice, &e.SellPrice,
			&e.Profit, &e.ProfitPercentage,
			&status, &e.FailReason,
			&e.BuyOrderID, &e.SellOrderID, &e.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trades for user %d: %w", userID, err)
		}
		e.Status = domain.TradeStatus(status)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: scan trades for user %d: %w", userID, err)
	}
	return execs, nil
}
