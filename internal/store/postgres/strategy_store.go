package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// StrategyStore implements domain.StrategyStore using PostgreSQL.
type StrategyStore struct {
	pool *pgxpool.Pool
}

var _ domain.StrategyStore = (*StrategyStore)(nil)

// NewStrategyStore creates a new StrategyStore backed by the given pool.
func NewStrategyStore(pool *pgxpool.Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

const strategySelectCols = `id, user_id, name, exchanges, min_profit_percentage,
	max_trade_amount, trading_pairs, auto_trade_enabled, is_active,
	created_at, updated_at`

func scanStrategyRows(rows pgx.Rows) ([]domain.Strategy, error) {
	var strategies []domain.Strategy
	for rows.Next() {
		var s domain.Strategy
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Exchanges, &s.MinProfitPercentage,
			&s.MaxTradeAmount, &s.TradingPairs, &s.AutoTradeEnabled, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, rows.Err()
}

// ListAutoTrade returns all active strategies with auto-trading enabled.
func (s *StrategyStore) ListAutoTrade(ctx context.Context) ([]domain.Strategy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+strategySelectCols+`
		 FROM trading_strategies
		 WHERE auto_trade_enabled AND is_active
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list auto-trade strategies: %w", err)
	}
	defer rows.Close()

	strategies, err := scanStrategyRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan auto-trade strategies: %w", err)
	}
	return strategies, nil
}

// ListByUser returns all strategies belonging to the given user.
func (s *StrategyStore) ListByUser(ctx context.Context, userID int64) ([]domain.Strategy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+strategySelectCols+`
		 FROM trading_strategies
		 WHERE user_id = $1
		 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list strategies for user %d: %w", userID, err)
	}
	defer rows.Close()

	strategies, err := scanStrategyRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan strategies for user %d: %w", userID, err)
	}
	return strategies, nil
}

// Create inserts a new strategy and fills in its generated ID and timestamps.
func (s *StrategyStore) Create(ctx context.Context, strategy *domain.Strategy) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO trading_strategies (
			user_id, name, exchanges, min_profit_percentage,
			max_trade_amount, trading_pairs, auto_trade_enabled, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		strategy.UserID, strategy.Name, strategy.Exchanges, strategy.MinProfitPercentage,
		strategy.MaxTradeAmount, strategy.TradingPairs, strategy.AutoTradeEnabled,
		strategy.IsActive, now,
	).Scan(&strategy.ID)
	if err != nil {
		return fmt.Errorf("postgres: create strategy: %w", err)
	}
	strategy.CreatedAt = now
	strategy.UpdatedAt = now
	return nil
}

// Update replaces an existing strategy. Returns domain.ErrNotFound if no
// row matches the strategy ID.
func (s *StrategyStore) Update(ctx context.Context, strategy domain.Strategy) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trading_strategies SET
			name = $2, exchanges = $3, min_profit_percentage = $4,
			max_trade_amount = $5, trading_pairs = $6,
			auto_trade_enabled = $7, is_active = $8, updated_at = NOW()
		 WHERE id = $1`,
		strategy.ID, strategy.Name, strategy.Exchanges, strategy.MinProfitPercentage,
		strategy.MaxTradeAmount, strategy.TradingPairs, strategy.AutoTradeEnabled,
		strategy.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: update strategy %d: %w", strategy.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update strategy %d: %w", strategy.ID, domain.ErrNotFound)
	}
	return nil
}
