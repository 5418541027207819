package trader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/domain"
)

type stubStrategyStore struct {
	list []domain.Strategy
	err  error
}

func (s *stubStrategyStore) ListAutoTrade(context.Context) ([]domain.Strategy, error) {
	return s.list, s.err
}

func (s *stubStrategyStore) ListByUser(context.Context, int64) ([]domain.Strategy, error) {
	return s.list, s.err
}

func (s *stubStrategyStore) Create(context.Context, *domain.Strategy) error { return s.err }
func (s *stubStrategyStore) Update(context.Context, domain.Strategy) error  { return s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTraderReload(t *testing.T) {
	ctx := context.Background()

	t.Run("initial load populates cache", func(t *testing.T) {
		store := &stubStrategyStore{list: []domain.Strategy{baseStrategy()}}
		tr := New(nil, store, time.Minute, discardLogger())

		tr.reloadStrategies(ctx)
		require.Len(t, tr.Strategies(), 1)
	})

	t.Run("reload error keeps previous snapshot", func(t *testing.T) {
		store := &stubStrategyStore{list: []domain.Strategy{baseStrategy()}}
		tr := New(nil, store, time.Minute, discardLogger())
		tr.reloadStrategies(ctx)

		store.err = errors.New("connection reset")
		tr.reloadStrategies(ctx)

		assert.Len(t, tr.Strategies(), 1, "stale snapshot beats no snapshot")
	})

	t.Run("returned snapshot is a copy", func(t *testing.T) {
		store := &stubStrategyStore{list: []domain.Strategy{baseStrategy()}}
		tr := New(nil, store, time.Minute, discardLogger())
		tr.reloadStrategies(ctx)

		snap := tr.Strategies()
		snap[0].Name = "mutated"
		assert.Equal(t, "btc-spread", tr.Strategies()[0].Name)
	})
}

func TestTraderProcessOpportunity(t *testing.T) {
	ctx := context.Background()

	t.Run("executes every matching strategy", func(t *testing.T) {
		s2 := baseStrategy()
		s2.ID = 2
		store := &stubStrategyStore{list: []domain.Strategy{baseStrategy(), s2}}
		trades := &recordingTradeStore{}
		exec := newTestExecutor(
			&stubCredentialStore{},
			trades,
			&stubAdapter{name: "Binance"},
			&stubAdapter{name: "Bybit"},
		)
		tr := New(exec, store, time.Minute, discardLogger())
		tr.reloadStrategies(ctx)

		tr.ProcessOpportunity(ctx, testOpportunity())
		assert.Len(t, trades.all(), 2)
	})

	t.Run("non-matching opportunity is ignored", func(t *testing.T) {
		store := &stubStrategyStore{list: []domain.Strategy{baseStrategy()}}
		trades := &recordingTradeStore{}
		exec := newTestExecutor(&stubCredentialStore{}, trades)
		tr := New(exec, store, time.Minute, discardLogger())
		tr.reloadStrategies(ctx)

		opp := testOpportunity()
		opp.ProfitPercentage = 0.1 // below the strategy floor
		tr.ProcessOpportunity(ctx, opp)
		assert.Empty(t, trades.all())
	})
}
