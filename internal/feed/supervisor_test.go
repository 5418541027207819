package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolkov/spreadbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedConnector runs a per-call script so tests can fail, block, or
// deliver samples on demand.
type scriptedConnector struct {
	name string
	run  func(ctx context.Context, call int, out chan<- domain.PriceSample) error

	mu    sync.Mutex
	calls int
}

func (c *scriptedConnector) Name() string { return c.name }

func (c *scriptedConnector) Symbols(context.Context, domain.MarketType) ([]string, error) {
	return []string{"BTC/USDT"}, nil
}

func (c *scriptedConnector) Stream(ctx context.Context, _ domain.MarketType, _ []string, out chan<- domain.PriceSample) error {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()
	return c.run(ctx, call, out)
}

func (c *scriptedConnector) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestSupervisor(board *Board) *Supervisor {
	s := NewSupervisor(board, testLogger())
	s.baseBackoff = time.Millisecond
	s.maxBackoff = 4 * time.Millisecond
	s.healthyAge = 30 * time.Millisecond
	return s
}

func TestSupervisor(t *testing.T) {
	t.Run("failing stream is disabled alone, sibling keeps delivering", func(t *testing.T) {
		board := NewBoard(30 * time.Second)
		s := newTestSupervisor(board)

		faulty := &scriptedConnector{
			name: "Bybit",
			run: func(context.Context, int, chan<- domain.PriceSample) error {
				return errors.New("dial refused")
			},
		}
		healthy := &scriptedConnector{
			name: "OKX",
			run: func(ctx context.Context, _ int, out chan<- domain.PriceSample) error {
				ticker := time.NewTicker(2 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-ticker.C:
						out <- domain.PriceSample{
							Symbol:     "BTC/USDT",
							Exchange:   "OKX",
							Price:      100,
							MarketType: domain.MarketSpot,
							ObservedAt: time.Now(),
						}
					}
				}
			},
		}
		s.AddStream(faulty, domain.MarketSpot, []string{"BTC/USDT"})
		s.AddStream(healthy, domain.MarketSpot, []string{"BTC/USDT"})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		require.Eventually(t, func() bool {
			if faulty.callCount() != maxConsecutiveFailures {
				return false
			}
			_, ok := board.Price("BTC/USDT", "OKX", domain.MarketSpot)
			return ok
		}, 2*time.Second, 2*time.Millisecond)

		// The disabled stream is never reconnected.
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, maxConsecutiveFailures, faulty.callCount())

		price, ok := board.Price("BTC/USDT", "OKX", domain.MarketSpot)
		require.True(t, ok)
		assert.Equal(t, 100.0, price)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("long-lived stream resets its failure counter", func(t *testing.T) {
		board := NewBoard(30 * time.Second)
		s := newTestSupervisor(board)

		// Calls 1-4 fail fast, call 5 stays up past the healthy age before
		// failing, so the counter restarts and the stream survives four more
		// fast failures before being disabled on the ninth call.
		conn := &scriptedConnector{
			name: "Bybit",
			run: func(ctx context.Context, call int, _ chan<- domain.PriceSample) error {
				if call == 5 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(40 * time.Millisecond):
					}
				}
				return errors.New("stream reset")
			},
		}

		st := &stream{
			connector: conn,
			market:    domain.MarketSpot,
			symbols:   []string{"BTC/USDT"},
		}
		out := make(chan domain.PriceSample, 16)

		err := s.runStream(context.Background(), st, out)
		require.NoError(t, err)
		assert.Equal(t, 9, conn.callCount())
	})

	t.Run("streams without symbols are not registered", func(t *testing.T) {
		s := newTestSupervisor(NewBoard(30 * time.Second))
		s.AddStream(&scriptedConnector{name: "Bybit"}, domain.MarketSpot, nil)
		assert.Empty(t, s.streams)
	})
}
