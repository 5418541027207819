package trader

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvolkov/spreadbot/internal/domain"
)

func TestExecKey(t *testing.T) {
	opp := domain.Opportunity{
		Symbol:       "BTC/USDT",
		BuyExchange:  "Binance",
		SellExchange: "Bybit",
	}
	assert.Equal(t, "7|BTC/USDT|Binance|Bybit", ExecKey(7, opp))

	reversed := opp
	reversed.BuyExchange, reversed.SellExchange = opp.SellExchange, opp.BuyExchange
	assert.NotEqual(t, ExecKey(7, opp), ExecKey(7, reversed))
}

func TestExecLocks(t *testing.T) {
	t.Run("second acquire fails until release", func(t *testing.T) {
		locks := NewExecLocks()
		assert.True(t, locks.TryAcquire("k"))
		assert.False(t, locks.TryAcquire("k"))
		locks.Release("k")
		assert.True(t, locks.TryAcquire("k"))
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		locks := NewExecLocks()
		assert.True(t, locks.TryAcquire("a"))
		assert.True(t, locks.TryAcquire("b"))
		assert.Equal(t, 2, locks.Len())
	})

	t.Run("release of unheld key is a no-op", func(t *testing.T) {
		locks := NewExecLocks()
		locks.Release("missing")
		assert.Equal(t, 0, locks.Len())
	})

	t.Run("concurrent acquires grant exactly one winner", func(t *testing.T) {
		locks := NewExecLocks()
		var wins atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if locks.TryAcquire("contested") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(1), wins.Load())
	})
}
