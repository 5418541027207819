package trader

import (
	"fmt"
	"sync"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// ExecLocks is the in-flight execution set. Presence of a key means an
// execution for that (strategy, symbol, buyExchange, sellExchange) tuple is
// currently running; TryAcquire is the sole defense against duplicate
// concurrent triggers from overlapping analysis ticks. Safe for concurrent
// use.
type ExecLocks struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewExecLocks creates an empty lock set.
func NewExecLocks() *ExecLocks {
	return &ExecLocks{inFlight: make(map[string]struct{})}
}

// ExecKey builds the idempotency key for one (strategy, opportunity) pair.
func ExecKey(strategyID int64, opp domain.Opportunity) string {
	return fmt.Sprintf("%d|%s|%s|%s", strategyID, opp.Symbol, opp.BuyExchange, opp.SellExchange)
}

// TryAcquire atomically tests and inserts the key. It returns false when an
// execution for the key is already in flight.
func (l *ExecLocks) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.inFlight[key]; held {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

// Release removes the key unconditionally. Safe to call for a key that was
// never acquired.
func (l *ExecLocks) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, key)
}

// Len returns the number of executions currently in flight.
func (l *ExecLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inFlight)
}
