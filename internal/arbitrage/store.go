package arbitrage

import (
	"sort"
	"sync"
	"time"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// Store is the authoritative registry of currently live opportunities.
// Repeated detections of the same directional spread refresh the existing
// entry in place; entries not re-confirmed within the TTL are evicted.
// Merge and eviction are serialized under the mutex; reads are served from a
// snapshot taken inside a short critical section.
type Store struct {
	ttl time.Duration

	mu   sync.Mutex
	opps map[string]domain.Opportunity

	// Running detection counters, reported by the stats endpoint.
	totalFound  int64
	symbolsSeen map[string]struct{}
	byExchange  map[string]int64
	startedAt   time.Time
}

// NewStore creates a Store that evicts opportunities not re-detected within
// ttl. A non-positive ttl is a programmer error and panics.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		panic("arbitrage: opportunity TTL must be positive")
	}
	return &Store{
		ttl:         ttl,
		opps:        make(map[string]domain.Opportunity),
		symbolsSeen: make(map[string]struct{}),
		byExchange:  make(map[string]int64),
		startedAt:   time.Now(),
	}
}

// Merge folds one analysis batch into the store and evicts expired entries.
// Known opportunities keep their identity and FirstSeenAt while prices,
// profit and LastSeenAt are refreshed; unknown ones are inserted and returned
// so downstream triggers can tell fresh spreads from refreshed ones. The
// batch is applied atomically: readers never observe a partially-merged tick.
func (s *Store) Merge(batch []domain.Opportunity, now time.Time) []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(now)

	var fresh []domain.Opportunity
	for _, opp := range batch {
		key := opp.Key()
		if existing, ok := s.opps[key]; ok {
			existing.BuyPrice = opp.BuyPrice
			existing.SellPrice = opp.SellPrice
			existing.ProfitPercentage = opp.ProfitPercentage
			existing.LastSeenAt = now
			s.opps[key] = existing
			continue
		}

		opp.ID = key
		opp.FirstSeenAt = now
		opp.LastSeenAt = now
		s.opps[key] = opp
		fresh = append(fresh, opp)

		s.totalFound++
		s.symbolsSeen[opp.Symbol] = struct{}{}
		s.byExchange[opp.BuyExchange]++
		s.byExchange[opp.SellExchange]++
	}

	return fresh
}

// EvictExpired removes every entry whose last confirmation is older than the
// TTL. Merge already does this on every cycle; this exists for callers that
// read without merging.
func (s *Store) EvictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
}

func (s *Store) evictLocked(now time.Time) {
	for key, opp := range s.opps {
		if now.Sub(opp.LastSeenAt) > s.ttl {
			delete(s.opps, key)
		}
	}
}

// ListActive returns a snapshot of live opportunities for one market type
// with at least minProfit percent, sorted by profit descending and last-seen
// descending as tie-break. The returned slice is owned by the caller.
func (s *Store) ListActive(market domain.MarketType, minProfit float64) []domain.Opportunity {
	s.mu.Lock()
	out := make([]domain.Opportunity, 0, len(s.opps))
	for _, opp := range s.opps {
		if opp.MarketType != market || opp.ProfitPercentage < minProfit {
			continue
		}
		out = append(out, opp)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfitPercentage != out[j].ProfitPercentage {
			return out[i].ProfitPercentage > out[j].ProfitPercentage
		}
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out
}

// ListAll returns every live opportunity across market types, sorted the same
// way as ListActive.
func (s *Store) ListAll() []domain.Opportunity {
	s.mu.Lock()
	out := make([]domain.Opportunity, 0, len(s.opps))
	for _, opp := range s.opps {
		out = append(out, opp)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfitPercentage != out[j].ProfitPercentage {
			return out[i].ProfitPercentage > out[j].ProfitPercentage
		}
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out
}

// Stats is a point-in-time summary of detection activity.
type Stats struct {
	Uptime             time.Duration
	TotalOpportunities int64
	ActiveCount        int
	UniqueSymbols      int
	ByExchange         map[string]int64
}

// Stats returns detection counters since the store was created.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byExchange := make(map[string]int64, len(s.byExchange))
	for k, v := range s.byExchange {
		byExchange[k] = v
	}
	return Stats{
		Uptime:             time.Since(s.startedAt),
		TotalOpportunities: s.totalFound,
		ActiveCount:        len(s.opps),
		UniqueSymbols:      len(s.symbolsSeen),
		ByExchange:         byExchange,
	}
}
