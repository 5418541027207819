package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvolkov/spreadbot/internal/domain"
	"github.com/mvolkov/spreadbot/internal/exchange"
)

const (
	// maxConsecutiveFailures disables one stream, not the whole exchange.
	maxConsecutiveFailures = 5
	baseBackoff            = time.Second
	maxBackoff             = 30 * time.Second
	// A stream that stayed up this long gets its failure counter reset.
	healthyStreamAge = time.Minute
)

// stream is one (connector, market) subscription with its supervision state.
type stream struct {
	connector exchange.Connector
	market    domain.MarketType
	symbols   []string

	failures int
}

// Supervisor runs every feed stream as its own long-lived task and drains
// their samples into the Board through a single channel, so no stream ever
// mutates shared state directly. Streams retry with exponential backoff and
// are disabled individually after repeated consecutive failures.
type Supervisor struct {
	board   *Board
	streams []*stream
	logger  *slog.Logger

	// Retry timing, overridable in tests.
	baseBackoff time.Duration
	maxBackoff  time.Duration
	healthyAge  time.Duration
}

// NewSupervisor creates a Supervisor feeding the given board.
func NewSupervisor(board *Board, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		board:       board,
		logger:      logger.With(slog.String("component", "feed_supervisor")),
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		healthyAge:  healthyStreamAge,
	}
}

// AddStream registers a (connector, market) subscription to supervise.
// Streams with no symbols are ignored.
func (s *Supervisor) AddStream(conn exchange.Connector, market domain.MarketType, symbols []string) {
	if len(symbols) == 0 {
		return
	}
	s.streams = append(s.streams, &stream{
		connector: conn,
		market:    market,
		symbols:   symbols,
	})
}

// Run starts all streams plus the board consumer and blocks until the
// context is cancelled. A disabled stream stops quietly; the remaining
// streams keep running.
func (s *Supervisor) Run(ctx context.Context) error {
	out := make(chan domain.PriceSample, 4096)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sample := <-out:
				s.board.Apply(sample)
			}
		}
	})

	for _, st := range s.streams {
		st := st
		g.Go(func() error {
			return s.runStream(ctx, st, out)
		})
	}

	s.logger.Info("feed supervisor started", slog.Int("streams", len(s.streams)))
	err := g.Wait()
	s.logger.Info("feed supervisor stopped")
	return err
}

// runStream keeps one subscription alive: connect, stream, back off on
// failure, give up after maxConsecutiveFailures.
func (s *Supervisor) runStream(ctx context.Context, st *stream, out chan<- domain.PriceSample) error {
	log := s.logger.With(
		slog.String("exchange", st.connector.Name()),
		slog.String("market", string(st.market)),
	)

	for {
		started := time.Now()
		err := st.connector.Stream(ctx, st.market, st.symbols, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		if time.Since(started) >= s.healthyAge {
			st.failures = 0
		}
		st.failures++

		if st.failures >= maxConsecutiveFailures {
			log.Error("stream disabled after repeated failures",
				slog.Int("failures", st.failures),
				slog.String("error", err.Error()),
			)
			// Other streams keep running; returning nil only stops this one.
			return nil
		}

		backoff := s.baseBackoff << (st.failures - 1)
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
		log.Warn("stream disconnected, backing off",
			slog.Duration("backoff", backoff),
			slog.Int("failures", st.failures),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
