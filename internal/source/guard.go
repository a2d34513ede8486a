package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

// Guard protects one upstream: a ticker spaces outbound calls and a circuit
// breaker short-circuits them after repeated failures. Suggest and Measure of
// the same upstream share one Guard. The per-call timeout starts once a rate
// slot is granted, so time spent queueing is bounded only by the caller.
type Guard struct {
	name        string
	callTimeout time.Duration
	breaker     *util.CircuitBreaker
	ticker      *time.Ticker
	closed      chan struct{}
	closeOnce   sync.Once
	logger      *zap.Logger
}

// NewGuard allows requestsPerMinute calls; zero or less disables spacing.
// callTimeout bounds each call after its slot; zero or less leaves it to ctx.
func NewGuard(name string, requestsPerMinute int, callTimeout time.Duration, logger *zap.Logger) *Guard {
	g := &Guard{
		name:        name,
		callTimeout: callTimeout,
		breaker: util.NewCircuitBreaker(
			name,
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		closed:      make(chan struct{}),
		logger:      logger,
	}
	if requestsPerMinute > 0 {
		g.ticker = time.NewTicker(time.Minute / time.Duration(requestsPerMinute))
	}
	return g
}

// Close stops the ticker and fails pending waiters.
func (g *Guard) Close() {
	g.closeOnce.Do(func() {
		if g.ticker != nil {
			g.ticker.Stop()
		}
		close(g.closed)
	})
}

func (g *Guard) Status() util.CircuitBreakerStatus {
	return g.breaker.GetStatus()
}

// do runs call if the breaker admits it, after waiting for a rate slot.
func (g *Guard) do(ctx context.Context, op, keyword string, call func(ctx context.Context) error) error {
	if !g.breaker.CanExecute() {
		return errors.NewSourceUnavailable(g.name, op, keyword, fmt.Errorf("circuit open"))
	}

	if g.ticker != nil {
		select {
		case <-ctx.Done():
			g.breaker.Release()
			return errors.NewSourceUnavailable(g.name, op, keyword, ctx.Err())
		case <-g.closed:
			g.breaker.Release()
			return errors.NewSourceUnavailable(g.name, op, keyword, fmt.Errorf("guard closed"))
		case <-g.ticker.C:
		}
	}

	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	err := call(callCtx)
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// the caller gave up; that says nothing about the upstream
		g.breaker.Release()
	default:
		var status *StatusError
		if errors.As(err, &status) && status.RateLimited() {
			g.logger.Warn("Source rate limited",
				zap.String("source", g.name),
				zap.Int("status", status.Code))
			g.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
		} else {
			g.breaker.RecordFailure(0)
		}
	}
	return err
}

// Suggester wraps s with this guard.
func (g *Guard) Suggester(s Suggester) Suggester {
	return &guardedSuggester{inner: s, guard: g}
}

// Measurer wraps m with this guard.
func (g *Guard) Measurer(m Measurer) Measurer {
	return &guardedMeasurer{inner: m, guard: g}
}

type guardedSuggester struct {
	inner Suggester
	guard *Guard
}

func (s *guardedSuggester) Name() string { return s.inner.Name() }

func (s *guardedSuggester) Kind() Kind { return KindOf(s.inner) }

func (s *guardedSuggester) Paced() bool { return true }

func (s *guardedSuggester) Suggest(ctx context.Context, seed string) ([]string, error) {
	var out []string
	err := s.guard.do(ctx, "suggest", seed, func(ctx context.Context) error {
		var err error
		out, err = s.inner.Suggest(ctx, seed)
		return err
	})
	return out, err
}

type guardedMeasurer struct {
	inner Measurer
	guard *Guard
}

func (m *guardedMeasurer) Name() string { return m.inner.Name() }

func (m *guardedMeasurer) Kind() Kind { return KindOf(m.inner) }

func (m *guardedMeasurer) Paced() bool { return true }

func (m *guardedMeasurer) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	var out domain.SignalSet
	err := m.guard.do(ctx, "measure", keyword, func(ctx context.Context) error {
		var err error
		out, err = m.inner.Measure(ctx, keyword)
		return err
	})
	return out, err
}
