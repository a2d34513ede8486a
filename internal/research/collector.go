package research

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type CollectorConfig struct {
	Concurrency    int
	Attempts       int
	CallTimeout    time.Duration
	KeywordTimeout time.Duration
	BaseDelay      time.Duration
	Jitter         time.Duration
}

func (c CollectorConfig) withDefaults() CollectorConfig {
	limits := constants.ResearchLimits
	if c.Concurrency <= 0 {
		c.Concurrency = limits.Concurrency
	}
	if c.Attempts <= 0 {
		c.Attempts = limits.Attempts
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = limits.CallTimeout
	}
	if c.KeywordTimeout <= 0 {
		c.KeywordTimeout = limits.KeywordTimeout
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = constants.RetryConfig.BaseDelay
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// Collector gathers the signals of a keyword from every measurer.
type Collector struct {
	measurers []source.Measurer
	cfg       CollectorConfig
	logger    *zap.Logger
}

// NewCollector orders measurers by source.Priority; that order decides which
// value wins when two measurers report the same signal.
func NewCollector(measurers []source.Measurer, cfg CollectorConfig, logger *zap.Logger) *Collector {
	return &Collector{
		measurers: source.SortMeasurers(measurers),
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Collect queries all measurers concurrently within the keyword budget and
// merges their answers: the first non-missing value per signal wins and is
// credited to the kind of its measurer. Sources that fail or time out
// contribute nothing. Collect never fails.
func (c *Collector) Collect(ctx context.Context, keyword domain.Keyword) domain.Measurement {
	merged := domain.NewMeasurement()
	if len(c.measurers) == 0 {
		return merged
	}

	kctx, cancel := context.WithTimeout(ctx, c.cfg.KeywordTimeout)
	defer cancel()

	sets := make([]domain.SignalSet, len(c.measurers))
	setsMu := sync.Mutex{}
	p := pool.New().WithMaxGoroutines(len(c.measurers))
	for idx, m := range c.measurers {
		idx, m := idx, m
		p.Go(func() {
			result := c.measure(kctx, m, keyword)
			setsMu.Lock()
			sets[idx] = result
			setsMu.Unlock()
		})
	}
	p.Wait()

	for idx, set := range sets {
		merged.Merge(set, string(source.KindOf(c.measurers[idx])))
	}
	return merged
}

// CollectAll runs Collect for every candidate; the result is addressed by
// candidate index.
func (c *Collector) CollectAll(ctx context.Context, candidates []domain.Candidate) []domain.Measurement {
	return c.CollectAllFunc(ctx, candidates, nil)
}

// CollectAllFunc is CollectAll with a progress hook called once per finished
// candidate, one call at a time and with Done increasing. progress may be nil.
func (c *Collector) CollectAllFunc(ctx context.Context, candidates []domain.Candidate, progress domain.ProgressFunc) []domain.Measurement {
	results := make([]domain.Measurement, len(candidates))
	resultsMu := sync.Mutex{}
	done := 0

	p := pool.New().WithMaxGoroutines(c.cfg.Concurrency)
	for idx, candidate := range candidates {
		idx, candidate := idx, candidate
		p.Go(func() {
			measured := c.Collect(ctx, candidate.Keyword)
			resultsMu.Lock()
			results[idx] = measured
			done++
			if progress != nil {
				progress(domain.Progress{
					Stage:   domain.StageCollected,
					Done:    done,
					Total:   len(candidates),
					Keyword: candidate.Keyword,
				})
			}
			resultsMu.Unlock()
		})
	}
	p.Wait()

	return results
}

func (c *Collector) measure(ctx context.Context, m source.Measurer, keyword domain.Keyword) domain.SignalSet {
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		callCtx, cancel := callContext(ctx, m, c.cfg.CallTimeout)
		signals, err := m.Measure(callCtx, keyword.String())
		cancel()
		if err == nil {
			return signals
		}

		c.logger.Warn("Measure failed",
			zap.String("source", m.Name()),
			zap.String("keyword", keyword.String()),
			zap.String("op", "measure"),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt+1 == c.cfg.Attempts || ctx.Err() != nil {
			break
		}

		delay := c.computeDelay(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
	return nil
}

// callContext bounds one adapter call by timeout. Paced adapters start their
// own timeout once their rate slot is granted and only inherit ctx.
func callContext(ctx context.Context, adapter any, timeout time.Duration) (context.Context, context.CancelFunc) {
	if source.IsPaced(adapter) {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// computeDelay is exponential backoff with jitter.
func (c *Collector) computeDelay(attempt int) time.Duration {
	jitter := time.Duration(0)
	if c.cfg.Jitter > 0 {
		jitter = time.Duration(rand.Float64() * float64(c.cfg.Jitter))
	}
	return c.cfg.BaseDelay*time.Duration(math.Pow(2, float64(attempt))) + jitter
}
