package research

import (
	"context"
	"sort"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

type AggregatorConfig struct {
	MaxSeeds       int
	RequestTimeout time.Duration
}

// Aggregator runs one research request end to end:
// parse, expand, collect, score, order.
type Aggregator struct {
	expander  *Expander
	collector *Collector
	cfg       AggregatorConfig
	logger    *zap.Logger
}

func NewAggregator(expander *Expander, collector *Collector, cfg AggregatorConfig, logger *zap.Logger) *Aggregator {
	if cfg.MaxSeeds <= 0 {
		cfg.MaxSeeds = constants.ResearchLimits.MaxSeeds
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.ResearchLimits.RequestTimeout
	}
	return &Aggregator{
		expander:  expander,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run returns results ordered by profitability (desc), then search volume
// (desc), then candidate order. The only error is a validation error for
// input without any keyword, in which case no source is contacted.
func (a *Aggregator) Run(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResponse, error) {
	return a.RunWithProgress(ctx, req, nil)
}

// RunWithProgress is Run reporting each stage to progress, which may be nil.
func (a *Aggregator) RunWithProgress(ctx context.Context, req domain.ResearchRequest, progress domain.ProgressFunc) (*domain.ResearchResponse, error) {
	seeds := ParseSeeds(req.RawInput, req.BulkMode, a.cfg.MaxSeeds)
	if len(seeds) == 0 {
		return nil, errors.NewEmptyRequestError()
	}
	report := func(stage string, n int) {
		if progress != nil {
			progress(domain.Progress{Stage: stage, Done: n, Total: n})
		}
	}

	started := time.Now()
	rctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	candidates := a.expander.Expand(rctx, seeds)
	report(domain.StageExpanded, len(candidates))

	measured := a.collector.CollectAllFunc(rctx, candidates, progress)
	results := BuildResults(candidates, measured)
	report(domain.StageScored, len(results))

	a.logger.Info("Research run completed",
		zap.Int("seeds", len(seeds)),
		zap.Int("keywords", len(results)),
		zap.Duration("elapsed", time.Since(started)))

	return &domain.ResearchResponse{
		Success:       true,
		Results:       results,
		TotalKeywords: len(results),
	}, nil
}

// BuildResults scores each candidate with its measurement (same index) and
// returns the ordered result list.
func BuildResults(candidates []domain.Candidate, measured []domain.Measurement) []domain.ScoredResult {
	results := make([]domain.ScoredResult, len(candidates))
	for i, c := range candidates {
		var m domain.Measurement
		if i < len(measured) {
			m = measured[i]
		}
		results[i] = newScoredResult(c, m)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ProfitabilityScore != results[j].ProfitabilityScore {
			return results[i].ProfitabilityScore > results[j].ProfitabilityScore
		}
		return results[i].SearchVolume > results[j].SearchVolume
	})
	return results
}

// newScoredResult reports measured values as-is; a missing signal shows as 0
// and is listed in Missing, while the scores use its neutral default.
// AmazonResults and CompetitionLevel only describe a marketplace count; a
// competition count from another kind is scored but reported through
// CompetitionSource alone.
func newScoredResult(c domain.Candidate, m domain.Measurement) domain.ScoredResult {
	signals := m.Signals
	scores := Score(signals)
	measured := func(name domain.SignalName) float64 {
		v, _ := signals.Get(name)
		return v
	}

	var sources []string
	if len(c.Sources) > 0 {
		sources = append([]string(nil), c.Sources...)
	}

	result := domain.ScoredResult{
		Keyword:            c.Keyword,
		Seed:               c.Seed,
		SearchVolume:       util.ToCount(measured(domain.SignalSearchVolume)),
		TrendScore:         util.Round2(measured(domain.SignalTrendMomentum)),
		AvgReviews:         util.ToCount(measured(domain.SignalReviewCount)),
		AvgPrice:           util.Round2(measured(domain.SignalAvgPrice)),
		AvgRating:          util.Round2(measured(domain.SignalAvgRating)),
		CompetitionSource:  m.Origin(domain.SignalCompetitionCount),
		CompetitionScore:   scores.CompetitionScore,
		DifficultyScore:    scores.DifficultyScore,
		ProfitabilityScore: scores.ProfitabilityScore,
		OpportunityScore:   scores.OpportunityScore,
		Recommendation:     Recommend(scores),
		Sources:            sources,
	}
	if result.CompetitionSource == string(source.KindMarketplace) {
		result.AmazonResults = util.ToCount(measured(domain.SignalCompetitionCount))
		result.CompetitionLevel = CompetitionLevel(result.AmazonResults)
	}
	if missing := signals.Missing(); len(missing) > 0 {
		result.Missing = missing
	}
	return result
}
