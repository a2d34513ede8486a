package research

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type ExpanderConfig struct {
	Breadth       int
	MaxCandidates int
	Concurrency   int
	CallTimeout   time.Duration
}

func (c ExpanderConfig) withDefaults() ExpanderConfig {
	limits := constants.ResearchLimits
	if c.Breadth <= 0 {
		c.Breadth = limits.Breadth
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = limits.MaxCandidates
	}
	if c.Concurrency <= 0 {
		c.Concurrency = limits.Concurrency
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = limits.CallTimeout
	}
	return c
}

// Expander turns seeds into a deduplicated candidate list by asking every
// suggester about every seed.
type Expander struct {
	suggesters []source.Suggester
	cfg        ExpanderConfig
	logger     *zap.Logger
}

func NewExpander(suggesters []source.Suggester, cfg ExpanderConfig, logger *zap.Logger) *Expander {
	return &Expander{
		suggesters: suggesters,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// Expand never fails. Candidates come out grouped by seed (seed order), the
// seed first in its group, then suggestions in suggester order and in the
// order each suggester returned them. Seeds are always kept; the
// MaxCandidates cap only trims suggestions.
func (e *Expander) Expand(ctx context.Context, seeds []domain.Keyword) []domain.Candidate {
	if len(seeds) == 0 {
		return []domain.Candidate{}
	}

	suggestions := e.fetch(ctx, seeds)

	byKeyword := make(map[domain.Keyword]*domain.Candidate, e.cfg.MaxCandidates)
	groups := make([][]*domain.Candidate, len(seeds))
	for i, seed := range seeds {
		c := &domain.Candidate{Keyword: seed, Seed: seed}
		byKeyword[seed] = c
		groups[i] = []*domain.Candidate{c}
	}

	budget := max(e.cfg.MaxCandidates-len(seeds), 0)
	for i, seed := range seeds {
		for j, s := range e.suggesters {
			for _, kw := range suggestions[i][j] {
				if c, ok := byKeyword[kw]; ok {
					c.Sources = appendUnique(c.Sources, s.Name())
					continue
				}
				if budget == 0 {
					continue
				}
				budget--
				c := &domain.Candidate{Keyword: kw, Seed: seed, Sources: []string{s.Name()}}
				byKeyword[kw] = c
				groups[i] = append(groups[i], c)
			}
		}
	}

	candidates := make([]domain.Candidate, 0, len(byKeyword))
	for _, group := range groups {
		for _, c := range group {
			candidates = append(candidates, *c)
		}
	}

	e.logger.Debug("Expansion finished",
		zap.Int("seeds", len(seeds)),
		zap.Int("candidates", len(candidates)))

	return candidates
}

// fetch returns suggestions[seed][suggester], each normalized and cut to Breadth.
func (e *Expander) fetch(ctx context.Context, seeds []domain.Keyword) [][][]domain.Keyword {
	results := make([][][]domain.Keyword, len(seeds))
	for i := range results {
		results[i] = make([][]domain.Keyword, len(e.suggesters))
	}
	if len(e.suggesters) == 0 {
		return results
	}

	p := pool.New().WithMaxGoroutines(e.cfg.Concurrency)
	resultsMu := sync.Mutex{}

	for i, seed := range seeds {
		for j, s := range e.suggesters {
			i, j, seed, s := i, j, seed, s
			p.Go(func() {
				found := e.suggest(ctx, s, seed)
				resultsMu.Lock()
				results[i][j] = found
				resultsMu.Unlock()
			})
		}
	}

	p.Wait()
	return results
}

func (e *Expander) suggest(ctx context.Context, s source.Suggester, seed domain.Keyword) []domain.Keyword {
	callCtx, cancel := callContext(ctx, s, e.cfg.CallTimeout)
	defer cancel()

	raw, err := s.Suggest(callCtx, seed.String())
	if err != nil {
		e.logger.Warn("Suggest failed",
			zap.String("source", s.Name()),
			zap.String("keyword", seed.String()),
			zap.String("op", "suggest"),
			zap.Error(err))
		return nil
	}

	seen := make(map[domain.Keyword]bool, e.cfg.Breadth)
	out := make([]domain.Keyword, 0, e.cfg.Breadth)
	for _, r := range raw {
		kw := domain.NewKeyword(r)
		if kw.IsEmpty() || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == e.cfg.Breadth {
			break
		}
	}
	return out
}

func appendUnique(list []string, item string) []string {
	if util.Contains(list, item) {
		return list
	}
	return append(list, item)
}
