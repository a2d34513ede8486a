// Package source holds the external keyword signal adapters and the
// decorators (rate limit, circuit breaker, response cache) applied to them.
package source

import (
	"context"
	"sort"

	"github.com/kapu/kdp-keyword-go/internal/domain"
)

// Suggester proposes related keywords for a seed.
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, seed string) ([]string, error)
}

// Measurer reports whatever signals it knows for a keyword. Signals it cannot
// observe are simply absent from the returned set.
type Measurer interface {
	Name() string
	Measure(ctx context.Context, keyword string) (domain.SignalSet, error)
}

// Kind groups adapters for measurement precedence.
type Kind string

const (
	KindAutocomplete Kind = "autocomplete"
	KindTrends       Kind = "trends"
	KindMarketplace  Kind = "marketplace"
	KindVideo        Kind = "video"
	KindIdeas        Kind = "ideas"
)

// Priority is the order in which measurers are consulted when two of them
// report the same signal. The first non-missing value wins.
var Priority = []Kind{
	KindAutocomplete,
	KindTrends,
	KindMarketplace,
	KindVideo,
	KindIdeas,
}

// Kinded is implemented by adapters that declare their Kind.
type Kinded interface {
	Kind() Kind
}

// KindOf returns the declared kind of an adapter, or "" when it has none.
func KindOf(adapter any) Kind {
	if k, ok := adapter.(Kinded); ok {
		return k.Kind()
	}
	return ""
}

// Pacer is implemented by adapters that wait for a rate slot and then bound
// the call themselves. Callers should not put a per-call deadline around them.
type Pacer interface {
	Paced() bool
}

// IsPaced reports whether adapter queues and times its own calls.
func IsPaced(adapter any) bool {
	p, ok := adapter.(Pacer)
	return ok && p.Paced()
}

// Rank is the position of k in Priority. Unknown kinds rank last.
func Rank(k Kind) int {
	for i, p := range Priority {
		if p == k {
			return i
		}
	}
	return len(Priority)
}

// SortMeasurers returns a copy of measurers ordered by Priority. Measurers of
// the same kind keep their relative order.
func SortMeasurers(measurers []Measurer) []Measurer {
	sorted := make([]Measurer, len(measurers))
	copy(sorted, measurers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Rank(KindOf(sorted[i])) < Rank(KindOf(sorted[j]))
	})
	return sorted
}

// Registry is the set of adapters wired for one process.
type Registry struct {
	suggesters []Suggester
	measurers  []Measurer
	closers    []func()
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) AddSuggester(s Suggester) {
	if s != nil {
		r.suggesters = append(r.suggesters, s)
	}
}

func (r *Registry) AddMeasurer(m Measurer) {
	if m != nil {
		r.measurers = append(r.measurers, m)
	}
}

// OnClose registers a release hook run by Close in reverse order.
func (r *Registry) OnClose(fn func()) {
	if fn != nil {
		r.closers = append(r.closers, fn)
	}
}

// Suggesters returns the suggesters in registration order.
func (r *Registry) Suggesters() []Suggester {
	out := make([]Suggester, len(r.suggesters))
	copy(out, r.suggesters)
	return out
}

// Measurers returns the measurers in Priority order.
func (r *Registry) Measurers() []Measurer {
	return SortMeasurers(r.measurers)
}

// Names lists every registered adapter name once, suggesters first.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(r.suggesters)+len(r.measurers))
	for _, s := range r.suggesters {
		if !seen[s.Name()] {
			seen[s.Name()] = true
			names = append(names, s.Name())
		}
	}
	for _, m := range r.measurers {
		if !seen[m.Name()] {
			seen[m.Name()] = true
			names = append(names, m.Name())
		}
	}
	return names
}

func (r *Registry) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
