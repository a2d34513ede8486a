package research

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/source"
)

var errSourceDown = errors.New("source down")

type stubSuggester struct {
	name  string
	fn    func(seed string) ([]string, error)
	calls atomic.Int32
}

func (s *stubSuggester) Name() string { return s.name }

func (s *stubSuggester) Suggest(ctx context.Context, seed string) ([]string, error) {
	s.calls.Add(1)
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(seed)
}

type stubMeasurer struct {
	name  string
	kind  source.Kind
	fn    func(ctx context.Context, keyword string) (domain.SignalSet, error)
	calls atomic.Int32
}

func (m *stubMeasurer) Name() string      { return m.name }
func (m *stubMeasurer) Kind() source.Kind { return m.kind }

func (m *stubMeasurer) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	m.calls.Add(1)
	if m.fn == nil {
		return domain.NewSignalSet(), nil
	}
	return m.fn(ctx, keyword)
}

func fixedSignals(values map[domain.SignalName]float64) func(context.Context, string) (domain.SignalSet, error) {
	return func(context.Context, string) (domain.SignalSet, error) {
		return signalsOf(values), nil
	}
}

// measuredBy is a Measurement whose signals all came from one kind.
func measuredBy(kind source.Kind, values map[domain.SignalName]float64) domain.Measurement {
	var m domain.Measurement
	m.Merge(signalsOf(values), string(kind))
	return m
}

func failing(context.Context, string) (domain.SignalSet, error) {
	return nil, errSourceDown
}

// blockUntilDone models a source that never answers.
func blockUntilDone(ctx context.Context, _ string) (domain.SignalSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func keywords(candidates []domain.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Keyword.String()
	}
	return out
}
