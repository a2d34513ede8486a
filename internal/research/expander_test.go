package research

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExpander(cfg ExpanderConfig, suggesters ...source.Suggester) *Expander {
	return NewExpander(suggesters, cfg, zap.NewNop())
}

func TestExpandOrdersBySeedThenSuggester(t *testing.T) {
	google := &stubSuggester{name: "google", fn: func(seed string) ([]string, error) {
		return []string{seed + " for beginners", seed + " guide"}, nil
	}}
	ddg := &stubSuggester{name: "duckduckgo", fn: func(seed string) ([]string, error) {
		return []string{seed + " guide", seed + " workbook"}, nil
	}}

	got := newTestExpander(ExpanderConfig{}, google, ddg).Expand(t.Context(), []domain.Keyword{"puzzles", "journals"})

	want := []string{
		"puzzles", "puzzles for beginners", "puzzles guide", "puzzles workbook",
		"journals", "journals for beginners", "journals guide", "journals workbook",
	}
	if diff := cmp.Diff(want, keywords(got)); diff != "" {
		t.Fatalf("Expand() order mismatch (-want +got):\n%s", diff)
	}

	require.True(t, got[0].IsSeed())
	require.Empty(t, got[0].Sources)
	require.Equal(t, []string{"google", "duckduckgo"}, got[2].Sources, "shared suggestion lists both sources")
	require.Equal(t, domain.Keyword("journals"), got[5].Seed)
}

func TestExpandDeduplicatesAcrossSeeds(t *testing.T) {
	s := &stubSuggester{name: "google", fn: func(seed string) ([]string, error) {
		return []string{"Dog Training Books", "dog  training books", "puppy training"}, nil
	}}

	got := newTestExpander(ExpanderConfig{}, s).Expand(t.Context(), []domain.Keyword{"dog training", "dog training books"})

	require.Equal(t, []string{"dog training", "puppy training", "dog training books"}, keywords(got))
	require.Equal(t, domain.Keyword("dog training books"), got[2].Seed, "a seed stays in its own group")
	require.Equal(t, []string{"google"}, got[2].Sources)
}

func TestExpandRespectsBreadthAndCap(t *testing.T) {
	many := &stubSuggester{name: "google", fn: func(seed string) ([]string, error) {
		out := make([]string, 30)
		for i := range out {
			out[i] = fmt.Sprintf("%s %d", seed, i)
		}
		return out, nil
	}}

	got := newTestExpander(ExpanderConfig{}, many).Expand(t.Context(), []domain.Keyword{"cats"})
	require.Len(t, got, 11, "seed plus breadth of ten")

	seeds := make([]domain.Keyword, 12)
	for i := range seeds {
		seeds[i] = domain.Keyword(fmt.Sprintf("seed%d", i))
	}
	capped := newTestExpander(ExpanderConfig{MaxCandidates: 20}, many).Expand(t.Context(), seeds)
	require.Len(t, capped, 20)

	kept := 0
	for _, c := range capped {
		if c.IsSeed() {
			kept++
		}
	}
	require.Equal(t, len(seeds), kept, "seeds are never trimmed")
}

func TestExpandSurvivesFailingSources(t *testing.T) {
	broken := &stubSuggester{name: "broken", fn: func(string) ([]string, error) { return nil, errSourceDown }}
	slow := &stubSuggester{name: "slow", fn: func(string) ([]string, error) {
		time.Sleep(50 * time.Millisecond)
		return []string{"late answer"}, nil
	}}

	got := newTestExpander(ExpanderConfig{CallTimeout: time.Second}, broken, slow).
		Expand(t.Context(), []domain.Keyword{"dog training"})

	require.Equal(t, []string{"dog training", "late answer"}, keywords(got))
	require.EqualValues(t, 1, broken.calls.Load())
}

func TestExpandWithoutSuggesters(t *testing.T) {
	got := newTestExpander(ExpanderConfig{}).Expand(t.Context(), []domain.Keyword{"a", "b"})
	require.Equal(t, []string{"a", "b"}, keywords(got))

	require.Empty(t, newTestExpander(ExpanderConfig{}).Expand(t.Context(), nil))
}
