package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"github.com/stretchr/testify/require"
)

var sample = []domain.ScoredResult{
	{
		Keyword:            "dog training",
		SearchVolume:       3333,
		TrendScore:         1.27,
		AmazonResults:      40000,
		AvgReviews:         750,
		AvgPrice:           12.99,
		AvgRating:          4.4,
		CompetitionLevel:   "High",
		CompetitionSource:  "marketplace",
		CompetitionScore:   76.69,
		DifficultyScore:    71.52,
		ProfitabilityScore: 47.13,
		OpportunityScore:   41.45,
		Recommendation:     "Challenging - High competition or low opportunity",
	},
	{
		Keyword:            "puppy training, advanced",
		SearchVolume:       120,
		ProfitabilityScore: 12.5,
		Recommendation:     `Low "volume"`,
	},
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sample))
	require.True(t, strings.HasPrefix(buf.String(), "keyword,search_volume,trend_score,amazon_results"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Fatalf("csv round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyExports(t *testing.T) {
	var csvBuf, jsonBuf bytes.Buffer
	require.NoError(t, Write(&csvBuf, FormatCSV, nil))
	require.NoError(t, Write(&jsonBuf, FormatJSON, nil))

	require.Equal(t, strings.Join(columns, ",")+"\n", csvBuf.String())
	require.JSONEq(t, "[]", jsonBuf.String())
}

func TestReadCSVByHeaderName(t *testing.T) {
	in := "Profitability_Score,Keyword,notes\n55.5,  Coloring   Book ,x\n1,,skipped\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []domain.ScoredResult{{Keyword: "coloring book", ProfitabilityScore: 55.5}}, got)

	_, err = ReadCSV(strings.NewReader("volume\n1\n"))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("keyword,search_volume\nx,lots\n"))
	require.ErrorContains(t, err, "search_volume")
}

func TestTableFormats(t *testing.T) {
	var table, md bytes.Buffer
	require.NoError(t, Write(&table, FormatTable, sample))
	require.NoError(t, Write(&md, FormatMarkdown, sample))

	require.Contains(t, table.String(), "dog training")
	require.Contains(t, table.String(), "2 keywords")
	require.Contains(t, md.String(), "| Keyword |")
	require.Contains(t, md.String(), "weak")

	require.Contains(t, table.String(), "Summary Statistics")
	require.Contains(t, table.String(), "Low Opportunity Keywords")
	require.Contains(t, md.String(), "### Summary Statistics")
	require.Contains(t, md.String(), "| Average Search Volume |")
}

func TestSummarize(t *testing.T) {
	got := Summarize([]domain.ScoredResult{
		{SearchVolume: 100, DifficultyScore: 20, ProfitabilityScore: 80},
		{SearchVolume: 300, DifficultyScore: 40, ProfitabilityScore: 70},
		{SearchVolume: 500, DifficultyScore: 60, ProfitabilityScore: 55},
		{SearchVolume: 700, DifficultyScore: 80, ProfitabilityScore: 49.99},
	})
	want := Summary{
		Total:            4,
		AvgSearchVolume:  400,
		AvgDifficulty:    50,
		AvgProfitability: 63.7475,
		High:             2,
		Medium:           1,
		Low:              1,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("Summarize() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Summary{}, Summarize(nil))
}

func TestEmptyTableHasNoSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, nil))
	require.NotContains(t, buf.String(), "Summary Statistics")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"CSV": FormatCSV, "json": FormatJSON, " table ": FormatTable, "md": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	require.True(t, errors.IsValidation(err))
	require.True(t, errors.IsValidation(Write(&bytes.Buffer{}, Format("xlsx"), sample)))
}
