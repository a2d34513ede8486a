// Package export renders scored keyword lists as CSV, JSON or text tables and
// reads CSV/JSON exports back. Table and markdown output end with a summary
// statistics block; CSV and JSON carry rows only so they can be imported.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/research"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
)

type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
)

var Formats = []Format{FormatCSV, FormatJSON, FormatTable, FormatMarkdown}

// ParseFormat accepts a format name case-insensitively ("md" is markdown).
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON, FormatTable, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", errors.NewValidationError("Invalid export format", "format", name)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatTable:
		return "txt"
	default:
		return string(f)
	}
}

// columns is the CSV header, also used to locate fields when reading.
var columns = []string{
	"keyword",
	"search_volume",
	"trend_score",
	"amazon_results",
	"avg_reviews",
	"avg_price",
	"avg_rating",
	"competition_level",
	"competition_source",
	"competition_score",
	"difficulty_score",
	"profitability_score",
	"opportunity_score",
	"recommendation",
}

// Write renders records to w in the given format.
func Write(w io.Writer, format Format, records []domain.ScoredResult) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	case FormatTable, FormatMarkdown:
		return writeTable(w, format, records)
	default:
		return errors.NewValidationError("Invalid export format", "format", string(format))
	}
}

func writeCSV(w io.Writer, records []domain.ScoredResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Keyword.String(),
			strconv.Itoa(r.SearchVolume),
			formatFloat(r.TrendScore),
			strconv.Itoa(r.AmazonResults),
			strconv.Itoa(r.AvgReviews),
			formatFloat(r.AvgPrice),
			formatFloat(r.AvgRating),
			r.CompetitionLevel,
			r.CompetitionSource,
			formatFloat(r.CompetitionScore),
			formatFloat(r.DifficultyScore),
			formatFloat(r.ProfitabilityScore),
			formatFloat(r.OpportunityScore),
			r.Recommendation,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []domain.ScoredResult) error {
	if records == nil {
		records = []domain.ScoredResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeTable(w io.Writer, format Format, records []domain.ScoredResult) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Keyword", "Volume", "Results", "Difficulty", "Profitability", "Opportunity", "Grade"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for i, r := range records {
		t.AppendRow(table.Row{
			i + 1,
			r.Keyword,
			r.SearchVolume,
			r.AmazonResults,
			fmt.Sprintf("%.2f", r.DifficultyScore),
			fmt.Sprintf("%.2f", r.ProfitabilityScore),
			fmt.Sprintf("%.2f", r.OpportunityScore),
			research.GradeFor(r.OpportunityScore),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d keywords", len(records))})

	var out string
	if format == FormatMarkdown {
		out = t.RenderMarkdown()
	} else {
		out = t.Render()
	}
	if summary := Summarize(records); summary.Total > 0 {
		out += "\n\n" + renderSummary(format, summary)
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

// Profitability bands counted by Summarize.
const (
	highOpportunity   = 70.0
	mediumOpportunity = 50.0
)

// Summary holds the statistics block printed under table exports.
type Summary struct {
	Total            int
	AvgSearchVolume  float64
	AvgDifficulty    float64
	AvgProfitability float64
	High             int
	Medium           int
	Low              int
}

func Summarize(records []domain.ScoredResult) Summary {
	s := Summary{Total: len(records)}
	if s.Total == 0 {
		return s
	}
	volumes := make([]float64, 0, len(records))
	difficulty := make([]float64, 0, len(records))
	profitability := make([]float64, 0, len(records))
	for _, r := range records {
		volumes = append(volumes, float64(r.SearchVolume))
		difficulty = append(difficulty, r.DifficultyScore)
		profitability = append(profitability, r.ProfitabilityScore)
		switch {
		case r.ProfitabilityScore >= highOpportunity:
			s.High++
		case r.ProfitabilityScore >= mediumOpportunity:
			s.Medium++
		default:
			s.Low++
		}
	}
	s.AvgSearchVolume = util.Mean(volumes)
	s.AvgDifficulty = util.Mean(difficulty)
	s.AvgProfitability = util.Mean(profitability)
	return s
}

func renderSummary(format Format, s Summary) string {
	share := func(n int) string {
		return fmt.Sprintf("%d (%.1f%%)", n, float64(n)/float64(s.Total)*100)
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Total Keywords Analyzed", s.Total},
		{"Average Search Volume", fmt.Sprintf("%.0f", s.AvgSearchVolume)},
		{"Average Difficulty Score", fmt.Sprintf("%.1f", s.AvgDifficulty)},
		{"Average Profitability Score", fmt.Sprintf("%.1f", s.AvgProfitability)},
		{"High Opportunity Keywords", share(s.High)},
		{"Medium Opportunity Keywords", share(s.Medium)},
		{"Low Opportunity Keywords", share(s.Low)},
	})

	if format == FormatMarkdown {
		return "### Summary Statistics\n\n" + t.RenderMarkdown()
	}
	t.SetTitle("Summary Statistics")
	return t.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
