package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kapu/kdp-keyword-go/internal/domain"
)

// ReadCSV parses a CSV export. Columns are matched by header name, so extra or
// reordered columns are fine; "keyword" is required.
func ReadCSV(r io.Reader) ([]domain.ScoredResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["keyword"]; !ok {
		return nil, fmt.Errorf("csv must contain a 'keyword' header column")
	}

	records := make([]domain.ScoredResult, 0, len(rows)-1)
	for line, row := range rows[1:] {
		p := rowParser{row: row, index: index}
		rec := domain.ScoredResult{
			Keyword:            domain.NewKeyword(p.text("keyword")),
			SearchVolume:       p.int("search_volume"),
			TrendScore:         p.float("trend_score"),
			AmazonResults:      p.int("amazon_results"),
			AvgReviews:         p.int("avg_reviews"),
			AvgPrice:           p.float("avg_price"),
			AvgRating:          p.float("avg_rating"),
			CompetitionLevel:   p.text("competition_level"),
			CompetitionSource:  p.text("competition_source"),
			CompetitionScore:   p.float("competition_score"),
			DifficultyScore:    p.float("difficulty_score"),
			ProfitabilityScore: p.float("profitability_score"),
			OpportunityScore:   p.float("opportunity_score"),
			Recommendation:     p.text("recommendation"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line+2, p.err)
		}
		if rec.Keyword.IsEmpty() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadJSON parses a JSON export (an array of results).
func ReadJSON(r io.Reader) ([]domain.ScoredResult, error) {
	records := make([]domain.ScoredResult, 0)
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	return records, nil
}

type rowParser struct {
	row   []string
	index map[string]int
	err   error
}

func (p *rowParser) text(col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) int(col string) int {
	s := p.text(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func (p *rowParser) float(col string) float64 {
	s := p.text(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}
