package source

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	marketplaceName = "amazon_search"

	// sampled products for the review, price and rating averages
	reviewSampleSize = 10

	// result pages show about this many products per visible product
	visibleProductFactor = 20
)

var (
	resultBarSelectors = []string{
		`span[data-component-type="s-result-info-bar"] span`,
		`.s-result-info-bar span`,
		`[data-component-type="s-result-info-bar"]`,
		`.sg-col-inner span`,
	}
	productSelector = `[data-component-type="s-search-result"]`
	numberPattern   = regexp.MustCompile(`\d[\d,]*`)
	decimalPattern  = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)
)

// Marketplace scrapes the book search results page. It measures
// competition_count from the result bar ("1-16 of over 40,000 results") and
// review_count, avg_price and avg_rating as means over the first products.
type Marketplace struct {
	client      *resty.Client
	baseURL     string
	marketplace MarketplaceConfig
	logger      *zap.Logger
}

// NewMarketplace targets the storefront of country. baseURL overrides the
// storefront host when non-empty.
func NewMarketplace(client *resty.Client, baseURL, country string, logger *zap.Logger) *Marketplace {
	mp := MarketplaceFor(country)
	if baseURL == "" {
		baseURL = "https://" + mp.Host
	}
	return &Marketplace{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		marketplace: mp,
		logger:      logger,
	}
}

func (m *Marketplace) Name() string { return marketplaceName }

func (m *Marketplace) Kind() Kind { return KindMarketplace }

func (m *Marketplace) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetQueryParams(map[string]string{"k": keyword, "i": "stripbooks"}).
		Get(m.baseURL + "/s")
	if err := checkResponse(resp, err); err != nil {
		return nil, errors.NewSourceUnavailable(m.Name(), "measure", keyword, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, errors.NewSourceUnavailable(m.Name(), "measure", keyword,
			fmt.Errorf("HTML parse failed: %w", err))
	}

	signals, err := m.parseResults(doc)
	if err != nil {
		m.logger.Warn("Marketplace page not recognized",
			zap.String("keyword", keyword),
			zap.String("host", m.marketplace.Host),
			zap.Error(err))
		return nil, errors.NewSourceUnavailable(m.Name(), "measure", keyword, err)
	}
	return signals, nil
}

func (m *Marketplace) parseResults(doc *goquery.Document) (domain.SignalSet, error) {
	products := doc.Find(productSelector)
	count, found := resultCount(doc)
	if !found {
		if products.Length() == 0 {
			return nil, &StructureChangedError{
				Message: "No result bar and no products found - page structure may have changed",
			}
		}
		count = products.Length() * visibleProductFactor
	}

	signals := domain.NewSignalSet()
	signals.Set(domain.SignalCompetitionCount, float64(count))

	reviews := make([]float64, 0, reviewSampleSize)
	prices := make([]float64, 0, reviewSampleSize)
	ratings := make([]float64, 0, reviewSampleSize)
	parseErrors := 0
	products.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= reviewSampleSize {
			return false
		}
		if n, ok := reviewCount(sel); ok {
			reviews = append(reviews, float64(n))
		} else {
			parseErrors++
		}
		if v, ok := productPrice(sel); ok {
			prices = append(prices, v)
		}
		if v, ok := productRating(sel); ok {
			ratings = append(ratings, v)
		}
		return true
	})

	if len(reviews) > 0 {
		signals.Set(domain.SignalReviewCount, math.Floor(util.Mean(reviews)))
	}
	if len(prices) > 0 {
		signals.Set(domain.SignalAvgPrice, util.Round2(util.Mean(prices)))
	}
	if len(ratings) > 0 {
		signals.Set(domain.SignalAvgRating, math.Round(util.Mean(ratings)*10)/10)
	}

	if parseErrors > 0 {
		m.logger.Debug("Products without review counts",
			zap.Int("parsed", len(reviews)),
			zap.Int("skipped", parseErrors))
	}
	return signals, nil
}

// resultCount takes the largest number from the first result bar text that
// mentions "results".
func resultCount(doc *goquery.Document) (int, bool) {
	for _, selector := range resultBarSelectors {
		count, found := 0, false
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if !strings.Contains(strings.ToLower(text), "results") {
				return true
			}
			if n, ok := largestNumber(text); ok {
				count, found = n, true
				return false
			}
			return true
		})
		if found {
			return count, true
		}
	}
	return 0, false
}

func reviewCount(product *goquery.Selection) (int, bool) {
	candidates := []string{
		strings.TrimSpace(product.Find(`span[aria-label$='ratings']`).First().AttrOr("aria-label", "")),
		strings.TrimSpace(product.Find(`span[aria-label$='rating']`).First().AttrOr("aria-label", "")),
		strings.TrimSpace(product.Find(`.a-size-base.s-underline-text`).First().Text()),
	}
	for _, text := range candidates {
		if text == "" {
			continue
		}
		if n, ok := largestNumber(text); ok {
			return n, true
		}
	}
	return 0, false
}

func productPrice(product *goquery.Selection) (float64, bool) {
	text := strings.TrimSpace(product.Find(`.a-price .a-offscreen`).First().Text())
	if text == "" {
		text = strings.TrimSpace(product.Find(`.a-price-whole`).First().Text())
	}
	v, ok := firstDecimal(text)
	return v, ok && v > 0
}

// productRating reads "4.5 out of 5 stars" style labels.
func productRating(product *goquery.Selection) (float64, bool) {
	v, ok := firstDecimal(product.Find(`.a-icon-alt`).First().Text())
	return v, ok && v > 0 && v <= 5
}

// firstDecimal reads the first number in text. The last separator is the
// decimal point when both appear ("1,299.99", "1.299,99"); a lone comma is
// decimal only before one or two digits ("12,99 €", "4,5 von 5").
func firstDecimal(text string) (float64, bool) {
	match := decimalPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	dot, comma := strings.LastIndex(match, "."), strings.LastIndex(match, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		match = strings.ReplaceAll(strings.ReplaceAll(match, ".", ""), ",", ".")
	case dot >= 0 && comma >= 0:
		match = strings.ReplaceAll(match, ",", "")
	case comma >= 0 && len(match)-comma <= 3 && strings.Count(match, ",") == 1:
		match = strings.Replace(match, ",", ".", 1)
	default:
		match = strings.ReplaceAll(match, ",", "")
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func largestNumber(text string) (int, bool) {
	best, found := 0, false
	for _, match := range numberPattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

// StructureChangedError means the page parsed but held none of the expected
// elements, typically a captcha or a layout change.
type StructureChangedError struct {
	Message string
}

func (e *StructureChangedError) Error() string {
	return e.Message
}

func IsStructureError(err error) bool {
	var target *StructureChangedError
	return errors.As(err, &target)
}
