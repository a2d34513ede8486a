package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func newTestClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Second}
}

func TestGoogleAutocompleteSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "firefox", r.URL.Query().Get("client"))
		require.Equal(t, "dog training", r.URL.Query().Get("q"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `["dog training",["dog training books","dog training collar"],[],{}]`)
	}))
	defer srv.Close()

	g := NewGoogleAutocomplete(NewHTTPClient(time.Second, ""), srv.URL)
	got, err := g.Suggest(context.Background(), "dog training")
	require.NoError(t, err)
	require.Equal(t, []string{"dog training books", "dog training collar"}, got)
	require.Equal(t, KindAutocomplete, KindOf(g))
}

func TestGoogleAutocompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["only the query"]`)
	}))
	defer srv.Close()

	g := NewGoogleAutocomplete(NewHTTPClient(time.Second, ""), srv.URL)
	_, err := g.Suggest(context.Background(), "x")
	require.True(t, errors.IsSourceUnavailable(err))
}

func TestDuckDuckGoSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"phrase":"knitting patterns"},{"other":"x"},{"phrase":"  knitting for beginners "}]`)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(NewHTTPClient(time.Second, ""), srv.URL)
	got, err := d.Suggest(context.Background(), "knitting")
	require.NoError(t, err)
	require.Equal(t, []string{"knitting patterns", "knitting for beginners"}, got)
}

func TestDuckDuckGoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(NewHTTPClient(time.Second, ""), srv.URL)
	_, err := d.Suggest(context.Background(), "knitting")
	require.True(t, errors.IsSourceUnavailable(err))

	var status *StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusInternalServerError, status.Code)
	require.False(t, status.RateLimited())
}

func TestAmazonCompletionUsesMarketplace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "A1F83G8C2ARO7P", r.URL.Query().Get("mid"))
		require.Equal(t, "keto", r.URL.Query().Get("prefix"))
		fmt.Fprint(w, `{"suggestions":[{"value":"keto cookbook"},{"value":""},{"value":"keto diet for beginners"}]}`)
	}))
	defer srv.Close()

	a := NewAmazonCompletion(NewHTTPClient(time.Second, ""), srv.URL, "uk")
	got, err := a.Suggest(context.Background(), "keto")
	require.NoError(t, err)
	require.Equal(t, []string{"keto cookbook", "keto diet for beginners"}, got)
}

func TestMarketplaceForFallsBackToUS(t *testing.T) {
	require.Equal(t, "www.amazon.com", MarketplaceFor("zz").Host)
	require.Equal(t, "www.amazon.co.uk", MarketplaceFor(" uk ").Host)
}

func newTrendsServer(t *testing.T, timeline string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/explore"):
			require.Contains(t, r.URL.Query().Get("req"), `"keyword":"bread baking"`)
			fmt.Fprint(w, `)]}'
{"widgets":[{"id":"TIMESERIES","token":"ts-token","request":{"time":"x"}},{"id":"RELATED_QUERIES","token":"rq-token","request":{"r":1}}]}`)
		case strings.HasSuffix(r.URL.Path, "/widgetdata/multiline"):
			require.Equal(t, "ts-token", r.URL.Query().Get("token"))
			fmt.Fprint(w, ")]}',\n"+timeline)
		case strings.HasSuffix(r.URL.Path, "/widgetdata/relatedsearches"):
			require.Equal(t, "rq-token", r.URL.Query().Get("token"))
			fmt.Fprint(w, `)]}',
{"default":{"rankedList":[{"rankedKeyword":[{"query":"sourdough bread baking"},{"query":"bread baking book"}]},{"rankedKeyword":[{"query":"bread baking for kids"}]}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestTrendsMeasure(t *testing.T) {
	srv := newTrendsServer(t, `{"default":{"timelineData":[{"value":[10]},{"value":[20]},{"value":[30]},{"value":[40]},{"value":[50]},{"value":[50]}]}}`)
	defer srv.Close()

	tr := NewTrends(NewHTTPClient(time.Second, ""), srv.URL, "us")
	got, err := tr.Measure(context.Background(), "bread baking")
	require.NoError(t, err)

	// mean 33.33 -> volume 3333; recent mean 42.5 / 33.33 = 1.275
	volume, ok := got.Get(domain.SignalSearchVolume)
	require.True(t, ok)
	require.Equal(t, 3333.0, volume)
	momentum, ok := got.Get(domain.SignalTrendMomentum)
	require.True(t, ok)
	require.InDelta(t, 1.275, momentum, 0.001)
}

func TestTrendsMeasureFlatZero(t *testing.T) {
	srv := newTrendsServer(t, `{"default":{"timelineData":[{"value":[0]},{"value":[0]}]}}`)
	defer srv.Close()

	tr := NewTrends(NewHTTPClient(time.Second, ""), srv.URL, "us")
	got, err := tr.Measure(context.Background(), "bread baking")
	require.NoError(t, err)
	require.True(t, got.Has(domain.SignalSearchVolume))
	require.False(t, got.Has(domain.SignalTrendMomentum))
}

func TestTrendsSuggest(t *testing.T) {
	srv := newTrendsServer(t, `{}`)
	defer srv.Close()

	tr := NewTrends(NewHTTPClient(time.Second, ""), srv.URL, "us")
	got, err := tr.Suggest(context.Background(), "bread baking")
	require.NoError(t, err)
	want := []string{"sourdough bread baking", "bread baking book", "bread baking for kids"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("related queries mismatch (-want +got):\n%s", diff)
	}
}

const marketplacePage = `<html><body>
<div class="s-result-info-bar"><span>1-16 of over 40,000 results for "dog training"</span></div>
<div data-component-type="s-search-result"><span class="a-icon-alt">4.6 out of 5 stars</span><span aria-label="1,200 ratings"></span><span class="a-price"><span class="a-offscreen">$12.99</span></span></div>
<div data-component-type="s-search-result"><span class="a-icon-alt">4.2 out of 5 stars</span><span aria-label="300 ratings"></span><span class="a-price"><span class="a-offscreen">$7.01</span></span></div>
<div data-component-type="s-search-result"><h2>no reviews yet</h2></div>
</body></html>`

func TestMarketplaceMeasure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/s", r.URL.Path)
		require.Equal(t, "stripbooks", r.URL.Query().Get("i"))
		fmt.Fprint(w, marketplacePage)
	}))
	defer srv.Close()

	m := NewMarketplace(NewHTTPClient(time.Second, ""), srv.URL, "US", zap.NewNop())
	got, err := m.Measure(context.Background(), "dog training")
	require.NoError(t, err)

	competition, _ := got.Get(domain.SignalCompetitionCount)
	reviews, _ := got.Get(domain.SignalReviewCount)
	price, _ := got.Get(domain.SignalAvgPrice)
	rating, _ := got.Get(domain.SignalAvgRating)
	require.Equal(t, 40000.0, competition)
	require.Equal(t, 750.0, reviews)
	require.Equal(t, 10.0, price)
	require.Equal(t, 4.4, rating)
}

func TestFirstDecimalAcceptsCommaSeparator(t *testing.T) {
	v, ok := firstDecimal("12,99 €")
	require.True(t, ok)
	require.Equal(t, 12.99, v)

	for text, want := range map[string]float64{
		"$1,299.99":          1299.99,
		"1.299,99 €":         1299.99,
		"4.5 out of 5 stars": 4.5,
		"£7":                 7,
		"4,5 von 5 Sternen":  4.5,
	} {
		v, ok = firstDecimal(text)
		require.True(t, ok, text)
		require.Equal(t, want, v, text)
	}

	_, ok = firstDecimal("no price")
	require.False(t, ok)
}

func TestMarketplaceEstimatesFromVisibleProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div data-component-type="s-search-result"></div>
<div data-component-type="s-search-result"></div>
</body></html>`)
	}))
	defer srv.Close()

	m := NewMarketplace(NewHTTPClient(time.Second, ""), srv.URL, "US", zap.NewNop())
	got, err := m.Measure(context.Background(), "rare topic")
	require.NoError(t, err)

	competition, _ := got.Get(domain.SignalCompetitionCount)
	require.Equal(t, 40.0, competition)
	require.False(t, got.Has(domain.SignalReviewCount))
	require.False(t, got.Has(domain.SignalAvgPrice))
}

func TestMarketplaceUnrecognizedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form action="/errors/validateCaptcha"></form></body></html>`)
	}))
	defer srv.Close()

	m := NewMarketplace(NewHTTPClient(time.Second, ""), srv.URL, "US", zap.NewNop())
	_, err := m.Measure(context.Background(), "anything")
	require.True(t, errors.IsSourceUnavailable(err))
	require.True(t, IsStructureError(err))
}

func TestYouTubeMeasure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "crochet", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"kind":"youtube#searchListResponse","pageInfo":{"totalResults":4200,"resultsPerPage":1},"items":[]}`)
	}))
	defer srv.Close()

	yt, err := NewYouTube(context.Background(), option.WithAPIKey("test-key"), zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(newTestClient()))
	require.NoError(t, err)

	got, err := yt.Measure(context.Background(), "crochet")
	require.NoError(t, err)
	competition, ok := got.Get(domain.SignalCompetitionCount)
	require.True(t, ok)
	require.Equal(t, 4200.0, competition)
	require.Equal(t, 100, yt.QuotaUsed())
	require.Equal(t, KindVideo, KindOf(yt))
}

func TestYouTubeRefusesPastQuotaMargin(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"pageInfo":{"totalResults":1}}`)
	}))
	defer srv.Close()

	yt, err := NewYouTube(context.Background(), option.WithAPIKey("test-key"), zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(newTestClient()))
	require.NoError(t, err)
	yt.quotaUsed = 7950

	_, err = yt.Measure(context.Background(), "crochet")
	require.True(t, errors.IsSourceUnavailable(err))

	var quota *QuotaExceededError
	require.True(t, errors.As(err, &quota))
	require.Equal(t, 0, calls)
}

func TestYouTubeRequiresAuth(t *testing.T) {
	_, err := NewYouTube(context.Background(), nil, zap.NewNop())
	require.Error(t, err)
}
