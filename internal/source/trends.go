package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/util"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
)

const (
	trendsName      = "google_trends"
	trendsTimeframe = "today 12-m"
	trendsRecentN   = 4
)

// Trends talks to the Google Trends widget API. One explore call yields widget
// tokens; the TIMESERIES widget feeds Measure and RELATED_QUERIES feeds Suggest.
type Trends struct {
	client  *resty.Client
	baseURL string
	geo     string
}

func NewTrends(client *resty.Client, baseURL, geo string) *Trends {
	return &Trends{client: client, baseURL: strings.TrimRight(baseURL, "/"), geo: strings.ToUpper(geo)}
}

func (t *Trends) Name() string { return trendsName }

func (t *Trends) Kind() Kind { return KindTrends }

type trendsWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []trendsWidget `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

type relatedResponse struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []struct {
				Query string `json:"query"`
			} `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// Measure reports search_volume (mean interest × 100) and trend_momentum
// (mean of the last four points over the overall mean).
func (t *Trends) Measure(ctx context.Context, keyword string) (domain.SignalSet, error) {
	widget, err := t.widget(ctx, keyword, "TIMESERIES")
	if err != nil {
		return nil, errors.NewSourceUnavailable(t.Name(), "measure", keyword, err)
	}

	var payload multilineResponse
	if err := t.widgetData(ctx, "multiline", widget, &payload); err != nil {
		return nil, errors.NewSourceUnavailable(t.Name(), "measure", keyword, err)
	}

	points := make([]float64, 0, len(payload.Default.TimelineData))
	for _, row := range payload.Default.TimelineData {
		if len(row.Value) > 0 {
			points = append(points, row.Value[0])
		}
	}
	return interestSignals(points), nil
}

// interestSignals turns an interest curve into signals. An empty curve yields
// an empty set; a flat-zero curve has volume 0 and no momentum.
func interestSignals(points []float64) domain.SignalSet {
	signals := domain.NewSignalSet()
	if len(points) == 0 {
		return signals
	}

	avg := util.Mean(points)
	signals.Set(domain.SignalSearchVolume, float64(int(avg*100)))
	if avg <= 0 {
		return signals
	}

	recent := points
	if len(points) > trendsRecentN {
		recent = points[len(points)-trendsRecentN:]
	}
	signals.Set(domain.SignalTrendMomentum, util.Mean(recent)/max(avg, 1))
	return signals
}

// Suggest returns the top and rising related queries, in that order.
func (t *Trends) Suggest(ctx context.Context, seed string) ([]string, error) {
	widget, err := t.widget(ctx, seed, "RELATED_QUERIES")
	if err != nil {
		return nil, errors.NewSourceUnavailable(t.Name(), "suggest", seed, err)
	}

	var payload relatedResponse
	if err := t.widgetData(ctx, "relatedsearches", widget, &payload); err != nil {
		return nil, errors.NewSourceUnavailable(t.Name(), "suggest", seed, err)
	}

	var suggestions []string
	for _, list := range payload.Default.RankedList {
		for _, kw := range list.RankedKeyword {
			if q := strings.TrimSpace(kw.Query); q != "" {
				suggestions = append(suggestions, q)
			}
		}
	}
	return suggestions, nil
}

func (t *Trends) widget(ctx context.Context, keyword, id string) (*trendsWidget, error) {
	req, err := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{
			{"keyword": keyword, "geo": t.geo, "time": trendsTimeframe},
		},
		"category": 0,
		"property": "",
	})
	if err != nil {
		return nil, err
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"hl": "en-US", "tz": "360", "req": string(req)}).
		Get(t.baseURL + "/explore")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}

	var explore exploreResponse
	if err := decodeTrendsJSON(resp.Body(), &explore); err != nil {
		return nil, fmt.Errorf("decode explore: %w", err)
	}
	for i := range explore.Widgets {
		if explore.Widgets[i].ID == id {
			return &explore.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("explore response has no %s widget", id)
}

func (t *Trends) widgetData(ctx context.Context, kind string, widget *trendsWidget, dest any) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"hl":    "en-US",
			"tz":    "360",
			"req":   string(widget.Request),
			"token": widget.Token,
		}).
		Get(t.baseURL + "/widgetdata/" + kind)
	if err := checkResponse(resp, err); err != nil {
		return err
	}
	if err := decodeTrendsJSON(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// decodeTrendsJSON skips the anti-XSSI prefix (`)]}'`) that precedes every body.
func decodeTrendsJSON(body []byte, dest any) error {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return fmt.Errorf("no JSON object in %d byte body", len(body))
	}
	return json.Unmarshal(body[start:], dest)
}
