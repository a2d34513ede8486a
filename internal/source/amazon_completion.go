package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
)

const amazonCompletionName = "amazon_completion"

// AmazonCompletion asks the marketplace search box for completions, which
// reflect what buyers type rather than what web searchers type.
type AmazonCompletion struct {
	client      *resty.Client
	endpoint    string
	marketplace MarketplaceConfig
}

func NewAmazonCompletion(client *resty.Client, endpoint, country string) *AmazonCompletion {
	return &AmazonCompletion{
		client:      client,
		endpoint:    endpoint,
		marketplace: MarketplaceFor(country),
	}
}

func (a *AmazonCompletion) Name() string { return amazonCompletionName }

func (a *AmazonCompletion) Kind() Kind { return KindAutocomplete }

type completionResponse struct {
	Suggestions []struct {
		Value string `json:"value"`
	} `json:"suggestions"`
}

func (a *AmazonCompletion) Suggest(ctx context.Context, seed string) ([]string, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"page-type":       "Search",
			"client-info":     "amazon-search-ui",
			"limit":           "15",
			"mid":             a.marketplace.MarketplaceID,
			"alias":           "stripbooks",
			"suggestion-type": "KEYWORD",
			"prefix":          seed,
		}).
		Get(a.endpoint)
	if err := checkResponse(resp, err); err != nil {
		return nil, errors.NewSourceUnavailable(a.Name(), "suggest", seed, err)
	}

	var payload completionResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, errors.NewSourceUnavailable(a.Name(), "suggest", seed,
			fmt.Errorf("decode completion payload: %w", err))
	}

	suggestions := make([]string, 0, len(payload.Suggestions))
	for _, s := range payload.Suggestions {
		if value := strings.TrimSpace(s.Value); value != "" {
			suggestions = append(suggestions, value)
		}
	}
	return suggestions, nil
}
