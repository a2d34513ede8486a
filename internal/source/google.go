package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
)

const googleAutocompleteName = "google_autocomplete"

// GoogleAutocomplete reads the public suggestqueries endpoint (firefox client),
// whose body is `["query", ["s1", "s2", ...], ...]`.
type GoogleAutocomplete struct {
	client   *resty.Client
	endpoint string
}

func NewGoogleAutocomplete(client *resty.Client, endpoint string) *GoogleAutocomplete {
	return &GoogleAutocomplete{client: client, endpoint: endpoint}
}

func (g *GoogleAutocomplete) Name() string { return googleAutocompleteName }

func (g *GoogleAutocomplete) Kind() Kind { return KindAutocomplete }

func (g *GoogleAutocomplete) Suggest(ctx context.Context, seed string) ([]string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"client": "firefox", "q": seed}).
		Get(g.endpoint)
	if err := checkResponse(resp, err); err != nil {
		return nil, errors.NewSourceUnavailable(g.Name(), "suggest", seed, err)
	}

	suggestions, err := parseGoogleSuggestions(resp.Body())
	if err != nil {
		return nil, errors.NewSourceUnavailable(g.Name(), "suggest", seed, err)
	}
	return suggestions, nil
}

func parseGoogleSuggestions(body []byte) ([]string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode autocomplete payload: %w", err)
	}
	if len(payload) < 2 {
		return nil, fmt.Errorf("autocomplete payload has %d elements", len(payload))
	}

	var suggestions []string
	if err := json.Unmarshal(payload[1], &suggestions); err != nil {
		return nil, fmt.Errorf("decode autocomplete suggestions: %w", err)
	}
	return suggestions, nil
}
