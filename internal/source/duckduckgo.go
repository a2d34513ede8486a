package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
)

const duckDuckGoName = "duckduckgo"

type DuckDuckGo struct {
	client   *resty.Client
	endpoint string
}

func NewDuckDuckGo(client *resty.Client, endpoint string) *DuckDuckGo {
	return &DuckDuckGo{client: client, endpoint: endpoint}
}

func (d *DuckDuckGo) Name() string { return duckDuckGoName }

func (d *DuckDuckGo) Kind() Kind { return KindAutocomplete }

func (d *DuckDuckGo) Suggest(ctx context.Context, seed string) ([]string, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("q", seed).
		Get(d.endpoint)
	if err := checkResponse(resp, err); err != nil {
		return nil, errors.NewSourceUnavailable(d.Name(), "suggest", seed, err)
	}

	// [{"phrase": "..."}, ...]; entries without a phrase are skipped.
	var items []struct {
		Phrase string `json:"phrase"`
	}
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, errors.NewSourceUnavailable(d.Name(), "suggest", seed,
			fmt.Errorf("decode duckduckgo payload: %w", err))
	}

	suggestions := make([]string, 0, len(items))
	for _, item := range items {
		if phrase := strings.TrimSpace(item.Phrase); phrase != "" {
			suggestions = append(suggestions, phrase)
		}
	}
	return suggestions, nil
}
