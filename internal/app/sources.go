package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/source"
	"go.uber.org/zap"
)

// decorator wraps one upstream with its Guard and, when a cache is
// configured, the response cache in front of it. Cache hits skip the guard.
type decorator struct {
	registry    *source.Registry
	cached      *source.Cached
	rpm         int
	callTimeout time.Duration
	logger      *zap.Logger
}

func (d *decorator) guard(name string) *source.Guard {
	g := source.NewGuard(name, d.rpm, d.callTimeout, d.logger)
	d.registry.OnClose(g.Close)
	return g
}

func (d *decorator) suggester(g *source.Guard, s source.Suggester) source.Suggester {
	wrapped := g.Suggester(s)
	if d.cached != nil {
		wrapped = d.cached.Suggester(wrapped)
	}
	return wrapped
}

func (d *decorator) measurer(g *source.Guard, m source.Measurer) source.Measurer {
	wrapped := g.Measurer(m)
	if d.cached != nil {
		wrapped = d.cached.Measurer(wrapped)
	}
	return wrapped
}

// buildSources registers every enabled adapter. cache may be nil.
func buildSources(ctx context.Context, cfg *config.Config, cache source.Cache, logger *zap.Logger) (*source.Registry, error) {
	sc := cfg.Sources
	registry := source.NewRegistry()
	d := &decorator{
		registry:    registry,
		rpm:         sc.RequestsPerMinute,
		callTimeout: cfg.Research.CallTimeout,
		logger:      logger,
	}
	if cache != nil {
		d.cached = source.NewCached(cache, logger)
	}

	client := source.NewHTTPClient(cfg.Research.CallTimeout, sc.UserAgent)

	if sc.EnableGoogle {
		g := d.guard("google_autocomplete")
		registry.AddSuggester(d.suggester(g, source.NewGoogleAutocomplete(client, constants.APIConfig.GoogleSuggestURL)))
	}
	if sc.EnableDuckDuckGo {
		g := d.guard("duckduckgo")
		registry.AddSuggester(d.suggester(g, source.NewDuckDuckGo(client, constants.APIConfig.DuckDuckGoURL)))
	}
	if sc.EnableAmazon {
		g := d.guard("amazon_completion")
		registry.AddSuggester(d.suggester(g, source.NewAmazonCompletion(client, constants.APIConfig.AmazonCompleteURL, sc.Country)))
	}
	if sc.EnableTrends {
		// Related queries and interest curves hit the same upstream.
		g := d.guard("google_trends")
		trends := source.NewTrends(client, constants.APIConfig.TrendsBaseURL, sc.Country)
		registry.AddSuggester(d.suggester(g, trends))
		registry.AddMeasurer(d.measurer(g, trends))
	}
	if sc.EnableMarketplace {
		g := d.guard("amazon_search")
		registry.AddMeasurer(d.measurer(g, source.NewMarketplace(client, "", sc.Country, logger)))
	}
	auth, err := source.YouTubeAuth(ctx, sc.YouTubeAPIKey, sc.YouTubeCredentials, sc.YouTubeToken)
	if err != nil {
		logger.Warn("YouTube disabled", zap.Error(err))
	}
	if auth != nil {
		yt, err := source.NewYouTube(ctx, auth, logger)
		if err != nil {
			registry.Close()
			return nil, fmt.Errorf("failed to create YouTube source: %w", err)
		}
		g := d.guard("youtube")
		registry.AddMeasurer(d.measurer(g, yt))
	}
	if sc.EnableVariations {
		registry.AddSuggester(source.NewVariations())
	}
	if sc.EnableIdeas {
		ideas, err := buildIdeas(ctx, sc, logger)
		if err != nil {
			registry.Close()
			return nil, err
		}
		g := d.guard("llm_ideas")
		registry.AddSuggester(d.suggester(g, ideas))
	}

	return registry, nil
}

// buildIdeas chains Gemini (primary) and OpenAI (fallback), whichever have keys.
func buildIdeas(ctx context.Context, sc config.SourcesConfig, logger *zap.Logger) (*source.Ideas, error) {
	var generators []source.TextGenerator

	gemini, err := source.NewGeminiGenerator(ctx, sc.GeminiAPIKey, sc.GeminiModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini generator: %w", err)
	}
	if gemini != nil {
		generators = append(generators, gemini)
	}
	if openai := source.NewOpenAIGenerator(sc.OpenAIAPIKey, sc.OpenAIModel); openai != nil {
		generators = append(generators, openai)
	}

	if len(generators) == 0 {
		return nil, fmt.Errorf("keyword ideas need a Gemini or OpenAI API key")
	}
	return source.NewIdeas(logger, generators...), nil
}
