package app

import (
	"context"
	"testing"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func offlineConfig() *config.Config {
	return &config.Config{
		Research: config.ResearchConfig{
			MaxSeeds:       50,
			Breadth:        10,
			MaxCandidates:  100,
			Concurrency:    4,
			Attempts:       1,
			CallTimeout:    time.Second,
			KeywordTimeout: 2 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Storage: config.StorageConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: ":memory:",
		},
	}
}

func TestBuildWithoutSources(t *testing.T) {
	cfg := offlineConfig()
	cfg.Sources.EnableVariations = true

	c, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, []string{"variations"}, c.Sources.Names())
	require.Nil(t, c.Cache)

	resp, err := c.Aggregator.Run(context.Background(), domain.ResearchRequest{RawInput: "coloring book"})
	require.NoError(t, err)
	require.Equal(t, "coloring book", resp.Results[0].Keyword.String())
	require.Greater(t, resp.TotalKeywords, 1)

	require.NoError(t, c.Store.Autosave(context.Background(), resp.Results))
	require.NotNil(t, c.NewServer())
}

func TestBuildRegistersEnabledSources(t *testing.T) {
	cfg := offlineConfig()
	cfg.Sources = config.SourcesConfig{
		Country:           "UK",
		EnableGoogle:      true,
		EnableDuckDuckGo:  true,
		EnableAmazon:      true,
		EnableTrends:      true,
		EnableMarketplace: true,
		EnableIdeas:       true,
		OpenAIAPIKey:      "sk-test",
	}

	registry, err := buildSources(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer registry.Close()

	require.Equal(t, []string{
		"google_autocomplete", "duckduckgo", "amazon_completion", "google_trends", "llm_ideas", "amazon_search",
	}, registry.Names())

	measurers := registry.Measurers()
	require.Len(t, measurers, 2)
	require.Equal(t, "google_trends", measurers[0].Name(), "trends outranks the marketplace")
}

func TestBuildIdeasNeedsAKey(t *testing.T) {
	_, err := buildIdeas(context.Background(), config.SourcesConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := offlineConfig()
	cfg.Storage.Driver = "mysql"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unsupported storage driver")
}
