package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("RESEARCH_BREADTH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)
	require.Equal(t, 10, cfg.Research.Breadth)
	require.Equal(t, 50, cfg.Research.MaxSeeds)
	require.False(t, cfg.Sources.EnableVariations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESEARCH_BREADTH", "4")
	t.Setenv("RESEARCH_CALL_TIMEOUT", "3s")
	t.Setenv("RESEARCH_KEYWORD_TIMEOUT", "12")
	t.Setenv("SOURCE_COUNTRY", "gb")
	t.Setenv("SOURCE_TRENDS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Research.Breadth)
	require.Equal(t, 3*time.Second, cfg.Research.CallTimeout)
	require.Equal(t, 12*time.Second, cfg.Research.KeywordTimeout)
	require.Equal(t, "GB", cfg.Sources.Country)
	require.False(t, cfg.Sources.EnableTrends)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongodb")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported STORAGE_DRIVER")
}

func TestValidateIdeasNeedsAKey(t *testing.T) {
	t.Setenv("SOURCE_IDEAS_ENABLED", "true")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}
