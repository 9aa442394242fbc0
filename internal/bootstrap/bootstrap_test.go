package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"food-co2-estimator/internal/core/emission"
	"food-co2-estimator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	cfg := config.Defaults()
	cfg.Database.Path = filepath.Join(t.TempDir(), "emissions.db")
	cfg.Cache.Backend = "memory"
	cfg.Search.APIKey = ""
	cfg.Queue.Workers = 1

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Estimator)
	assert.NotNil(t, app.Queue)
	assert.Equal(t, "memory", app.CacheBackend())
	require.NoError(t, app.Repo.Ping(context.Background()))

	require.NoError(t, app.Repo.Upsert(context.Background(), emission.Factor{Name: "Potatoes", CO2PerKg: 0.2}))
	n, err := app.Repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildWithoutCache(t *testing.T) {
	cfg := config.Defaults()
	cfg.Database.Path = filepath.Join(t.TempDir(), "emissions.db")
	cfg.Cache.Enabled = false

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, app.CacheBackend())
	assert.NoError(t, app.Close())
}
