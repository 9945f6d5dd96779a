package config_test

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/config"
)

type defaultsConfig struct {
	Name  string `env:"CFG_TEST_DEFAULT_NAME" envDefault:"gym"`
	Port  int    `env:"CFG_TEST_DEFAULT_PORT" envDefault:"8080"`
	Debug bool   `env:"CFG_TEST_DEFAULT_DEBUG" envDefault:"true"`
}

type successConfig struct {
	Name string `env:"CFG_TEST_SUCCESS_NAME"`
	Days int    `env:"CFG_TEST_SUCCESS_DAYS"`
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED,required"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED" envDefault:"first"`
}

type prefixedConfig struct {
	URL string `env:"URL" envDefault:"none"`
}

type validatedConfig struct {
	Min int `env:"CFG_TEST_MIN" envDefault:"10"`
	Max int `env:"CFG_TEST_MAX" envDefault:"5"`
}

func (c *validatedConfig) Validate() error {
	if c.Max < c.Min {
		return errors.New("max must be >= min")
	}
	return nil
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("CFG_TEST_SUCCESS_NAME", "fitness")
	t.Setenv("CFG_TEST_SUCCESS_DAYS", "30")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "fitness", cfg.Name)
	assert.Equal(t, 30, cfg.Days)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("CFG_TEST_DEFAULT_NAME")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "gym", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CFG_TEST_REQUIRED")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoad_CachedPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED", "first")

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg cachedConfig
			if err := config.Load(&cfg); err == nil {
				results[i] = cfg.Value
			}
		}(i)
	}
	wg.Wait()

	t.Setenv("CFG_TEST_CACHED", "second")
	var cfg cachedConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "first", cfg.Value)
	for _, r := range results {
		assert.Equal(t, "first", r)
	}

	var fresh cachedConfig
	require.NoError(t, config.Load(&fresh, config.WithoutCache()))
	assert.Equal(t, "second", fresh.Value)
}

func TestLoad_Prefix(t *testing.T) {
	t.Setenv("RECEIPTS_URL", "https://cdn.example.com")

	var cfg prefixedConfig
	require.NoError(t, config.Load(&cfg, config.WithPrefix("RECEIPTS_")))
	assert.Equal(t, "https://cdn.example.com", cfg.URL)

	var plain prefixedConfig
	require.NoError(t, config.Load(&plain, config.WithoutCache()))
	assert.Equal(t, "none", plain.URL)
}

func TestLoad_Validate(t *testing.T) {
	var cfg validatedConfig
	err := config.Load(&cfg, config.WithoutCache())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	t.Setenv("CFG_TEST_MAX", "20")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 20, cfg.Max)
}

func TestMustLoad_Panics(t *testing.T) {
	os.Unsetenv("CFG_TEST_REQUIRED")
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg, config.WithoutCache())
	})
}
