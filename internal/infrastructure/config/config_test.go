package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "forum", cfg.Mongo.Database)
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, BackendMemory, cfg.Events.Backend)
	assert.Equal(t, 1024, cfg.Events.Buffer)
	assert.Equal(t, time.Millisecond, cfg.Loader.Wait)
	assert.Equal(t, 100, cfg.Loader.MaxBatch)
	assert.Equal(t, 20.0, cfg.Rate.RPS)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    "s3cret",
		"ENV":           "production",
		"CACHE_BACKEND": "memory",
		"CACHE_TTL":     "30s",
		"LOADER_WAIT":   "5ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Millisecond, cfg.Loader.Wait)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"unknown cache", map[string]string{"JWT_SECRET": "x", "CACHE_BACKEND": "disk"}, "CACHE_BACKEND"},
		{"unknown bus", map[string]string{"JWT_SECRET": "x", "EVENT_BUS": "kafka"}, "EVENT_BUS"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "CACHE_TTL": "soon"}, "CACHE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
