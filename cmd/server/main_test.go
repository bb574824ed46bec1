package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsearch/internal/config"
	"cmsearch/pkg/logger"
)

func TestRun_ReturnsStartupErrors(t *testing.T) {
	cfg := &config.Config{
		App:      config.AppConfig{Port: "0", Env: "test"},
		Database: config.DatabaseConfig{URL: "postgres://%zz", MaxConns: 1},
		Auth:     config.AuthConfig{JWTSecret: "secret", Issuer: "cmsearch"},
		Search:   config.SearchConfig{DefaultLimit: 20, MaxLimit: 100},
	}

	err := run(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to database")
}
