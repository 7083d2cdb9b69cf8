package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.True(t, cfg.Errors.ExposeDetail)
}

func TestLoadProductionHidesErrorDetail(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Errors.ExposeDetail)

	t.Setenv("EXPOSE_ERROR_DETAIL", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Errors.ExposeDetail)
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "p@ss", Name: "enrollment", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5433/enrollment?sslmode=disable", db.URL())
	assert.Equal(t, "host=db port=5433 user=app password=p@ss dbname=enrollment sslmode=disable", db.DSN())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
}
