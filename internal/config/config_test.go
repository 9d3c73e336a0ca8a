package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SESSION_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 60, cfg.Catalog.QueryLimit)
	assert.Equal(t, 5*time.Second, cfg.Catalog.QueryTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SELECTION_WORKERS", "0")
	t.Setenv("CATALOG_QUERY_TIMEOUT", "250ms")
	t.Setenv("ALTERNATIVES_DEFAULT_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 1, cfg.Selection.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Catalog.QueryTimeout)
	assert.Equal(t, 6, cfg.Alternatives.DefaultLimit)
}

func TestLoad_InvalidSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.GetPostgreSQLDSN())
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric", "1", false, true},
		{"false", "false", true, false},
		{"invalid uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FURNISHER_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvAsBool("FURNISHER_TEST_BOOL", tt.def))
		})
	}
}
