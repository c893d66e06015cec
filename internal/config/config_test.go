package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE", "DB_PATH", "DATABASE_URL", "LATENCY", "DOCS_PATH", "API_URL", "REQUEST_TIMEOUT", "REVALIDATE_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "db.json", cfg.DBPath)
	assert.Equal(t, 300*time.Millisecond, cfg.Latency)
	assert.Equal(t, "README.md", cfg.DocsPath)
	assert.Equal(t, "http://localhost:3001", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.RevalidateInterval)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name: "overrides",
			env:  map[string]string{"PORT": "8080", "STORE": "postgres", "LATENCY": "0s", "REVALIDATE_INTERVAL": "1m"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, StorePostgres, cfg.Store)
				assert.Zero(t, cfg.Latency)
				assert.Equal(t, time.Minute, cfg.RevalidateInterval)
			},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"LATENCY": "soon"},
			wantErr: true,
		},
		{
			name:    "negative duration",
			env:     map[string]string{"REQUEST_TIMEOUT": "-1s"},
			wantErr: true,
		},
		{
			name:    "unknown store",
			env:     map[string]string{"STORE": "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
