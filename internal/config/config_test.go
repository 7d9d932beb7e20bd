package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef" // 32 chars

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TASKWIRE_JWT_SECRET", validSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "taskwire_dev", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)

	// Optional integrations are off by default.
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Slack.BotToken)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TASKWIRE_DB_HOST", "db.internal")
	t.Setenv("TASKWIRE_DB_PORT", "5433")
	t.Setenv("TASKWIRE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("TASKWIRE_REDIS_DB", "2")
	t.Setenv("TASKWIRE_JWT_ACCESS_TTL", "5m")
	t.Setenv("TASKWIRE_SERVER_ADDR", ":9090")
	t.Setenv("TASKWIRE_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"TASKWIRE_JWT_SECRET": ""},
			wantErr: "TASKWIRE_JWT_SECRET is required",
		},
		{
			name:    "short jwt secret",
			env:     map[string]string{"TASKWIRE_JWT_SECRET": "too-short"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "bad db port",
			env:     map[string]string{"TASKWIRE_DB_PORT": "99999"},
			wantErr: "TASKWIRE_DB_PORT",
		},
		{
			name:    "unparseable int",
			env:     map[string]string{"TASKWIRE_DB_PORT": "eighty"},
			wantErr: "parsing TASKWIRE_DB_PORT",
		},
		{
			name:    "unparseable duration",
			env:     map[string]string{"TASKWIRE_JWT_ACCESS_TTL": "soon"},
			wantErr: "parsing TASKWIRE_JWT_ACCESS_TTL",
		},
		{
			name:    "negative access ttl",
			env:     map[string]string{"TASKWIRE_JWT_ACCESS_TTL": "-5m"},
			wantErr: "TASKWIRE_JWT_ACCESS_TTL must be positive",
		},
		{
			name:    "zero max conns",
			env:     map[string]string{"TASKWIRE_DB_MAX_CONNS": "0"},
			wantErr: "TASKWIRE_DB_MAX_CONNS",
		},
		{
			name:    "slack token without channel",
			env:     map[string]string{"TASKWIRE_SLACK_BOT_TOKEN": "xoxb-token"},
			wantErr: "TASKWIRE_SLACK_CHANNEL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	db := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "taskwire",
		Password: "pw", DBName: "taskwire_dev", SSLMode: "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=taskwire password=pw dbname=taskwire_dev sslmode=disable",
		db.DSN())
}
