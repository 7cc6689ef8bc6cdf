package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
server:
  listen: ":9090"
  timeout: 45s

schedule:
  tick_interval: 30s
  max_workers: 8
  max_daily_attempts: 3
  notify_on_give_up: true

sources:
  timeout: 10s
  retries: 1
  budget: 20s

ranking:
  max_candidates: 8
  momentum:
    endpoint: http://localhost:9000/momentum

llm:
  endpoint: https://api.openai.com/v1
  api_key: key
  model: gpt-4o-mini
  retries: 4

delivery:
  smtp:
    host: smtp.example.com
    from: news@example.com
  telegram:
    token: bot-token
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 30*time.Second, cfg.Schedule.TickInterval)
		assert.Equal(t, 8, cfg.Schedule.MaxWorkers)
		assert.Equal(t, 3, cfg.Schedule.MaxDailyAttempts)
		assert.True(t, cfg.Schedule.NotifyOnGiveUp)
		assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
		assert.Equal(t, 1, cfg.Sources.Retries)
		assert.Equal(t, 20*time.Second, cfg.Sources.Budget)
		assert.Equal(t, 8, cfg.Ranking.MaxCandidates)
		assert.Equal(t, "http://localhost:9000/momentum", cfg.Ranking.Momentum.Endpoint)
		assert.Equal(t, 4, cfg.LLM.Retries)
		assert.Equal(t, "smtp.example.com", cfg.Delivery.SMTP.Host)
		assert.Equal(t, 587, cfg.Delivery.SMTP.Port)
		assert.Equal(t, "bot-token", cfg.Delivery.Telegram.Token)
		assert.ElementsMatch(t, []string{"key", "bot-token"}, cfg.Secrets())
	})

	t.Run("defaults", func(t *testing.T) {
		configContent := `
llm:
  endpoint: http://localhost:11434/v1
  model: llama3
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, time.Minute, cfg.Schedule.TickInterval)
		assert.Equal(t, 2*time.Minute, cfg.Schedule.RunTimeout)
		assert.Equal(t, 5, cfg.Schedule.MaxDailyAttempts)
		assert.False(t, cfg.Schedule.NotifyOnGiveUp)
		assert.Equal(t, 15*time.Second, cfg.Sources.Timeout)
		assert.Equal(t, 2, cfg.Sources.Retries)
		assert.Equal(t, 30*time.Second, cfg.Sources.Budget)
		assert.Equal(t, 6, cfg.Ranking.MaxCandidates)
		assert.Equal(t, 24*time.Hour, cfg.Ranking.HalfLife)
		assert.Equal(t, 3, cfg.LLM.Retries)
		assert.Equal(t, 64*1024, cfg.LLM.MaxContentSize)
		assert.Equal(t, 2, cfg.Delivery.Retries)
		assert.Equal(t, "https://api.telegram.org", cfg.Delivery.Telegram.APIURL)
		assert.Contains(t, cfg.Sources.SocialHandleURL, "{handle}")
		assert.Empty(t, cfg.Secrets())
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("NEWSDRAFT_TEST_KEY", "secret-from-env")
		cfg, err := Parse([]byte(`
llm:
  endpoint: http://localhost/v1
  model: m
  api_key: ${NEWSDRAFT_TEST_KEY}
`))
		require.NoError(t, err)
		assert.Equal(t, "secret-from-env", cfg.LLM.APIKey)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		cfg, err := Parse([]byte("llm: [unclosed"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{name: "missing endpoint", yaml: "llm:\n  model: m\n", errMsg: "llm.endpoint is required"},
		{name: "missing model", yaml: "llm:\n  endpoint: http://x\n", errMsg: "llm.model is required"},
		{name: "bad temperature", yaml: "llm:\n  endpoint: http://x\n  model: m\n  temperature: 3\n",
			errMsg: "llm.temperature must be between 0 and 2"},
		{name: "budget shorter than timeout", yaml: "llm:\n  endpoint: http://x\n  model: m\nsources:\n  timeout: 20s\n  budget: 10s\n",
			errMsg: "sources.budget must not be shorter than sources.timeout"},
		{name: "handle template without placeholder", yaml: "llm:\n  endpoint: http://x\n  model: m\nsources:\n  social_handle_url: http://bridge/rss\n",
			errMsg: "sources.social_handle_url must contain {handle}"},
		{name: "smtp without sender", yaml: "llm:\n  endpoint: http://x\n  model: m\ndelivery:\n  smtp:\n    host: smtp.example.com\n",
			errMsg: "delivery.smtp.from is required"},
		{name: "tiny tick", yaml: "llm:\n  endpoint: http://x\n  model: m\nschedule:\n  tick_interval: 10ms\n",
			errMsg: "schedule.tick_interval must be at least 1 second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
