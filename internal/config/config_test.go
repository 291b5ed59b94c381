package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, "rule", string(cfg.DefaultPolicyKind()))
	assert.Equal(t, EngineOpenAI, cfg.Providers.CandidateA)
	assert.Equal(t, EngineGemini, cfg.Providers.CandidateB)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := writeYAML(t, `
listen_addr: ":9000"
store:
  driver: memory
cache:
  stats_ttl: 30s
serving:
  default_policy: ltr
  artifacts_dir: /srv/artifacts
providers:
  candidate_a: openrouter
  candidate_b: anthropic
  engines:
    openrouter:
      model: meta/llama
stats:
  timezone: Asia/Seoul
`)
	t.Setenv("PORT", "7000")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("ANTHROPIC_TIMEOUT_S", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "ltr", string(cfg.DefaultPolicyKind()))
	assert.Equal(t, "/srv/artifacts", cfg.Serving.ArtifactsDir)

	or := cfg.Providers.Engine(EngineOpenRouter)
	assert.Equal(t, "meta/llama", or.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", or.BaseURL, "partial engine blocks keep defaults")
	assert.Equal(t, 2500*time.Millisecond, cfg.Providers.Engine(EngineAnthropic).Timeout)

	loc, err := cfg.Stats.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestEnabledEnginesEnv(t *testing.T) {
	t.Setenv("ENABLED_ENGINES", "dummy_openai, dummy_gemini")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, EngineDummyOpenAI, cfg.Providers.CandidateA)
	assert.Equal(t, EngineDummyGemini, cfg.Providers.CandidateB)
	assert.Equal(t, "gemini-2.0-flash", cfg.Providers.Engine(EngineDummyGemini).Model)

	t.Setenv("ENABLED_ENGINES", "openai")
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown driver", func(c *AppConfig) { c.Store.Driver = "postgres" }},
		{"unknown policy", func(c *AppConfig) { c.Serving.DefaultPolicy = "random" }},
		{"same engine twice", func(c *AppConfig) { c.Providers.CandidateB = c.Providers.CandidateA }},
		{"unknown engine", func(c *AppConfig) { c.Providers.CandidateA = "llama" }},
		{"bad timezone", func(c *AppConfig) { c.Stats.Timezone = "Mars/Olympus" }},
		{"bad rule expr", func(c *AppConfig) { c.Serving.RuleScoreExpr = "c.len_chars +" }},
		{"auth without secret", func(c *AppConfig) { c.Auth.Enabled = true; c.Auth.Password = "pw" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsRuleExpr(t *testing.T) {
	cfg := Default()
	cfg.Serving.RuleScoreExpr = "(c.has_code ? 2 : 0) + c.step_score"
	assert.NoError(t, cfg.Validate())
}
