package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromFile 验证 YAML 配置能被正确加载并填充默认值
func TestLoadConfigFromFile(t *testing.T) {
	content := `
groq:
  api_key: "test-key"
  model: "llama-3.3-70b-versatile"
  qpm: 25
sandbox:
  base_url: "http://localhost:9001"
  api_key: "sandbox_demo_key_2026"
batch:
  pacing_seconds: 2
data:
  dir: "/tmp/auto-apply-test"
model_qpm_limits:
  llama-3.3-70b-versatile: 30
  llama-3.1-8b-instant: 30
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadConfigFromFileOnly(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "test-key", cfg.Groq.APIKey)
	assert.Equal(t, 25, cfg.Groq.QPM)
	assert.Equal(t, "http://localhost:9001", cfg.Sandbox.BaseURL)
	assert.Equal(t, "sandbox_demo_key_2026", cfg.Sandbox.APIKey)
	assert.Equal(t, 2, cfg.Batch.PacingSeconds)
	assert.Equal(t, "/tmp/auto-apply-test", cfg.Data.Dir)
	assert.Equal(t, map[string]int{
		"llama-3.3-70b-versatile": 30,
		"llama-3.1-8b-instant":    30,
	}, cfg.ModelQPMLimits)

	// 未配置项应被默认值填充
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.FastModel)
	assert.Equal(t, 3, cfg.Sandbox.MaxAttempts)
	assert.Equal(t, 10, cfg.Sandbox.TimeoutSeconds)
}

// TestLoadConfigEnvOverride 验证环境变量覆盖文件中的密钥配置
func TestLoadConfigEnvOverride(t *testing.T) {
	content := `
groq:
  api_key: "file-key"
sandbox:
  api_key: "file-sandbox-key"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	t.Setenv("GROQ_API_KEY", "env-key")
	t.Setenv("SANDBOX_API_KEY", "env-sandbox-key")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Groq.APIKey)
	assert.Equal(t, "env-sandbox-key", cfg.Sandbox.APIKey)
}

// TestLoadConfigFromFileOnlyRequiresPath 验证不带路径时报错
func TestLoadConfigFromFileOnlyRequiresPath(t *testing.T) {
	_, err := LoadConfigFromFileOnly("")
	assert.Error(t, err)

	_, err = LoadConfigFromFileOnly("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestLoadConfigMalformedYAML 验证坏的 YAML 返回解析错误
func TestLoadConfigMalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("groq: [}"), 0644))

	_, err := LoadConfigFromFileOnly(configPath)
	assert.Error(t, err)
}
