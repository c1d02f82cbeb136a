package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("AZURE_OPENAI_CHAT_URL", "https://example.openai.azure.com/chat")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.LLM.HistoryWindow)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "app.db", cfg.DatabaseDSN())
	assert.Equal(t, "https://amrita.vault.azure.net/", cfg.KeyVaultURL())
	assert.Equal(t, "openai-api-key", cfg.Credential.SecretName)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[llm]
history_window = 8
temperature = 0.5

[storage]
backend = "memory"

[redis]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("KEYVAULT_NAME", "relay-vault")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, 8, cfg.LLM.HistoryWindow)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "", cfg.DatabaseDSN())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "https://relay-vault.vault.azure.net/", cfg.KeyVaultURL())
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)

	envPath := filepath.Join(dir, "relay.env")
	require.NoError(t, os.WriteFile(envPath, []byte("LLM_MODEL=gpt-4o-mini\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("LLM_MODEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.ChatURL = "https://example.com"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "cassandra"
	cfg.LLM.HistoryWindow = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
	assert.Contains(t, err.Error(), "history_window")

	cfg = defaultConfig()
	assert.ErrorContains(t, cfg.Validate(), "chat_url")

	cfg = defaultConfig()
	cfg.LLM.Provider = ProviderGemini
	cfg.LLM.Model = "gemini-2.0-flash"
	cfg.Credential.Source = CredentialStatic
	assert.NoError(t, cfg.Validate())
}
