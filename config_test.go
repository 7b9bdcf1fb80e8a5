package folio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("ADMIN_SESSION_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "data/folio.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotTTL)
	assert.False(t, cfg.Email.Enabled())
	assert.False(t, cfg.Chat.LLMAvailable())
}

func TestLoadConfigMissingAdminPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_SESSION_SECRET", "secret")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadConfigMissingSessionSecret(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("ADMIN_SESSION_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidateMissingDatabasePath(t *testing.T) {
	cfg := Config{AdminPassword: "x", SessionSecret: "y"}
	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestEmailConfigEnabled(t *testing.T) {
	assert.False(t, EmailConfig{ServiceID: "s", TemplateID: "t"}.Enabled())
	assert.True(t, EmailConfig{ServiceID: "s", TemplateID: "t", PublicKey: "k"}.Enabled())
}

func TestChatConfigOverrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("ADMIN_SESSION_SECRET", "secret")
	t.Setenv("CHAT_LLM_ENDPOINT", "http://localhost:11434/v1")
	t.Setenv("CHAT_LLM_MODEL", "qwen2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Chat.LLMAvailable())
}
