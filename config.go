package folio

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrConfiguration is returned when a required startup setting is missing.
// Callers are expected to abort before the server binds; there is no retry
// path for a misconfigured deployment.
var ErrConfiguration = errors.New("configuration error")

// Config holds all settings for a folio site. Everything comes from
// environment variables; cmd/folio loads a .env file first so local
// deployments can keep secrets out of the shell profile.
type Config struct {
	Addr         string `env:"FOLIO_ADDR" env-default:":3000"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"data/folio.db"`
	StaticDir    string `env:"STATIC_DIR" env-default:"public"`

	SiteName string `env:"SITE_NAME" env-default:"Portfolio"`
	SiteURL  string `env:"SITE_URL" env-default:"http://localhost:3000"`

	AdminPassword string `env:"ADMIN_PASSWORD"`
	SessionSecret string `env:"ADMIN_SESSION_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE" env-default:"false"`

	// SnapshotTTL bounds how long public reads may serve a cached
	// portfolio snapshot before the next read triggers a refresh.
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" env-default:"5m"`

	Email EmailConfig
	Chat  ChatConfig
}

// EmailConfig holds the transactional-email integration settings.
// All three identifiers are optional: when any is missing the contact form
// still stores messages, it just skips the outbound notification.
type EmailConfig struct {
	ServiceID  string `env:"EMAIL_SERVICE_ID" env-default:""`
	TemplateID string `env:"EMAIL_TEMPLATE_ID" env-default:""`
	PublicKey  string `env:"EMAIL_PUBLIC_KEY" env-default:""`
	Endpoint   string `env:"EMAIL_ENDPOINT" env-default:"https://api.emailjs.com/api/v1.0/email/send"`
}

// Enabled reports whether the email integration is fully configured.
func (c EmailConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// ChatConfig holds the optional OpenAI-compatible LLM endpoint for the
// chatbot. When unset the bot answers from the knowledge base and canned
// topic rules only.
type ChatConfig struct {
	LLMEndpoint string `env:"CHAT_LLM_ENDPOINT" env-default:""`
	LLMModel    string `env:"CHAT_LLM_MODEL" env-default:""`
	LLMAPIKey   string `env:"CHAT_LLM_API_KEY" env-default:""`
}

// LLMAvailable reports whether the generative path is configured.
func (c ChatConfig) LLMAvailable() bool {
	return c.LLMEndpoint != "" && c.LLMModel != ""
}

// LoadConfig reads configuration from the environment and validates the
// settings the engine cannot run without.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the fail-fast contract: the store path and admin
// credentials must be present before anything else initializes.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: DATABASE_PATH is required", ErrConfiguration)
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("%w: ADMIN_PASSWORD is required", ErrConfiguration)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("%w: ADMIN_SESSION_SECRET is required", ErrConfiguration)
	}
	return nil
}
