package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Telegram
	BotToken string `env:"BOT_TOKEN,required,notEmpty"`

	// Dialogflow service account. Missing credentials abort startup.
	ProjectID    string `env:"PROJECT_ID,required,notEmpty"`
	ClientEmail  string `env:"CLIENT_EMAIL,required,notEmpty"`
	PrivateKey   string `env:"PRIVATE_KEY,required,notEmpty"`
	PrivateKeyID string `env:"PRIVATE_KEY_ID"`
	TokenURI     string `env:"TOKEN_URI" envDefault:"https://oauth2.googleapis.com/token"`
	LanguageCode string `env:"LANGUAGE_CODE" envDefault:"pt-BR"`

	// Session store. DATABASE_URL selects the Postgres backend; without it
	// sessions persist to a local JSON file.
	DatabaseURL  string `env:"DATABASE_URL"`
	SessionsFile string `env:"SESSIONS_FILE" envDefault:"df-sessions.json"`

	// Context replay threshold in milliseconds.
	ContextReplayMs int `env:"CONTEXT_REPLAY_MS" envDefault:"300000"`

	// Web chat / status server
	Port int `env:"PORT" envDefault:"3000"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DialogflowPrivateKey returns the service-account key with literal "\n"
// sequences restored to newlines, the way PEM blocks arrive via env vars.
func (c *Config) DialogflowPrivateKey() string {
	return strings.ReplaceAll(c.PrivateKey, `\n`, "\n")
}

// ReplayThreshold is the idle time after which stored contexts are replayed
// to the NLU backend before the next utterance.
func (c *Config) ReplayThreshold() time.Duration {
	return time.Duration(c.ContextReplayMs) * time.Millisecond
}
