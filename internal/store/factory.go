package store

import (
	"context"
	"io/fs"
	"strings"

	"github.com/AlanMartines/ifpbbot/internal/config"
)

// New picks the Postgres backend when DATABASE_URL is configured, otherwise
// the embedded JSON file backend. The orchestrator never knows which one it
// got.
func New(ctx context.Context, cfg *config.Config, migrations fs.FS) (Store, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return OpenFile(cfg.SessionsFile)
	}
	return NewPostgres(ctx, cfg.DatabaseURL, migrations)
}
