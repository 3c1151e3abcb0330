package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simgate/simgate/pkg/persistence"
	"github.com/simgate/simgate/pkg/persistence/file"
	"github.com/simgate/simgate/pkg/persistence/postgresql"
)

// NewPersistence selects the run store by URL scheme: postgres:// connects
// and migrates a PostgreSQL database, anything else is treated as a
// directory path for the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		pers, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to PostgreSQL: %w", err))
		}

		return pers
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres"
	default:
		return "file"
	}
}
