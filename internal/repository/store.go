package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/models"
)

// LinkStore is the persistence collaborator for the urls table.
type LinkStore interface {
	SelectLink(ctx context.Context, shortCode string) (models.Link, error)
	UpdateClicks(ctx context.Context, shortCode string, clicks int64) error
	InsertLink(ctx context.Context, link models.Link) (models.Link, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Link, error)
}

// UserStore persists accounts for the auth provider.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
}

type Store interface {
	LinkStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the DSN: empty means in-memory, postgres
// URLs or key/value DSNs go to PostgreSQL, file and libsql DSNs to SQLite.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (Store, error) {
	dsn = strings.TrimSpace(dsn)

	switch {
	case dsn == "":
		logger.Info("Using in-memory repository")
		return NewMemoryStore(), nil
	case isPostgresDSN(dsn):
		return NewPostgresStore(ctx, dsn, logger)
	case isSQLiteDSN(dsn):
		return NewSQLiteStore(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported database dsn %q", redactDSN(dsn))
	}
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func isSQLiteDSN(dsn string) bool {
	if strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		return true
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(dsn, ext) {
			return true
		}
	}
	return false
}

func redactDSN(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	return "..."
}
