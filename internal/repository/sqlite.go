package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmeshcher/shortlink/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	short_code TEXT    NOT NULL UNIQUE,
	long_url   TEXT    NOT NULL,
	clicks     INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
	user_id    TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_urls_user_id ON urls(user_id);
`

// SQLiteStore serves local SQLite files through modernc.org/sqlite and
// remote libsql databases through the libsql client.
type SQLiteStore struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
	now    func() time.Time
}

func NewSQLiteStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLiteStore, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("SQLite repository initialized successfully", zap.String("driver", driverName))

	return &SQLiteStore{
		db:     db,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: logger,
		now:    time.Now,
	}, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) SelectLink(ctx context.Context, shortCode string) (models.Link, error) {
	query, args, err := s.sb.
		Select(linkColumns...).
		From("urls").
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return models.Link{}, fmt.Errorf("build query: %w", err)
	}

	link, err := scanLink(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Link{}, ErrNotFound
		}
		return models.Link{}, fmt.Errorf("query row: %w", err)
	}

	return link, nil
}

func (s *SQLiteStore) UpdateClicks(ctx context.Context, shortCode string, clicks int64) error {
	query, args, err := s.sb.
		Update("urls").
		Set("clicks", clicks).
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) InsertLink(ctx context.Context, link models.Link) (models.Link, error) {
	if err := checkInsertPolicy(link.Owner); err != nil {
		return models.Link{}, err
	}

	link.Clicks = 0
	link.CreatedAt = s.now().UTC().Truncate(time.Second)

	query, args, err := s.sb.
		Insert("urls").
		Columns("short_code", "long_url", "clicks", "user_id", "created_at").
		Values(link.ShortCode, link.LongURL, link.Clicks, link.Owner, link.CreatedAt.Unix()).
		ToSql()
	if err != nil {
		return models.Link{}, fmt.Errorf("build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Link{}, classifySQLiteError("insert link", shortCodeTakenMessage, err)
	}

	return link, nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]models.Link, error) {
	query, args, err := s.sb.
		Select(linkColumns...).
		From("urls").
		Where(squirrel.Eq{"user_id": owner}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query owner links: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	links := make([]models.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return links, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	user.CreatedAt = s.now().UTC().Truncate(time.Second)

	query, args, err := s.sb.
		Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.PasswordHash, user.CreatedAt.Unix()).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.User{}, classifySQLiteError("insert user", emailTakenMessage, err)
	}

	return user, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.selectUser(ctx, squirrel.Eq{"email": email})
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.selectUser(ctx, squirrel.Eq{"id": id})
}

func (s *SQLiteStore) selectUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	query, args, err := s.sb.
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build query: %w", err)
	}

	var (
		user      models.User
		createdAt int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query row: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()

	return user, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (models.Link, error) {
	var (
		link      models.Link
		createdAt int64
	)
	if err := row.Scan(&link.ShortCode, &link.LongURL, &link.Clicks, &link.Owner, &createdAt); err != nil {
		return models.Link{}, err
	}
	link.CreatedAt = time.Unix(createdAt, 0).UTC()
	return link, nil
}

// classifySQLiteError maps unique violations to the same message the
// PostgreSQL backend reports. The libsql client only exposes error text.
func classifySQLiteError(op, uniqueMessage string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return newStoreError(KindConstraint, uniqueMessage, err)
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return newStoreError(KindConstraint, uniqueMessage, err)
	}
	return transientError(op, err)
}
