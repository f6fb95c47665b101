package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/models"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

var linkColumns = []string{"short_code", "long_url", "clicks", "user_id", "created_at"}

var userColumns = []string{"id", "email", "password_hash", "created_at"}

type PostgresStore struct {
	pool   *pgxpool.Pool
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn, logger); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL repository initialized successfully")

	return &PostgresStore{
		pool:   pool,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}, nil
}

func runMigrations(dsn string, logger *zap.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("Migrations applied successfully")
	return nil
}

func (p *PostgresStore) SelectLink(ctx context.Context, shortCode string) (models.Link, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From("urls").
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return models.Link{}, fmt.Errorf("build query: %w", err)
	}

	var link models.Link
	err = p.pool.QueryRow(ctx, query, args...).
		Scan(&link.ShortCode, &link.LongURL, &link.Clicks, &link.Owner, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Link{}, ErrNotFound
		}
		return models.Link{}, fmt.Errorf("query row: %w", err)
	}

	return link, nil
}

func (p *PostgresStore) UpdateClicks(ctx context.Context, shortCode string, clicks int64) error {
	query, args, err := p.sb.
		Update("urls").
		Set("clicks", clicks).
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresStore) InsertLink(ctx context.Context, link models.Link) (models.Link, error) {
	if err := checkInsertPolicy(link.Owner); err != nil {
		return models.Link{}, err
	}

	query, args, err := p.sb.
		Insert("urls").
		Columns("short_code", "long_url", "user_id").
		Values(link.ShortCode, link.LongURL, link.Owner).
		Suffix("RETURNING clicks, created_at").
		ToSql()
	if err != nil {
		return models.Link{}, fmt.Errorf("build query: %w", err)
	}

	if err := p.pool.QueryRow(ctx, query, args...).Scan(&link.Clicks, &link.CreatedAt); err != nil {
		return models.Link{}, classifyPgError("insert link", err)
	}

	return link, nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]models.Link, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From("urls").
		Where(squirrel.Eq{"user_id": owner}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query owner links: %w", err)
	}
	defer rows.Close()

	links := make([]models.Link, 0)
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ShortCode, &link.LongURL, &link.Clicks, &link.Owner, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return links, nil
}

func (p *PostgresStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query, args, err := p.sb.
		Insert("users").
		Columns("id", "email", "password_hash").
		Values(user.ID, user.Email, user.PasswordHash).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build query: %w", err)
	}

	if err := p.pool.QueryRow(ctx, query, args...).Scan(&user.CreatedAt); err != nil {
		return models.User{}, classifyPgError("insert user", err)
	}

	return user, nil
}

func (p *PostgresStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return p.selectUser(ctx, squirrel.Eq{"email": email})
}

func (p *PostgresStore) UserByID(ctx context.Context, id string) (models.User, error) {
	return p.selectUser(ctx, squirrel.Eq{"id": id})
}

func (p *PostgresStore) selectUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	query, args, err := p.sb.
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build query: %w", err)
	}

	var user models.User
	err = p.pool.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query row: %w", err)
	}

	return user, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// classifyPgError keeps the server's message for rejections the user can
// act on and hides everything else behind a generic transient error.
func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return newStoreError(KindConstraint, pgErr.Message, err)
		case pgerrcode.InsufficientPrivilege:
			return newStoreError(KindPolicy, pgErr.Message, err)
		}
	}
	return transientError(op, err)
}
