// Package auth is the session-based identity provider: sign-up, sign-in,
// sign-out, current user lookup and session change notifications.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserExists         = errors.New("user already registered")
	ErrInvalidSession     = errors.New("invalid session")
)

const defaultIssuer = "shortlink"

type Config struct {
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
}

type Provider struct {
	users      repository.UserStore
	notifier   Notifier
	revoked    RevocationList
	validate   *validator.Validate
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

func NewProvider(users repository.UserStore, cfg Config, notifier Notifier, revoked RevocationList, logger *zap.Logger) (*Provider, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Provider{
		users:      users,
		notifier:   notifier,
		revoked:    revoked,
		validate:   validator.New(),
		secret:     []byte(cfg.Secret),
		ttl:        cfg.SessionTTL,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (models.User, error) {
	creds := models.Credentials{Email: normalizeEmail(email), Password: password}
	if err := p.validate.Struct(&creds); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := p.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if repository.IsKind(err, repository.KindConstraint) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	p.publish(ctx, models.EventUserCreated, user.ID)
	p.logger.Info("User signed up", zap.String("userID", user.ID))

	return user, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	user, err := p.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}

	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    defaultIssuer,
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return models.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	p.publish(ctx, models.EventSignedIn, user.ID)

	return models.Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// SignOut revokes the session until it would have expired anyway.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(p.now())
	if err := p.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	p.publish(ctx, models.EventSignedOut, claims.Subject)

	return nil
}

func (p *Provider) CurrentUser(ctx context.Context, token string) (models.User, error) {
	claims, err := p.parse(token)
	if err != nil {
		return models.User{}, err
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return models.User{}, ErrInvalidSession
	}

	user, err := p.users.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, ErrInvalidSession
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	return user, nil
}

// Subscribe registers fn for every session change. Call the returned
// function to stop receiving events.
func (p *Provider) Subscribe(fn func(models.AuthEvent)) func() {
	return p.notifier.Subscribe(fn)
}

func (p *Provider) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(defaultIssuer),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func (p *Provider) publish(ctx context.Context, eventType models.AuthEventType, userID string) {
	event := models.AuthEvent{Type: eventType, UserID: userID, At: p.now().UTC()}
	if err := p.notifier.Publish(ctx, event); err != nil {
		p.logger.Warn("Failed to publish auth event",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "email":
			msgs = append(msgs, "email is not valid")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
