package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
)

// HomePath is where unresolvable short codes are sent.
const HomePath = "/"

var ErrEmptyURL = errors.New("empty url")

type Options struct {
	BaseURL           string
	Generator         CodeGenerator
	ClickWorkers      int
	ClickQueueSize    int
	ClickWriteTimeout time.Duration
}

type ShortenerService struct {
	store     repository.LinkStore
	generator CodeGenerator
	clicks    *ClickRecorder
	baseURL   string
	logger    *zap.Logger
}

func NewShortenerService(store repository.LinkStore, opts Options, logger *zap.Logger) *ShortenerService {
	generator := opts.Generator
	if generator == nil {
		generator = RandomCodeGenerator{}
	}

	return &ShortenerService{
		store:     store,
		generator: generator,
		clicks:    NewClickRecorder(store, opts.ClickWorkers, opts.ClickQueueSize, opts.ClickWriteTimeout, logger),
		baseURL:   opts.BaseURL,
		logger:    logger,
	}
}

// CreateShortURL stores longURL under a fresh code owned by owner and
// returns the record with its full short URL. A rejected insert is
// returned as is; the code is not regenerated.
func (s *ShortenerService) CreateShortURL(ctx context.Context, owner, longURL string) (models.Link, string, error) {
	if strings.TrimSpace(longURL) == "" {
		s.logger.Warn("Attempt to create short URL for empty string")
		return models.Link{}, "", ErrEmptyURL
	}

	shortCode, err := s.generator.Generate()
	if err != nil {
		metrics.LinksCreatedTotal.WithLabelValues("error").Inc()
		return models.Link{}, "", fmt.Errorf("generate short code: %w", err)
	}

	link, err := s.store.InsertLink(ctx, models.Link{
		ShortCode: shortCode,
		LongURL:   longURL,
		Owner:     owner,
	})
	if err != nil {
		var storeErr *repository.StoreError
		result := "error"
		if errors.As(err, &storeErr) {
			result = storeErr.Kind.String()
		}
		metrics.LinksCreatedTotal.WithLabelValues(result).Inc()

		s.logger.Warn("Failed to save short URL",
			zap.String("shortCode", shortCode),
			zap.String("owner", owner),
			zap.String("kind", result),
			zap.Error(err))
		return models.Link{}, "", err
	}

	metrics.LinksCreatedTotal.WithLabelValues("ok").Inc()

	return link, s.ShortURL(link.ShortCode), nil
}

func (s *ShortenerService) GetUserURLs(ctx context.Context, owner string) ([]models.UserURL, error) {
	links, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list user urls: %w", err)
	}

	userURLs := make([]models.UserURL, 0, len(links))
	for _, link := range links {
		userURLs = append(userURLs, models.UserURL{
			ShortURL:    s.ShortURL(link.ShortCode),
			OriginalURL: link.LongURL,
			Clicks:      link.Clicks,
		})
	}

	return userURLs, nil
}

func (s *ShortenerService) ShortURL(shortCode string) string {
	fullURL, err := url.JoinPath(s.baseURL, shortCode)
	if err != nil {
		return strings.TrimRight(s.baseURL, "/") + "/" + shortCode
	}
	return fullURL
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close flushes pending click writes.
func (s *ShortenerService) Close() {
	s.clicks.Close()
}
