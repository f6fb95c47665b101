package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/repository"
)

// Resolve returns the redirect target for shortCode. Any lookup failure
// resolves to HomePath with found=false. A hit queues the click increment
// and does not wait for it.
func (s *ShortenerService) Resolve(ctx context.Context, shortCode string) (string, bool) {
	link, err := s.store.SelectLink(ctx, shortCode)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Short code lookup failed",
				zap.String("shortCode", shortCode),
				zap.Error(err))
		}
		metrics.RedirectsTotal.WithLabelValues("fallback").Inc()
		return HomePath, false
	}

	s.clicks.Record(ClickTask{ShortCode: shortCode})

	metrics.RedirectsTotal.WithLabelValues("hit").Inc()
	return NormalizeURL(link.LongURL), true
}
