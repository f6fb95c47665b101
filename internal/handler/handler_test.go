package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/shortlink/internal/auth"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
	"github.com/mmeshcher/shortlink/internal/service"
)

const testBaseURL = "http://localhost:8080"

type sequenceGenerator struct {
	codes []string
	next  int
}

func (g *sequenceGenerator) Generate() (string, error) {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code, nil
}

type testEnv struct {
	store    *repository.MemoryStore
	service  *service.ShortenerService
	provider *auth.Provider
	router   http.Handler
}

func newTestEnv(t *testing.T, gen service.CodeGenerator) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	store := repository.NewMemoryStore()
	svc := service.NewShortenerService(store, service.Options{
		BaseURL:           testBaseURL,
		Generator:         gen,
		ClickWorkers:      1,
		ClickQueueSize:    16,
		ClickWriteTimeout: time.Second,
	}, logger)
	t.Cleanup(svc.Close)

	provider, err := auth.NewProvider(store, auth.Config{
		Secret:     "test-secret-key",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, auth.NewLocalNotifier(), auth.NewMemoryRevocations(), logger)
	require.NoError(t, err)

	h := NewHandler(svc, provider, logger, time.Second)

	return &testEnv{
		store:    store,
		service:  svc,
		provider: provider,
		router:   h.SetupRouter(),
	}
}

// signIn registers email and returns a session cookie for it.
func (e *testEnv) signIn(t *testing.T, email string) (*http.Cookie, models.User) {
	t.Helper()
	ctx := context.Background()

	user, err := e.provider.SignUp(ctx, email, "password1")
	require.NoError(t, err)

	session, err := e.provider.SignIn(ctx, email, "password1")
	require.NoError(t, err)

	return &http.Cookie{Name: "session", Value: session.AccessToken}, user
}

func (e *testEnv) seed(t *testing.T, code, longURL string, clicks int64) {
	t.Helper()
	ctx := context.Background()

	_, err := e.store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: longURL, Owner: "seed-owner"})
	require.NoError(t, err)
	require.NoError(t, e.store.UpdateClicks(ctx, code, clicks))
}
