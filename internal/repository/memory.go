package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/shortlink/internal/models"
)

// MemoryStore keeps everything in process memory. It enforces the same
// uniqueness and access rules as the SQL backends.
type MemoryStore struct {
	mu        sync.RWMutex
	links     map[string]models.Link
	userLinks map[string][]string
	users     map[string]models.User
	emails    map[string]string
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:     make(map[string]models.Link),
		userLinks: make(map[string][]string),
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		now:       time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) SelectLink(_ context.Context, shortCode string) (models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[shortCode]
	if !ok {
		return models.Link{}, ErrNotFound
	}
	return link, nil
}

func (s *MemoryStore) UpdateClicks(_ context.Context, shortCode string, clicks int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[shortCode]
	if !ok {
		return ErrNotFound
	}
	link.Clicks = clicks
	s.links[shortCode] = link
	return nil
}

func (s *MemoryStore) InsertLink(_ context.Context, link models.Link) (models.Link, error) {
	if err := checkInsertPolicy(link.Owner); err != nil {
		return models.Link{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.ShortCode]; exists {
		return models.Link{}, newStoreError(KindConstraint, shortCodeTakenMessage, nil)
	}

	link.Clicks = 0
	link.CreatedAt = s.now().UTC()
	s.links[link.ShortCode] = link
	s.userLinks[link.Owner] = append(s.userLinks[link.Owner], link.ShortCode)

	return link, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, owner string) ([]models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := s.userLinks[owner]
	links := make([]models.Link, 0, len(codes))
	for _, code := range codes {
		if link, ok := s.links[code]; ok {
			links = append(links, link)
		}
	}
	return links, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	email := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[email]; exists {
		return models.User{}, newStoreError(KindConstraint, emailTakenMessage, nil)
	}

	user.Email = email
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = user
	s.emails[email] = user.ID

	return user, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
