package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

var _ repository.UserRepository = (*Users)(nil)

func (s *Users) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(user)
}

func (s *Users) CreateFirstAdmin(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Role == domain.RoleAdmin {
			return repository.ErrAdminExists
		}
	}
	user.Role = domain.RoleAdmin
	return s.insert(user)
}

func (s *Users) insert(user *domain.User) error {
	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return repository.ErrDuplicate
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	s.byID[user.ID] = *user
	s.byEmail[key] = user.ID
	return nil
}

func (s *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.byID[id]
	return &user, nil
}

func (s *Users) GetByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if user, ok := s.byID[id]; ok {
			result[id] = &user
		}
	}
	return result, nil
}

func (s *Users) HasRole(_ context.Context, role domain.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.byID {
		if user.Role == role {
			return true, nil
		}
	}
	return false, nil
}
