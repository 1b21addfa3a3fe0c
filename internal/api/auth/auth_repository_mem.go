package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coursehub/campus-api/internal/api"
	"github.com/coursehub/campus-api/internal/models"
)

var _ UserRepo = (*InMemUserRepo)(nil)

// InMemUserRepo is a mutex-guarded UserRepo used by tests and local runs
// without a database. Uniqueness is enforced under the same lock that
// assigns ids, so concurrent duplicate registrations resolve to exactly
// one winner.
type InMemUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*models.User
	byID    map[int64]*models.User
}

func NewInMemUserRepo() *InMemUserRepo {
	return &InMemUserRepo{
		nextID:  1,
		byEmail: make(map[string]*models.User),
		byID:    make(map[int64]*models.User),
	}
}

func (r *InMemUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user with email not found: %w", api.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (r *InMemUserRepo) CreateUser(_ context.Context, name, email string, role models.Role, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return nil, fmt.Errorf("email already registered: %w", api.ErrConflict)
	}

	now := time.Now()
	user := &models.User{
		ID:        r.nextID,
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.nextID++
	r.byEmail[email] = user
	r.byID[user.ID] = user

	copied := *user
	return &copied, nil
}

func (r *InMemUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found: %w", id, api.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

// Delete removes an identity; only tests use it to simulate a user that
// vanished after token issuance.
func (r *InMemUserRepo) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.byID[id]; ok {
		delete(r.byEmail, user.Email)
		delete(r.byID, id)
	}
}

// Count returns the number of stored identities.
func (r *InMemUserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
