package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Repository interface {
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u User) (User, error)
}

// InMemoryRepository backs service and handler tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []User
	nextID  int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]User, 0, len(seed)), nextID: 1}
	maxID := 0
	for _, u := range seed {
		r.storage = append(r.storage, u)
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.storage {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.storage {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.storage {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.storage = append(r.storage, u)
	return u, nil
}
