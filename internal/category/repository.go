package category

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrNameTaken     = errors.New("category name already exists")
	ErrInvalidName   = errors.New("category name must contain a letter")
	ErrCategoryInUse = errors.New("category is referenced by dresses")
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	GetByID(ctx context.Context, id int) (Category, error)
	GetBySlug(ctx context.Context, slug string) (Category, error)
	// NameOrSlugTaken reports whether any category other than excludeID
	// already uses the name or the slug, active or not.
	NameOrSlugTaken(ctx context.Context, name, slug string, excludeID int) (bool, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, id int, c Category) (Category, error)
	Delete(ctx context.Context, id int) error
}

// InMemoryRepository backs service and handler tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Category
	nextID  int

	// FailCreate forces Create to fail; tests use it to exercise
	// compensation paths.
	FailCreate bool
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Category, 0, len(seed)), nextID: 1}
	maxID := 0
	for _, c := range seed {
		r.storage = append(r.storage, c)
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, 0, len(r.storage))
	for _, c := range r.storage {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) NameOrSlugTaken(ctx context.Context, name, slug string, excludeID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.ID == excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) || c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate {
		return Category{}, errors.New("create disabled")
	}
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.storage = append(r.storage, c)
	return c, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			c.ID = id
			c.CreatedAt = r.storage[i].CreatedAt
			c.UpdatedAt = time.Now().UTC()
			r.storage[i] = c
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
