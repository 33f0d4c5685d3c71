package dress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("dress not found")
	ErrNoImages = errors.New("dress must keep at least one image")
	ErrSKUTaken = errors.New("sku already exists")
)

// Sort is the closed set of list orderings the API accepts.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortNameAsc   Sort = "name-asc"
	SortNameDesc  Sort = "name-desc"
	SortFeatured  Sort = "featured"
)

// ParseSort maps a query value onto the sort set, defaulting to newest-first.
func ParseSort(v string) Sort {
	switch Sort(v) {
	case SortOldest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortFeatured:
		return Sort(v)
	default:
		return SortNewest
	}
}

// Filter narrows a listing. Nil pointer fields are "don't care"; Query, when
// set, is a case-insensitive substring match over name, description, material
// and tags.
type Filter struct {
	ActiveOnly bool
	CategoryID *int
	Featured   *bool
	Size       string
	Color      string
	Material   string
	MinPrice   *int
	MaxPrice   *int
	Query      string
}

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// ClampPage normalizes pagination inputs: page at least 1, pageSize within
// [1, MaxPageSize] with a default when unset.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

type Repository interface {
	// List returns one page of matches plus the total match count.
	List(ctx context.Context, f Filter, sort Sort, page, pageSize int) ([]Dress, int, error)
	Featured(ctx context.Context, limit int) ([]Dress, error)
	GetByID(ctx context.Context, id int, activeOnly bool) (Dress, error)
	// Create assigns a sequential SKU when the dress carries none.
	Create(ctx context.Context, d Dress) (Dress, error)
	Update(ctx context.Context, id int, d Dress) (Dress, error)
	Delete(ctx context.Context, id int) error
	IncrementViews(ctx context.Context, id int) error
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

// InMemoryRepository backs service and handler tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Dress
	nextID  int
	nextSKU int

	// FailUpdate forces Update to fail; tests use it to exercise
	// compensation paths.
	FailUpdate bool
}

func NewInMemoryRepository(seed []Dress) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Dress, 0, len(seed)), nextID: 1, nextSKU: 1}
	maxID := 0
	for _, d := range seed {
		r.storage = append(r.storage, d)
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	r.nextID = maxID + 1
	r.nextSKU = maxID + 1
	return r
}

func matches(d Dress, f Filter) bool {
	if f.ActiveOnly && !d.IsActive {
		return false
	}
	if f.CategoryID != nil && d.CategoryID != *f.CategoryID {
		return false
	}
	if f.Featured != nil && d.IsFeatured != *f.Featured {
		return false
	}
	if f.Size != "" {
		found := false
		for _, s := range d.Sizes {
			if s.Size == f.Size {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Color != "" {
		found := false
		for _, c := range d.Colors {
			if strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Color)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Material != "" && !strings.Contains(strings.ToLower(d.Material), strings.ToLower(f.Material)) {
		return false
	}
	if f.MinPrice != nil && d.Price.Original < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && d.Price.Original > *f.MaxPrice {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hit := strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Description), q) ||
			strings.Contains(strings.ToLower(d.Material), q)
		for _, t := range d.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(t), q)
		}
		if !hit {
			return false
		}
	}
	return true
}

func orderDresses(items []Dress, s Sort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch s {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortPriceAsc:
			return a.EffectivePrice() < b.EffectivePrice()
		case SortPriceDesc:
			return a.EffectivePrice() > b.EffectivePrice()
		case SortNameAsc:
			return a.Name < b.Name
		case SortNameDesc:
			return a.Name > b.Name
		case SortFeatured:
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.CreatedAt.After(b.CreatedAt)
		default: // newest
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
}

func (r *InMemoryRepository) List(ctx context.Context, f Filter, s Sort, page, pageSize int) ([]Dress, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Dress, 0)
	for _, d := range r.storage {
		if matches(d, f) {
			matched = append(matched, d)
		}
	}
	orderDresses(matched, s)

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []Dress{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	out := make([]Dress, end-start)
	copy(out, matched[start:end])
	return out, total, nil
}

func (r *InMemoryRepository) Featured(ctx context.Context, limit int) ([]Dress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Dress, 0)
	for _, d := range r.storage {
		if d.IsActive && d.IsFeatured {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int, activeOnly bool) (Dress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.storage {
		if d.ID == id {
			if activeOnly && !d.IsActive {
				return Dress{}, ErrNotFound
			}
			return d, nil
		}
	}
	return Dress{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, d Dress) (Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == 0 {
		d.ID = r.nextID
		r.nextID++
	}
	if d.SKU == "" {
		d.SKU = fmt.Sprintf("DRESS%06d", r.nextSKU)
		r.nextSKU++
	}
	for _, existing := range r.storage {
		if existing.SKU == d.SKU {
			return Dress{}, ErrSKUTaken
		}
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	r.storage = append(r.storage, d)
	return d, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, d Dress) (Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate {
		return Dress{}, errors.New("update disabled")
	}
	for i := range r.storage {
		if r.storage[i].ID == id {
			d.ID = id
			d.SKU = r.storage[i].SKU
			d.CreatedAt = r.storage[i].CreatedAt
			d.Views = r.storage[i].Views
			d.UpdatedAt = time.Now().UTC()
			r.storage[i] = d
			return d, nil
		}
	}
	return Dress{}, ErrNotFound
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

func (r *InMemoryRepository) IncrementViews(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Views++
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, d := range r.storage {
		if d.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}
