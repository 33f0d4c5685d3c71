package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var ErrNotFound = errors.New("asset not found")

// Asset is the reference returned by the remote image host: a public URL for
// rendering plus the opaque id needed to delete the object later.
type Asset struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

// Store is the capability the rest of the backend depends on. The remote host
// owns the bytes; the catalog only keeps {url, assetId} references.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (Asset, error)
	Delete(ctx context.Context, assetID string) error
	// DeleteMany issues all deletes concurrently and waits for every one to
	// finish before returning the joined failures, if any.
	DeleteMany(ctx context.Context, assetIDs []string) error
}

// deleteMany is shared by implementations: fan out one goroutine per id and
// join the errors.
func deleteMany(ctx context.Context, s Store, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range assetIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.Delete(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("delete asset %s: %w", id, err))
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// InMemoryStore keeps uploads in a map. Used by tests and local development
// without Drive credentials.
type InMemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	nextID  int

	// FailDelete makes every Delete call fail; tests use it to exercise
	// best-effort cleanup paths.
	FailDelete bool

	Deleted []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: map[string][]byte{}, nextID: 1}
}

func (s *InMemoryStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("mem-%d", s.nextID)
	s.nextID++
	s.objects[id] = data
	return Asset{URL: "https://assets.local/" + id, AssetID: id}, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return errors.New("delete disabled")
	}
	if _, ok := s.objects[assetID]; !ok {
		// uploads created outside this store (seeded references) are fine to
		// delete; track them anyway
		s.Deleted = append(s.Deleted, assetID)
		return nil
	}
	delete(s.objects, assetID)
	s.Deleted = append(s.Deleted, assetID)
	return nil
}

func (s *InMemoryStore) DeleteMany(ctx context.Context, assetIDs []string) error {
	return deleteMany(ctx, s, assetIDs)
}

// Len reports how many objects the store currently holds.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
