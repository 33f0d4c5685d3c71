package dress

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/siriwan88/dress-shop-backend/internal/assetstore"
	"github.com/siriwan88/dress-shop-backend/internal/category"
)

type stubCategories struct{ cats map[int]category.Category }

func (s stubCategories) GetByID(ctx context.Context, id int) (category.Category, error) {
	if c, ok := s.cats[id]; ok {
		return c, nil
	}
	return category.Category{}, category.ErrNotFound
}

func (s stubCategories) GetByIdentifier(ctx context.Context, identifier string) (category.Category, error) {
	for _, c := range s.cats {
		if c.Slug == identifier {
			return c, nil
		}
	}
	return category.Category{}, category.ErrNotFound
}

func defaultCategories() stubCategories {
	return stubCategories{cats: map[int]category.Category{
		1: {ID: 1, Name: "Evening Gowns", Slug: "evening-gowns", IsActive: true},
	}}
}

func validDress(name string) Dress {
	return Dress{
		Name:          name,
		Description:   "a dress",
		CategoryID:    1,
		Images:        []Image{{URL: "https://assets.local/img-" + name, AssetID: "img-" + name}},
		Price:         Price{Original: 1000},
		ContactNumber: "+66811111111",
		IsActive:      true,
	}
}

func newTestService(repo Repository) (*Service, *assetstore.InMemoryStore) {
	store := assetstore.NewInMemoryStore()
	return NewService(repo, store, defaultCategories(), nil), store
}

func TestCreateRequiresImages(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)

	d := validDress("no-images")
	d.Images = nil
	if _, err := service.Create(context.Background(), d); err != ErrNoImages {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	// nothing must have been written
	if _, total, _ := repo.List(context.Background(), Filter{}, SortNewest, 1, 10); total != 0 {
		t.Fatalf("repository should be empty, holds %d", total)
	}
}

func TestCreateRejectsBadDiscount(t *testing.T) {
	service, store := newTestService(NewInMemoryRepository(nil))

	d := validDress("bad-price")
	d.Price.Discounted = intPtr(2000)
	if _, err := service.Create(context.Background(), d); err != ErrBadPrice {
		t.Fatalf("expected ErrBadPrice, got %v", err)
	}
	// the pre-uploaded image is orphaned, so it gets cleaned up
	if len(store.Deleted) != 1 {
		t.Fatalf("expected 1 compensated asset, got %v", store.Deleted)
	}
}

func TestCreateCompensatesOnUnknownCategory(t *testing.T) {
	service, store := newTestService(NewInMemoryRepository(nil))

	d := validDress("orphan")
	d.CategoryID = 42
	d.Images = append(d.Images, Image{URL: "u2", AssetID: "img-extra"})
	if _, err := service.Create(context.Background(), d); err != category.ErrNotFound {
		t.Fatalf("expected category.ErrNotFound, got %v", err)
	}
	if len(store.Deleted) != 2 {
		t.Fatalf("expected both uploaded assets deleted, got %v", store.Deleted)
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	service, _ := newTestService(NewInMemoryRepository(nil))

	d := validDress("defaults")
	d.Tags = []string{" Summer ", "summer", "Casual", ""}
	created, err := service.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.SKU != "DRESS000001" {
		t.Fatalf("expected sequential sku, got %q", created.SKU)
	}
	if created.ContactMessageTemplate != DefaultMessageTemplate {
		t.Fatalf("default template not applied: %q", created.ContactMessageTemplate)
	}
	if len(created.Tags) != 2 || created.Tags[0] != "summer" || created.Tags[1] != "casual" {
		t.Fatalf("tags not normalized: %v", created.Tags)
	}
}

func TestListPagination(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		if _, err := service.Create(ctx, validDress(fmt.Sprintf("d%02d", i))); err != nil {
			t.Fatalf("seed create %d failed: %v", i, err)
		}
	}

	page1, err := service.List(ctx, Filter{}, SortNewest, 1, 12)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page1.Total != 30 || page1.Pages != 3 || len(page1.Items) != 12 {
		t.Fatalf("unexpected page 1: total=%d pages=%d items=%d", page1.Total, page1.Pages, len(page1.Items))
	}

	page3, _ := service.List(ctx, Filter{}, SortNewest, 3, 12)
	if len(page3.Items) != 6 {
		t.Fatalf("expected 6 items on last page, got %d", len(page3.Items))
	}

	// out-of-range pages are empty but keep the bookkeeping
	page9, _ := service.List(ctx, Filter{}, SortNewest, 9, 12)
	if len(page9.Items) != 0 || page9.Total != 30 {
		t.Fatalf("unexpected out-of-range page: %+v", page9)
	}
}

func TestListExcludesInactive(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := service.Create(ctx, validDress("visible")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	hidden := validDress("hidden")
	hidden.IsActive = false
	if _, err := service.Create(ctx, hidden); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, _ := service.List(ctx, Filter{}, SortNewest, 1, 10)
	if result.Total != 1 || result.Items[0].Name != "visible" {
		t.Fatalf("inactive dress leaked into listing: %+v", result)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	service, _ := newTestService(NewInMemoryRepository(nil))
	if _, err := service.Search(context.Background(), "   ", Filter{}, SortNewest, 1, 10); err != ErrEmptyQuery {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchMatchesTags(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)
	ctx := context.Background()

	d := validDress("tagged")
	d.Tags = []string{"boho"}
	if _, err := service.Create(ctx, d); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := service.Create(ctx, validDress("plain")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, err := service.Search(ctx, "BOHO", Filter{}, SortNewest, 1, 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Total != 1 || result.Items[0].Name != "tagged" {
		t.Fatalf("tag search missed: %+v", result)
	}
}

func TestGetByIDIncrementsViews(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, validDress("counted"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, _, err := service.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// the increment runs off the request path; wait for it to land
	deadline := time.Now().Add(2 * time.Second)
	for {
		d, _ := repo.GetByID(ctx, created.ID, false)
		if d.Views == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("view count never incremented, still %d", d.Views)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGetByIDToleratesMissingCategory(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	store := assetstore.NewInMemoryStore()
	service := NewService(repo, store, stubCategories{cats: map[int]category.Category{}}, nil)
	ctx := context.Background()

	seeded, err := repo.Create(ctx, validDress("stray"))
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	d, cat, err := service.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("get should tolerate a missing category: %v", err)
	}
	if d.ID != seeded.ID || cat.ID != 0 {
		t.Fatalf("unexpected result: %+v %+v", d, cat)
	}
}

func TestUpdateKeepsAtLeastOneImage(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, store := newTestService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, validDress("single"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = service.Update(ctx, created.ID, Update{}, created.AssetIDs(), nil)
	if err != ErrNoImages {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	// the rejection must happen before any remote delete
	if len(store.Deleted) != 0 {
		t.Fatalf("no assets should be deleted, got %v", store.Deleted)
	}
	stored, _ := repo.GetByID(ctx, created.ID, false)
	if len(stored.Images) != 1 {
		t.Fatalf("stored image set changed: %+v", stored.Images)
	}
}

func TestUpdateSwapsImages(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, store := newTestService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, validDress("swap"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	oldAsset := created.Images[0].AssetID

	updated, err := service.Update(ctx, created.ID, Update{},
		[]string{oldAsset},
		[]Image{{URL: "https://assets.local/fresh", AssetID: "fresh"}},
	)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Images) != 1 || updated.Images[0].AssetID != "fresh" {
		t.Fatalf("image swap failed: %+v", updated.Images)
	}
	if len(store.Deleted) != 1 || store.Deleted[0] != oldAsset {
		t.Fatalf("old asset not deleted: %v", store.Deleted)
	}
}

func TestUpdateCompensatesNewImagesOnFailure(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, store := newTestService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, validDress("fails"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	repo.FailUpdate = true
	_, err = service.Update(ctx, created.ID, Update{}, nil, []Image{{URL: "u", AssetID: "doomed"}})
	if err == nil {
		t.Fatalf("expected update to fail")
	}
	found := false
	for _, id := range store.Deleted {
		if id == "doomed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("new image not compensated after failed update: %v", store.Deleted)
	}
}

func TestUpdateSKUImmutable(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, _ := newTestService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, validDress("keeper"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Renamed"
	updated, err := service.Update(ctx, created.ID, Update{Name: &name}, nil, nil)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.SKU != created.SKU {
		t.Fatalf("sku changed on update: %q -> %q", created.SKU, updated.SKU)
	}
	if !strings.HasPrefix(updated.SKU, "DRESS") {
		t.Fatalf("unexpected sku shape %q", updated.SKU)
	}
}

func TestDeleteRemovesAllAssets(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	service, store := newTestService(repo)
	ctx := context.Background()

	d := validDress("doomed")
	d.Images = append(d.Images, Image{URL: "u2", AssetID: "img-doomed-2"})
	created, err := service.Create(ctx, d)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID, false); err != ErrNotFound {
		t.Fatalf("record should be gone, got %v", err)
	}
	if len(store.Deleted) != 2 {
		t.Fatalf("expected both assets deleted, got %v", store.Deleted)
	}
}
