package dress

import (
	"context"
	"errors"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/siriwan88/dress-shop-backend/internal/assetstore"
	"github.com/siriwan88/dress-shop-backend/internal/audit"
	"github.com/siriwan88/dress-shop-backend/internal/category"
)

var (
	ErrEmptyQuery = errors.New("search query is required")
	ErrBadPrice   = errors.New("discounted price must not exceed original")
)

// CategoryDirectory is the slice of the category service this package needs:
// id-or-slug resolution for scoped listings and id lookup for reference
// validation and contact-link rendering.
type CategoryDirectory interface {
	GetByIdentifier(ctx context.Context, identifier string) (category.Category, error)
	GetByID(ctx context.Context, id int) (category.Category, error)
}

type Service struct {
	repo       Repository
	assets     assetstore.Store
	categories CategoryDirectory
	audit      *audit.Recorder
}

func NewService(repo Repository, assets assetstore.Store, categories CategoryDirectory, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, assets: assets, categories: categories, audit: recorder}
}

// PageResult is one listing page plus the pagination bookkeeping the
// storefront renders.
type PageResult struct {
	Items    []Dress
	Total    int
	Page     int
	PageSize int
	Pages    int
}

func pages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// List is the public catalog listing; inactive dresses are always excluded.
func (s *Service) List(ctx context.Context, f Filter, sort Sort, page, pageSize int) (PageResult, error) {
	f.ActiveOnly = true
	page, pageSize = ClampPage(page, pageSize)
	items, total, err := s.repo.List(ctx, f, sort, page, pageSize)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Items: items, Total: total, Page: page, PageSize: pageSize, Pages: pages(total, pageSize)}, nil
}

func (s *Service) Featured(ctx context.Context, limit int) ([]Dress, error) {
	if limit < 1 {
		limit = 8
	}
	return s.repo.Featured(ctx, limit)
}

// ListByCategory resolves the category by id or slug first; an absent or
// inactive category is a not-found, not an empty page.
func (s *Service) ListByCategory(ctx context.Context, identifier string, sort Sort, page, pageSize int) (category.Category, PageResult, error) {
	cat, err := s.categories.GetByIdentifier(ctx, identifier)
	if err != nil {
		return category.Category{}, PageResult{}, err
	}
	result, err := s.List(ctx, Filter{CategoryID: &cat.ID}, sort, page, pageSize)
	return cat, result, err
}

// Search requires a non-empty query and matches it case-insensitively against
// name, description, material and tags.
func (s *Service) Search(ctx context.Context, query string, f Filter, sort Sort, page, pageSize int) (PageResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return PageResult{}, ErrEmptyQuery
	}
	f.Query = query
	return s.List(ctx, f, sort, page, pageSize)
}

// GetByID returns an active dress together with its category. The view-count
// increment is dispatched off the request path; its failure never affects the
// read.
func (s *Service) GetByID(ctx context.Context, id int) (Dress, category.Category, error) {
	d, err := s.repo.GetByID(ctx, id, true)
	if err != nil {
		return Dress{}, category.Category{}, err
	}

	cat, err := s.categories.GetByID(ctx, d.CategoryID)
	if err != nil && !errors.Is(err, category.ErrNotFound) {
		return Dress{}, category.Category{}, err
	}

	go func() {
		if err := s.repo.IncrementViews(context.Background(), id); err != nil {
			log.WithError(err).WithField("dress_id", id).Warn("failed to increment view count")
		}
	}()

	return d, cat, nil
}

// Create persists a new dress. The images arrive as pre-uploaded references;
// if anything fails after that point the references are deleted remotely so
// the asset host keeps no orphans.
func (s *Service) Create(ctx context.Context, d Dress) (Dress, error) {
	created, err := s.create(ctx, d)
	if err != nil {
		s.compensate(ctx, d.AssetIDs())
		return Dress{}, err
	}
	s.audit.Record("dress_created", strconv.Itoa(created.ID), "", map[string]any{"name": created.Name, "sku": created.SKU})
	return created, nil
}

func (s *Service) create(ctx context.Context, d Dress) (Dress, error) {
	if len(d.Images) == 0 {
		return Dress{}, ErrNoImages
	}
	if err := validatePrice(d.Price); err != nil {
		return Dress{}, err
	}
	if _, err := s.categories.GetByID(ctx, d.CategoryID); err != nil {
		return Dress{}, err
	}

	d.Tags = normalizeTags(d.Tags)
	if d.ContactMessageTemplate == "" {
		d.ContactMessageTemplate = DefaultMessageTemplate
	}
	return s.repo.Create(ctx, d)
}

// Update applies a partial field patch, then removes images by asset id, then
// appends new images. A patch that would leave the dress without images is
// rejected before anything is written or deleted.
type Update struct {
	Name                   *string
	Description            *string
	CategoryID             *int
	Price                  *Price
	Sizes                  *[]SizeOption
	Colors                 *[]ColorOption
	Material               *string
	CareInstructions       *string
	Tags                   *[]string
	IsActive               *bool
	IsFeatured             *bool
	SortOrder              *int
	ContactNumber          *string
	ContactMessageTemplate *string
}

func (s *Service) Update(ctx context.Context, id int, upd Update, removeAssetIDs []string, newImages []Image) (Dress, error) {
	updated, err := s.update(ctx, id, upd, removeAssetIDs, newImages)
	if err != nil {
		s.compensate(ctx, imageAssetIDs(newImages))
		return Dress{}, err
	}
	s.audit.Record("dress_updated", strconv.Itoa(id), "", nil)
	return updated, nil
}

func (s *Service) update(ctx context.Context, id int, upd Update, removeAssetIDs []string, newImages []Image) (Dress, error) {
	existing, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return Dress{}, err
	}

	applyUpdate(&existing, upd)
	if err := validatePrice(existing.Price); err != nil {
		return Dress{}, err
	}
	if upd.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, existing.CategoryID); err != nil {
			return Dress{}, err
		}
	}

	kept, removed := partitionImages(existing.Images, removeAssetIDs)
	if len(kept)+len(newImages) == 0 {
		return Dress{}, ErrNoImages
	}
	if len(removed) > 0 {
		if err := s.assets.DeleteMany(ctx, removed); err != nil {
			return Dress{}, err
		}
	}
	existing.Images = append(kept, newImages...)

	return s.repo.Update(ctx, id, existing)
}

// Delete removes the dress and all its remote assets. Asset deletion happens
// first; a failure there surfaces and leaves the record intact.
func (s *Service) Delete(ctx context.Context, id int) error {
	existing, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return err
	}
	if err := s.assets.DeleteMany(ctx, existing.AssetIDs()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record("dress_deleted", strconv.Itoa(id), "", map[string]any{"sku": existing.SKU})
	return nil
}

func applyUpdate(d *Dress, upd Update) {
	if upd.Name != nil {
		d.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	if upd.CategoryID != nil {
		d.CategoryID = *upd.CategoryID
	}
	if upd.Price != nil {
		d.Price = *upd.Price
	}
	if upd.Sizes != nil {
		d.Sizes = *upd.Sizes
	}
	if upd.Colors != nil {
		d.Colors = *upd.Colors
	}
	if upd.Material != nil {
		d.Material = *upd.Material
	}
	if upd.CareInstructions != nil {
		d.CareInstructions = *upd.CareInstructions
	}
	if upd.Tags != nil {
		d.Tags = normalizeTags(*upd.Tags)
	}
	if upd.IsActive != nil {
		d.IsActive = *upd.IsActive
	}
	if upd.IsFeatured != nil {
		d.IsFeatured = *upd.IsFeatured
	}
	if upd.SortOrder != nil {
		d.SortOrder = *upd.SortOrder
	}
	if upd.ContactNumber != nil {
		d.ContactNumber = *upd.ContactNumber
	}
	if upd.ContactMessageTemplate != nil {
		d.ContactMessageTemplate = *upd.ContactMessageTemplate
	}
}

func validatePrice(p Price) error {
	if p.Original < 0 {
		return ErrBadPrice
	}
	if p.Discounted != nil && (*p.Discounted < 0 || *p.Discounted > p.Original) {
		return ErrBadPrice
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func partitionImages(images []Image, removeAssetIDs []string) (kept []Image, removed []string) {
	remove := map[string]bool{}
	for _, id := range removeAssetIDs {
		remove[id] = true
	}
	kept = make([]Image, 0, len(images))
	for _, img := range images {
		if remove[img.AssetID] {
			removed = append(removed, img.AssetID)
			continue
		}
		kept = append(kept, img)
	}
	return kept, removed
}

func imageAssetIDs(images []Image) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.AssetID)
	}
	return ids
}

func (s *Service) compensate(ctx context.Context, assetIDs []string) {
	if len(assetIDs) == 0 {
		return
	}
	if err := s.assets.DeleteMany(ctx, assetIDs); err != nil {
		log.WithError(err).Warn("failed to clean up orphaned dress assets")
	}
}
