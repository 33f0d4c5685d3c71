package category

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/siriwan88/dress-shop-backend/internal/assetstore"
	"github.com/siriwan88/dress-shop-backend/internal/audit"
)

// DressCounter reports how many dresses reference a category. Implemented by
// the dress repository; injected here to keep the packages acyclic.
type DressCounter interface {
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

type Service struct {
	repo    Repository
	assets  assetstore.Store
	dresses DressCounter
	audit   *audit.Recorder
}

func NewService(repo Repository, assets assetstore.Store, dresses DressCounter, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, assets: assets, dresses: dresses, audit: recorder}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.repo.List(ctx, activeOnly)
}

// GetByIdentifier resolves an all-digit identifier as a store id and anything
// else as a slug. Inactive categories are treated as absent.
func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (Category, error) {
	var (
		c   Category
		err error
	)
	if id, convErr := strconv.Atoi(identifier); convErr == nil {
		c, err = s.repo.GetByID(ctx, id)
	} else {
		c, err = s.repo.GetBySlug(ctx, identifier)
	}
	if err != nil {
		return Category{}, err
	}
	if !c.IsActive {
		return Category{}, ErrNotFound
	}
	return c, nil
}

// GetByID looks up a category regardless of its active flag. Used by the
// dress service for reference validation and contact-link rendering.
func (s *Service) GetByID(ctx context.Context, id int) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create derives the slug from the name and rejects any name or slug already
// in use, active or not. If the insert fails the pre-uploaded image asset is
// deleted so the remote store holds no orphans.
func (s *Service) Create(ctx context.Context, name, description string, sortOrder int, image Image) (Category, error) {
	slug := Slugify(name)
	created, err := s.create(ctx, Category{
		Name:        strings.TrimSpace(name),
		Description: description,
		Image:       image,
		Slug:        slug,
		IsActive:    true,
		SortOrder:   sortOrder,
	})
	if err != nil {
		s.compensate(ctx, image.AssetID)
		return Category{}, err
	}
	s.audit.Record("category_created", strconv.Itoa(created.ID), "", map[string]any{"name": created.Name, "slug": created.Slug})
	return created, nil
}

func (s *Service) create(ctx context.Context, c Category) (Category, error) {
	if !SlugResolvable(c.Slug) {
		return Category{}, ErrInvalidName
	}
	taken, err := s.repo.NameOrSlugTaken(ctx, c.Name, c.Slug, 0)
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, ErrNameTaken
	}
	return s.repo.Create(ctx, c)
}

// Update is a partial-field update. Renaming recomputes the slug; supplying a
// new image replaces the stored reference and deletes the old remote asset.
type Update struct {
	Name        *string
	Description *string
	SortOrder   *int
	IsActive    *bool
	NewImage    *Image
}

func (s *Service) Update(ctx context.Context, id int, upd Update) (Category, error) {
	updated, oldAssetID, err := s.update(ctx, id, upd)
	if err != nil {
		if upd.NewImage != nil {
			s.compensate(ctx, upd.NewImage.AssetID)
		}
		return Category{}, err
	}

	if oldAssetID != "" {
		if err := s.assets.Delete(ctx, oldAssetID); err != nil {
			log.WithError(err).WithField("asset_id", oldAssetID).Warn("failed to delete replaced category image")
		}
	}
	s.audit.Record("category_updated", strconv.Itoa(id), "", nil)
	return updated, nil
}

func (s *Service) update(ctx context.Context, id int, upd Update) (Category, string, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, "", err
	}

	oldAssetID := ""
	if upd.Name != nil && *upd.Name != existing.Name {
		existing.Name = strings.TrimSpace(*upd.Name)
		existing.Slug = Slugify(existing.Name)
		if !SlugResolvable(existing.Slug) {
			return Category{}, "", ErrInvalidName
		}
		taken, err := s.repo.NameOrSlugTaken(ctx, existing.Name, existing.Slug, id)
		if err != nil {
			return Category{}, "", err
		}
		if taken {
			return Category{}, "", ErrNameTaken
		}
	}
	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.SortOrder != nil {
		existing.SortOrder = *upd.SortOrder
	}
	if upd.IsActive != nil {
		existing.IsActive = *upd.IsActive
	}
	if upd.NewImage != nil {
		oldAssetID = existing.Image.AssetID
		existing.Image = *upd.NewImage
	}

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		return Category{}, "", err
	}
	return updated, oldAssetID, nil
}

// Delete refuses to remove a category while any dress references it. The
// reference check is best-effort against concurrent dress creation.
func (s *Service) Delete(ctx context.Context, id int) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.dresses.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.assets.Delete(ctx, existing.Image.AssetID); err != nil && err != assetstore.ErrNotFound {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record("category_deleted", strconv.Itoa(id), "", map[string]any{"name": existing.Name})
	return nil
}

// compensate removes a pre-uploaded asset after a failed mutation. Best
// effort: the caller's original error always wins.
func (s *Service) compensate(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		log.WithError(err).WithField("asset_id", assetID).Warn("failed to clean up orphaned category asset")
	}
}
