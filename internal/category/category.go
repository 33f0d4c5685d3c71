package category

import "time"

// Image is the remote-host reference stored with a category: the public URL
// plus the asset id needed to delete the object when the image is replaced.
type Image struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

// Category groups dresses on the storefront. Slug is always derived from the
// most recently saved name and is unique alongside the name itself.
type Category struct {
	ID          int       `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       Image     `json:"image"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"isActive"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const (
	MaxNameLen        = 50
	MaxDescriptionLen = 200
)
