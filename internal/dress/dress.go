package dress

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Image is one catalog photo: remote URL, the asset id used for deletion, and
// alt text for the storefront.
type Image struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
	Alt     string `json:"alt,omitempty"`
}

// Price holds integer amounts in the shop currency's smallest display unit.
// Discounted, when set, never exceeds Original.
type Price struct {
	Original   int  `json:"original"`
	Discounted *int `json:"discounted,omitempty"`
}

type SizeOption struct {
	Size      string `json:"size"`
	Available bool   `json:"available"`
	Stock     int    `json:"stock"`
}

type ColorOption struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Available bool   `json:"available"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// AllowedSizes is the closed set a size entry may use.
var AllowedSizes = []string{"XS", "S", "M", "L", "XL", "XXL", "FreeSize", "Custom"}

// DefaultMessageTemplate seeds contactMessageTemplate when the admin does not
// supply one. Placeholders are substituted into the WhatsApp deep link.
const DefaultMessageTemplate = "Hello! I'm interested in {dressName} ({dressSKU}) from {dressCategory}, listed at {dressPrice}."

const (
	MaxNameLen        = 100
	MaxDescriptionLen = 1000
	MaxFreeTextLen    = 500
)

// Dress is a catalog listing. Orders are taken as WhatsApp leads via the
// contact deep link rather than an in-app cart.
type Dress struct {
	ID                     int           `json:"dressId"`
	Name                   string        `json:"name"`
	Description            string        `json:"description"`
	CategoryID             int           `json:"categoryId"`
	Images                 []Image       `json:"images"`
	Price                  Price         `json:"price"`
	Sizes                  []SizeOption  `json:"sizes,omitempty"`
	Colors                 []ColorOption `json:"colors,omitempty"`
	Material               string        `json:"material,omitempty"`
	CareInstructions       string        `json:"careInstructions,omitempty"`
	Tags                   []string      `json:"tags,omitempty"`
	SKU                    string        `json:"sku"`
	IsActive               bool          `json:"isActive"`
	IsFeatured             bool          `json:"isFeatured"`
	SortOrder              int           `json:"sortOrder"`
	ContactNumber          string        `json:"contactNumber"`
	ContactMessageTemplate string        `json:"contactMessageTemplate"`
	Views                  int           `json:"views"`
	Rating                 Rating        `json:"rating"`
	CreatedAt              time.Time     `json:"createdAt"`
	UpdatedAt              time.Time     `json:"updatedAt"`
}

// EffectivePrice is the discounted amount when set, else the original.
func (d Dress) EffectivePrice() int {
	if d.Price.Discounted != nil {
		return *d.Price.Discounted
	}
	return d.Price.Original
}

// DiscountPercentage is the rounded percentage off the original price, 0 when
// no discount is set or the original price is zero.
func (d Dress) DiscountPercentage() int {
	if d.Price.Discounted == nil || d.Price.Original <= 0 {
		return 0
	}
	off := float64(d.Price.Original-*d.Price.Discounted) / float64(d.Price.Original) * 100
	return int(math.Round(off))
}

// ContactLink builds the wa.me deep link for this dress: contact number
// stripped to digits and a leading plus, message template with placeholders
// substituted and percent-encoded.
func (d Dress) ContactLink(categoryName string) string {
	number := sanitizeNumber(d.ContactNumber)

	template := d.ContactMessageTemplate
	if template == "" {
		template = DefaultMessageTemplate
	}
	message := strings.NewReplacer(
		"{dressName}", d.Name,
		"{dressPrice}", strconv.Itoa(d.EffectivePrice()),
		"{dressSKU}", d.SKU,
		"{dressCategory}", categoryName,
	).Replace(template)

	return "https://wa.me/" + strings.TrimPrefix(number, "+") + "?text=" + url.QueryEscape(message)
}

func sanitizeNumber(number string) string {
	var b strings.Builder
	for i, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAllowedSize reports whether size belongs to the closed size set.
func IsAllowedSize(size string) bool {
	for _, s := range AllowedSizes {
		if s == size {
			return true
		}
	}
	return false
}

// AssetIDs collects the remote references of every image on the dress.
func (d Dress) AssetIDs() []string {
	ids := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		ids = append(ids, img.AssetID)
	}
	return ids
}
