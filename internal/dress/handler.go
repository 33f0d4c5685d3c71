package dress

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/siriwan88/dress-shop-backend/internal/category"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/dresses", h.list)
	app.Get("/dresses/featured", h.featured)
	app.Get("/dresses/search", h.search)
	app.Get("/dresses/category/:categoryId", h.listByCategory)
	app.Get("/dress/:id", h.get)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, guards ...fiber.Handler) {
	app.Post("/dress", append(guards, h.create)...)
	app.Put("/dress/:id", append(guards, h.update)...)
	app.Delete("/dress/:id", append(guards, h.remove)...)
}

// listItem is the public list shape: the stored record plus derived pricing.
type listItem struct {
	Dress
	EffectivePrice     int `json:"effectivePrice"`
	DiscountPercentage int `json:"discountPercentage"`
}

func listItems(items []Dress) []listItem {
	out := make([]listItem, 0, len(items))
	for _, d := range items {
		out = append(out, listItem{Dress: d, EffectivePrice: d.EffectivePrice(), DiscountPercentage: d.DiscountPercentage()})
	}
	return out
}

func pageEnvelope(result PageResult) fiber.Map {
	return fiber.Map{
		"success":  true,
		"dresses":  listItems(result.Items),
		"total":    result.Total,
		"page":     result.Page,
		"pageSize": result.PageSize,
		"pages":    result.Pages,
	}
}

func queryFilter(c *fiber.Ctx) Filter {
	f := Filter{}
	if v := c.Query("category"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			f.CategoryID = &id
		}
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true" || v == "1"
		f.Featured = &featured
	}
	f.Size = c.Query("size")
	f.Color = c.Query("color")
	f.Material = c.Query("material")
	if v := c.Query("minPrice"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinPrice = &n
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxPrice = &n
		}
	}
	return f
}

func (h *Handler) list(c *fiber.Ctx) error {
	result, err := h.service.List(
		c.Context(),
		queryFilter(c),
		ParseSort(c.Query("sort")),
		c.QueryInt("page", 1),
		c.QueryInt("pageSize", DefaultPageSize),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to list dresses"})
	}
	return c.JSON(pageEnvelope(result))
}

func (h *Handler) featured(c *fiber.Ctx) error {
	items, err := h.service.Featured(c.Context(), c.QueryInt("limit", 8))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to list featured dresses"})
	}
	return c.JSON(fiber.Map{"success": true, "dresses": listItems(items)})
}

func (h *Handler) search(c *fiber.Ctx) error {
	result, err := h.service.Search(
		c.Context(),
		c.Query("q"),
		queryFilter(c),
		ParseSort(c.Query("sort")),
		c.QueryInt("page", 1),
		c.QueryInt("pageSize", DefaultPageSize),
	)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "search query is required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "search failed"})
	}
	return c.JSON(pageEnvelope(result))
}

func (h *Handler) listByCategory(c *fiber.Ctx) error {
	cat, result, err := h.service.ListByCategory(
		c.Context(),
		c.Params("categoryId"),
		ParseSort(c.Query("sort")),
		c.QueryInt("page", 1),
		c.QueryInt("pageSize", DefaultPageSize),
	)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to list dresses"})
	}
	envelope := pageEnvelope(result)
	envelope["category"] = cat
	return c.JSON(envelope)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid dress id"})
	}

	d, cat, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "dress not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to fetch dress"})
	}

	detail := fiber.Map{
		"success":     true,
		"dress":       listItem{Dress: d, EffectivePrice: d.EffectivePrice(), DiscountPercentage: d.DiscountPercentage()},
		"contactLink": d.ContactLink(cat.Name),
	}
	if cat.ID != 0 {
		detail["category"] = cat
	}
	return c.JSON(detail)
}

// dressPayload is the admin write shape. The nested collections may arrive as
// JSON values or as JSON-encoded strings (multipart-origin clients send the
// latter); decodeFlexible accepts both.
type dressPayload struct {
	Name                   *string         `json:"name"`
	Description            *string         `json:"description"`
	CategoryID             *int            `json:"categoryId"`
	Images                 []Image         `json:"images"`
	Price                  json.RawMessage `json:"price"`
	Sizes                  json.RawMessage `json:"sizes"`
	Colors                 json.RawMessage `json:"colors"`
	Tags                   json.RawMessage `json:"tags"`
	Material               *string         `json:"material"`
	CareInstructions       *string         `json:"careInstructions"`
	SKU                    *string         `json:"sku"`
	IsActive               *bool           `json:"isActive"`
	IsFeatured             *bool           `json:"isFeatured"`
	SortOrder              *int            `json:"sortOrder"`
	ContactNumber          *string         `json:"contactNumber"`
	ContactMessageTemplate *string         `json:"contactMessageTemplate"`

	// update-only image operations
	RemoveImages []string `json:"removeImages"`
	NewImages    []Image  `json:"newImages"`
}

// decodeFlexible unmarshals raw into dst, unwrapping one level of string
// encoding first when the client sent the value as serialized JSON text.
func decodeFlexible(raw json.RawMessage, dst any) error {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, dst)
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

type parsedPayload struct {
	payload dressPayload
	price   *Price
	sizes   *[]SizeOption
	colors  *[]ColorOption
	tags    *[]string
}

func parseDressPayload(c *fiber.Ctx) (*parsedPayload, map[string]string) {
	p := &parsedPayload{}
	if err := c.BodyParser(&p.payload); err != nil {
		return nil, map[string]string{"body": err.Error()}
	}

	errs := map[string]string{}
	if len(p.payload.Price) > 0 {
		var price Price
		if err := decodeFlexible(p.payload.Price, &price); err != nil {
			errs["price"] = "price must be a JSON object"
		} else {
			p.price = &price
		}
	}
	if len(p.payload.Sizes) > 0 {
		var sizes []SizeOption
		if err := decodeFlexible(p.payload.Sizes, &sizes); err != nil {
			errs["sizes"] = "sizes must be a JSON array"
		} else {
			for _, s := range sizes {
				if !IsAllowedSize(s.Size) {
					errs["sizes"] = "invalid size: " + s.Size
				}
				if s.Stock < 0 {
					errs["sizes"] = "stock must be >= 0"
				}
			}
			p.sizes = &sizes
		}
	}
	if len(p.payload.Colors) > 0 {
		var colors []ColorOption
		if err := decodeFlexible(p.payload.Colors, &colors); err != nil {
			errs["colors"] = "colors must be a JSON array"
		} else {
			p.colors = &colors
		}
	}
	if len(p.payload.Tags) > 0 {
		var tags []string
		if err := decodeFlexible(p.payload.Tags, &tags); err != nil {
			errs["tags"] = "tags must be a JSON array of strings"
		} else {
			p.tags = &tags
		}
	}

	if p.payload.Name != nil && len(*p.payload.Name) > MaxNameLen {
		errs["name"] = "name must be at most 100 characters"
	}
	if p.payload.Description != nil && len(*p.payload.Description) > MaxDescriptionLen {
		errs["description"] = "description must be at most 1000 characters"
	}
	if p.payload.Material != nil && len(*p.payload.Material) > MaxFreeTextLen {
		errs["material"] = "material must be at most 500 characters"
	}
	if p.payload.CareInstructions != nil && len(*p.payload.CareInstructions) > MaxFreeTextLen {
		errs["careInstructions"] = "careInstructions must be at most 500 characters"
	}
	if p.payload.ContactNumber != nil && !phonePattern.MatchString(*p.payload.ContactNumber) {
		errs["contactNumber"] = "contactNumber must be an international dialing number"
	}
	for _, img := range append(p.payload.Images, p.payload.NewImages...) {
		if img.URL == "" || img.AssetID == "" {
			errs["images"] = "every image must carry url and assetId"
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

func (h *Handler) create(c *fiber.Ctx) error {
	p, ves := parseDressPayload(c)
	if ves == nil {
		ves = map[string]string{}
		if p.payload.Name == nil || *p.payload.Name == "" {
			ves["name"] = "name is required"
		}
		if p.payload.Description == nil || *p.payload.Description == "" {
			ves["description"] = "description is required"
		}
		if p.payload.CategoryID == nil {
			ves["categoryId"] = "categoryId is required"
		}
		if p.payload.ContactNumber == nil {
			ves["contactNumber"] = "contactNumber is required"
		}
		if p.price == nil {
			ves["price"] = "price is required"
		}
	}
	if len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": ves})
	}

	d := Dress{
		Name:          *p.payload.Name,
		Description:   *p.payload.Description,
		CategoryID:    *p.payload.CategoryID,
		Images:        p.payload.Images,
		Price:         *p.price,
		ContactNumber: *p.payload.ContactNumber,
		IsActive:      true,
	}
	if p.sizes != nil {
		d.Sizes = *p.sizes
	}
	if p.colors != nil {
		d.Colors = *p.colors
	}
	if p.tags != nil {
		d.Tags = *p.tags
	}
	if p.payload.Material != nil {
		d.Material = *p.payload.Material
	}
	if p.payload.CareInstructions != nil {
		d.CareInstructions = *p.payload.CareInstructions
	}
	if p.payload.SKU != nil {
		d.SKU = *p.payload.SKU
	}
	if p.payload.IsActive != nil {
		d.IsActive = *p.payload.IsActive
	}
	if p.payload.IsFeatured != nil {
		d.IsFeatured = *p.payload.IsFeatured
	}
	if p.payload.SortOrder != nil {
		d.SortOrder = *p.payload.SortOrder
	}
	if p.payload.ContactMessageTemplate != nil {
		d.ContactMessageTemplate = *p.payload.ContactMessageTemplate
	}

	created, err := h.service.Create(c.Context(), d)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "dress": created})
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid dress id"})
	}

	p, ves := parseDressPayload(c)
	if len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": ves})
	}
	if p.payload.Name != nil && *p.payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"name": "name must not be empty"}})
	}

	upd := Update{
		Name:                   p.payload.Name,
		Description:            p.payload.Description,
		CategoryID:             p.payload.CategoryID,
		Price:                  p.price,
		Sizes:                  p.sizes,
		Colors:                 p.colors,
		Material:               p.payload.Material,
		CareInstructions:       p.payload.CareInstructions,
		Tags:                   p.tags,
		IsActive:               p.payload.IsActive,
		IsFeatured:             p.payload.IsFeatured,
		SortOrder:              p.payload.SortOrder,
		ContactNumber:          p.payload.ContactNumber,
		ContactMessageTemplate: p.payload.ContactMessageTemplate,
	}

	updated, err := h.service.Update(c.Context(), id, upd, p.payload.RemoveImages, p.payload.NewImages)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "dress": updated})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid dress id"})
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "dress deleted"})
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "dress not found"})
	case errors.Is(err, ErrNoImages):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "dress must keep at least one image"})
	case errors.Is(err, ErrBadPrice):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "discounted price must not exceed original"})
	case errors.Is(err, ErrSKUTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "sku already exists"})
	case errors.Is(err, category.ErrNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "category not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "unexpected error"})
}
