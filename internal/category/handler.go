package category

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/categories", h.list)
	app.Get("/category/:identifier", h.get)
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, guards ...fiber.Handler) {
	app.Post("/category", append(guards, h.create)...)
	app.Put("/category/:id", append(guards, h.update)...)
	app.Delete("/category/:id", append(guards, h.remove)...)
}

func (h *Handler) list(c *fiber.Ctx) error {
	categories, err := h.service.List(c.Context(), true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to list categories"})
	}
	return c.JSON(fiber.Map{"success": true, "categories": categories})
}

func (h *Handler) get(c *fiber.Ctx) error {
	cat, err := h.service.GetByIdentifier(c.Context(), c.Params("identifier"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to fetch category"})
	}
	return c.JSON(fiber.Map{"success": true, "category": cat})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	Image       *Image `json:"image"`
}

func validateCreate(req *createRequest) map[string]string {
	errs := map[string]string{}
	if req.Name == "" {
		errs["name"] = "name is required"
	}
	if len(req.Name) > MaxNameLen {
		errs["name"] = "name must be at most 50 characters"
	}
	if len(req.Description) > MaxDescriptionLen {
		errs["description"] = "description must be at most 200 characters"
	}
	if req.Image == nil || req.Image.URL == "" || req.Image.AssetID == "" {
		errs["image"] = "image with url and assetId is required"
	}
	return errs
}

func (h *Handler) create(c *fiber.Ctx) error {
	req := new(createRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	if ves := validateCreate(req); len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": ves})
	}

	created, err := h.service.Create(c.Context(), req.Name, req.Description, req.SortOrder, *req.Image)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "category name already exists"})
		case errors.Is(err, ErrInvalidName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"name": "name must contain a letter"}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to create category"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "category": created})
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
	Image       *Image  `json:"image"`
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid category id"})
	}

	req := new(updateRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > MaxNameLen) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"name": "name must be 1-50 characters"}})
	}
	if req.Description != nil && len(*req.Description) > MaxDescriptionLen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"description": "description must be at most 200 characters"}})
	}
	if req.Image != nil && (req.Image.URL == "" || req.Image.AssetID == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"image": "image must carry url and assetId"}})
	}

	updated, err := h.service.Update(c.Context(), id, Update{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
		NewImage:    req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "category not found"})
		case errors.Is(err, ErrNameTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "category name already exists"})
		case errors.Is(err, ErrInvalidName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": map[string]string{"name": "name must contain a letter"}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to update category"})
	}
	return c.JSON(fiber.Map{"success": true, "category": updated})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid category id"})
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "category not found"})
		case errors.Is(err, ErrCategoryInUse):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "category still has dresses"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to delete category"})
	}
	return c.JSON(fiber.Map{"success": true, "message": "category deleted"})
}
