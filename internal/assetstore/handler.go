package assetstore

import (
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin upload surface. Category and dress payloads carry
// pre-uploaded {url, assetId} references, so the admin UI uploads here first.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterAdminRoutes(app *fiber.App, guards ...fiber.Handler) {
	app.Post("/asset", append(guards, h.upload)...)
	app.Delete("/asset/:id", append(guards, h.remove)...)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "file is required"})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	defer f.Close()

	asset, err := h.store.Upload(c.Context(), file.Filename, file.Header.Get("Content-Type"), f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "asset": asset})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	if err := h.store.Delete(c.Context(), c.Params("id")); err != nil {
		if err == ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "asset not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}
