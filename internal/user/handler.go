package user

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/auth/register", h.register)
	app.Post("/auth/login", h.login)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "username, email and password are required"})
	}

	// Requesting the admin role is honored only when the request itself is
	// authenticated as an admin; otherwise the request falls back to a plain
	// user account.
	role := RoleUser
	if payload.Role == RoleAdmin {
		if h.callerIsAdmin(c) {
			role = RoleAdmin
		} else {
			log.WithField("email", payload.Email).Warn("ignored self-assigned admin role on registration")
		}
	}

	created, err := h.service.Register(c.Context(), payload.Username, payload.Email, payload.Password, role)
	if err != nil {
		switch err {
		case ErrEmailExists:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "email already exists"})
		case ErrUsernameExists:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "username already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": sanitizeUser(created)})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	u, err := h.service.Authenticate(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid email or password"})
	}

	signed, err := h.service.IssueToken(u)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"success": true, "token": signed, "user": sanitizeUser(u)})
}

// callerIsAdmin verifies an optional bearer token on an otherwise public
// route. Registration is public, so the JWT middleware never ran here.
func (h *Handler) callerIsAdmin(c *fiber.Ctx) bool {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	claims, err := h.service.VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == RoleAdmin
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
