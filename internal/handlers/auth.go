package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/gate"
	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/session"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

type AuthHandler struct {
	Sessions *session.Manager
	Log      *zap.Logger
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "Email requis")
	}
	if password == "" {
		errs.Add("password", "Mot de passe requis")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user, err := h.Sessions.Login(c.Context(), middleware.SID(c), email, password)
	if errors.Is(err, session.ErrRequestInFlight) {
		return fail200(c, "Une requête est déjà en cours")
	}
	if err != nil {
		return failUpstream(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": user,
			"view": gate.ViewMainHome,
		},
	})
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := strings.TrimSpace(req.Role)

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Nom requis")
	}
	if email == "" {
		errs.Add("email", "Email requis")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Format email invalide")
	}
	if password == "" {
		errs.Add("password", "Mot de passe requis")
	} else if len(password) < 6 {
		errs.Add("password", "Mot de passe : 6 caractères minimum")
	}
	if role != "" {
		if _, ok := models.ParseRole(role); !ok {
			errs.Add("role", "Rôle invalide")
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user, err := h.Sessions.Register(c.Context(), middleware.SID(c), upstream.RegisterPayload{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if errors.Is(err, session.ErrRequestInFlight) {
		return fail200(c, "Une requête est déjà en cours")
	}
	if err != nil {
		return failUpstream(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": user,
			"view": gate.ViewMainHome,
		},
	})
}

// Logout always signs the session out locally, whatever the upstream said.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.Logout(c.Context(), middleware.SID(c)); err != nil {
		h.Log.Warn("logout: session save failed", zap.Error(err))
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Déconnexion réussie",
	})
}

// Session exposes the current identity to the browser shell.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	st := middleware.State(c)
	data := fiber.Map{"authenticated": st.Authenticated()}
	if st.Authenticated() {
		data["user"] = st.User
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}
