package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/gate"
	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/session"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
	"github.com/tasklink-app/tasklink-web/internal/wizard"
)

type ProfileCompletionHandler struct {
	Sessions *session.Manager
	Auth     *upstream.AuthAPI
	Log      *zap.Logger
}

// load returns the session's wizard state, creating it from the user's role
// on first touch.
func (h *ProfileCompletionHandler) load(c *fiber.Ctx) (*session.State, *wizard.State, error) {
	st := middleware.State(c)
	if st.Wizard != nil {
		return st, st.Wizard, nil
	}
	w, err := wizard.New(st.User.Role)
	if err != nil {
		return nil, nil, err
	}
	st.Wizard = w
	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return nil, nil, err
	}
	return st, w, nil
}

func wizardPayload(w *wizard.State) fiber.Map {
	return fiber.Map{
		"role":      w.Role,
		"step":      w.Step,
		"steps":     w.Steps(),
		"current":   w.Current(),
		"stepValid": w.StepValid(),
		"data":      w.Data,
	}
}

func (h *ProfileCompletionHandler) Get(c *fiber.Ctx) error {
	_, w, err := h.load(c)
	if errors.Is(err, wizard.ErrUnsupportedRole) {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}
	if err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

// Update replaces the collected form data. Skills are re-added one by one so
// the set-like dedup rule holds whatever the client sent.
func (h *ProfileCompletionHandler) Update(c *fiber.Ctx) error {
	var req wizard.Data
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}

	st, w, err := h.load(c)
	if err != nil {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}

	skills := req.Skills
	req.Skills = nil
	w.Data = req
	for _, s := range skills {
		w.AddSkill(s)
	}

	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

type skillReq struct {
	Skill string `json:"skill"`
}

func (h *ProfileCompletionHandler) AddSkill(c *fiber.Ctx) error {
	var req skillReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	st, w, err := h.load(c)
	if err != nil {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}
	w.AddSkill(req.Skill)
	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

func (h *ProfileCompletionHandler) RemoveSkill(c *fiber.Ctx) error {
	var req skillReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	st, w, err := h.load(c)
	if err != nil {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}
	w.RemoveSkill(req.Skill)
	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

// Advance is gated on the current step's required fields; on the last step it
// becomes the submission.
func (h *ProfileCompletionHandler) Advance(c *fiber.Ctx) error {
	st, w, err := h.load(c)
	if err != nil {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}

	submit, ok := w.Advance()
	if !ok {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Veuillez remplir les champs obligatoires",
			"data":    wizardPayload(w),
		})
	}
	if submit {
		return h.submit(c, st, w)
	}
	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

// Skip advances unconditionally; required fields do not apply.
func (h *ProfileCompletionHandler) Skip(c *fiber.Ctx) error {
	st, w, err := h.load(c)
	if err != nil {
		return fail200(c, "Aucun parcours de complétion pour ce rôle")
	}
	if w.Skip() {
		return h.submit(c, st, w)
	}
	if err := h.Sessions.Save(c.Context(), middleware.SID(c), st); err != nil {
		return fail500(c, "Erreur serveur")
	}
	return c.JSON(fiber.Map{"success": true, "data": wizardPayload(w)})
}

// submit sends the one aggregate payload upstream. Failure keeps the wizard
// on its current step with the message inline; nothing collected is lost.
func (h *ProfileCompletionHandler) submit(c *fiber.Ctx, st *session.State, w *wizard.State) error {
	sid := middleware.SID(c)
	if !h.Sessions.Begin(sid) {
		return fail200(c, "Une requête est déjà en cours")
	}
	defer h.Sessions.End(sid)

	fresh, err := h.Auth.CompleteProfile(c.Context(), st.Token, w.Payload())
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": upstreamMessage(err, "Erreur lors de la sauvegarde"),
			"data":    wizardPayload(w),
		})
	}

	merged := models.MergeUser(st.User, fresh)
	if merged.Role == "" {
		merged.Role = w.Role
	}
	merged.ProfileCompleted = true

	st.User = merged
	st.Wizard = nil
	if err := h.Sessions.Save(c.Context(), sid, st); err != nil {
		h.Log.Warn("profile completion: session save failed", zap.Error(err))
		return fail500(c, "Erreur serveur")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": merged,
			"view": gate.ViewMainHome,
		},
	})
}
