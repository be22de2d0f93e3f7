package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/gate"
	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/session"
)

type ViewHandler struct {
	Sessions *session.Manager
	Log      *zap.Logger
}

// Resolve is the page router: the browser asks for a view, the gate answers
// with the one that actually renders. One-shot markers (authError, flash)
// are consumed here, by the views that own them.
func (h *ViewHandler) Resolve(c *fiber.Ctx) error {
	st := middleware.State(c)
	sid := middleware.SID(c)

	gs := gate.State{
		Authenticated:   st.Authenticated(),
		NeedsCompletion: st.User.NeedsCompletion(),
		AuthError:       st.AuthError != "",
	}
	if st.Authenticated() {
		gs.Role = st.User.Role
	}

	requested := gate.View(c.Query("view", string(gate.ViewHome)))
	res := gate.Resolve(gs, requested)

	data := fiber.Map{
		"view":         res.View,
		"requested":    requested,
		"redirected":   res.Redirected,
		"unauthorized": res.Unauthorized,
		"hideChrome":   res.HideChrome,
	}
	if st.Authenticated() {
		data["user"] = st.User
	}

	// The role-selection view is the sole reader of the auth-error marker;
	// consuming it restores the chrome on the next resolution.
	if res.View == gate.ViewRoleSelection && st.AuthError != "" {
		msg, err := h.Sessions.ConsumeAuthError(c.Context(), sid)
		if err != nil {
			h.Log.Warn("auth error consume failed", zap.Error(err))
		} else if msg != "" {
			data["authError"] = msg
		}
	}

	if st.Flash != "" {
		msg, err := h.Sessions.ConsumeFlash(c.Context(), sid)
		if err != nil {
			h.Log.Warn("flash consume failed", zap.Error(err))
		} else if msg != "" {
			data["flash"] = msg
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}
