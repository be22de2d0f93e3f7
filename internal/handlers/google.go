package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/session"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

const existingAccountMsg = "Ce compte existe déjà. Veuillez vous connecter en utilisant le bouton \"Se connecter avec Google\"."

type GoogleHandler struct {
	Sessions *session.Manager
	Auth     *upstream.AuthAPI
	Log      *zap.Logger

	ClientID     string
	ClientSecret string
	// RedirectURL is the upstream's Google callback: the upstream finishes
	// the code exchange, then bounces the browser back here with
	// token/user/isNewUser.
	RedirectURL string
}

func (h *GoogleHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Start records the pending-role intent (signup flows only) and sends the
// browser to the provider.
func (h *GoogleHandler) Start(c *fiber.Ctx) error {
	sid := middleware.SID(c)

	if role := c.Query("role"); role != "" {
		parsed, ok := models.ParseRole(role)
		if !ok {
			return fail200(c, "Rôle invalide")
		}
		if err := h.Sessions.SetSelectedRole(c.Context(), sid, string(parsed)); err != nil {
			return fail500(c, "session indisponible")
		}
	}

	st := randomState(32)
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)
	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

// Callback runs the one-shot redirect handshake. Identity is only ever
// adopted on the explicit success branches; every terminal leaves the
// visible URL clean of token/user/isNewUser.
func (h *GoogleHandler) Callback(c *fiber.Ctx) error {
	ctx := c.Context()
	sid := middleware.SID(c)

	token := c.Query("token")
	userParam := c.Query("user")

	if token == "" || userParam == "" {
		return h.failTerminal(c, sid, "Données d'authentification manquantes")
	}

	// The intent is consumed exactly once, used or not.
	intent, err := h.Sessions.ConsumeSelectedRole(ctx, sid)
	if err != nil {
		return h.failTerminal(c, sid, "session indisponible")
	}

	res, err := h.Auth.GoogleSuccess(ctx, token)
	if err != nil {
		return h.failTerminal(c, sid, upstreamMessage(err, "Échec de la validation du token"))
	}

	switch {
	case !res.IsNewUser && intent != "":
		// Existing account attempting a role-based signup: adopt nothing.
		if err := h.Sessions.SetAuthError(ctx, sid, existingAccountMsg); err != nil {
			return h.failTerminal(c, sid, "session indisponible")
		}
		return c.Redirect("/?view=role-selection", http.StatusSeeOther)

	case res.IsNewUser && intent != "":
		user, err := h.Auth.CompleteProfile(ctx, res.Token, map[string]any{"role": intent})
		if err != nil {
			return h.failTerminal(c, sid, "Erreur lors de l'assignation du rôle")
		}
		adopted := models.MergeUser(&res.User, user)
		adopted.Role = models.Role(intent)
		if err := h.Sessions.Adopt(ctx, sid, adopted, res.Token); err != nil {
			return h.failTerminal(c, sid, "session indisponible")
		}
		return c.Redirect("/?view=main-home", http.StatusSeeOther)

	case res.IsNewUser:
		// A roleless account cannot be created; back to role selection,
		// unauthenticated.
		return c.Redirect("/?view=role-selection", http.StatusSeeOther)

	default:
		if err := h.Sessions.Adopt(ctx, sid, &res.User, res.Token); err != nil {
			return h.failTerminal(c, sid, "session indisponible")
		}
		return c.Redirect("/?view=main-home", http.StatusSeeOther)
	}
}

// failTerminal stores the message as a one-shot flash and redirects to the
// pre-authentication entry view. The redirect strips the query string, so a
// reload never re-triggers the handshake.
func (h *GoogleHandler) failTerminal(c *fiber.Ctx, sid, msg string) error {
	h.Log.Info("google callback failed", zap.String("reason", msg))
	if err := h.Sessions.SetFlash(c.Context(), sid, msg); err != nil {
		h.Log.Warn("flash save failed", zap.Error(err))
	}
	return c.Redirect("/?view=role-selection", http.StatusSeeOther)
}
