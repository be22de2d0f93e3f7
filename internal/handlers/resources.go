package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/session"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

// ResourceHandler passes server-owned entities through to the upstream. The
// gateway adds nothing but the bearer token and the role guards wired in the
// route table; last server response wins.
type ResourceHandler struct {
	Sessions      *session.Manager
	Tasks         *upstream.TasksAPI
	Applications  *upstream.ApplicationsAPI
	Payments      *upstream.PaymentsAPI
	Notifications *upstream.NotificationsAPI
	Users         *upstream.UsersAPI
	Ratings       *upstream.RatingsAPI
	Log           *zap.Logger
}

func listQuery(c *fiber.Ctx) upstream.ListQuery {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	return upstream.ListQuery{Page: page, Limit: limit, Status: c.Query("status")}
}

func token(c *fiber.Ctx) string { return middleware.State(c).Token }

func (h *ResourceHandler) forward(c *fiber.Ctx, env *upstream.Envelope, err error) error {
	if err != nil {
		return failUpstream(c, err)
	}
	return envelope(c, env)
}

// ----- tasks -----

func (h *ResourceHandler) ListTasks(c *fiber.Ctx) error {
	filters := map[string]string{}
	for _, k := range []string{"page", "limit", "status", "skills", "search", "budgetMin", "budgetMax"} {
		if v := c.Query(k); v != "" {
			filters[k] = v
		}
	}
	env, err := h.Tasks.List(c.Context(), token(c), filters)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) GetTask(c *fiber.Ctx) error {
	env, err := h.Tasks.Get(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

type taskReq struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Budget         float64  `json:"budget"`
	Duration       string   `json:"duration"`
	Skills         []string `json:"skills"`
	RequiredProofs []string `json:"requiredProofs"`
	Deadline       string   `json:"deadline"`
}

func (h *ResourceHandler) CreateTask(c *fiber.Ctx) error {
	var req taskReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Titre requis")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs.Add("description", "Description requise")
	}
	if req.Budget <= 0 {
		errs.Add("budget", "Budget invalide")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}
	env, err := h.Tasks.Create(c.Context(), token(c), req)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) UpdateTask(c *fiber.Ctx) error {
	var req taskReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	env, err := h.Tasks.Update(c.Context(), token(c), c.Params("id"), req)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) DeleteTask(c *fiber.Ctx) error {
	env, err := h.Tasks.Delete(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) MyTasks(c *fiber.Ctx) error {
	env, err := h.Tasks.Mine(c.Context(), token(c), listQuery(c))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) AssignedTasks(c *fiber.Ctx) error {
	env, err := h.Tasks.Assigned(c.Context(), token(c), listQuery(c))
	return h.forward(c, env, err)
}

// ----- applications -----

type applicationReq struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

func (h *ResourceHandler) CreateApplication(c *fiber.Ctx) error {
	var req applicationReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	if strings.TrimSpace(req.TaskID) == "" {
		return fail200(c, "taskId requis")
	}
	env, err := h.Applications.Create(c.Context(), token(c), req)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) MyApplications(c *fiber.Ctx) error {
	env, err := h.Applications.Mine(c.Context(), token(c), listQuery(c))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) TaskApplications(c *fiber.Ctx) error {
	env, err := h.Applications.ForTask(c.Context(), token(c), c.Params("id"), listQuery(c))
	return h.forward(c, env, err)
}

type applicationStatusReq struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *ResourceHandler) UpdateApplicationStatus(c *fiber.Ctx) error {
	var req applicationStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	env, err := h.Applications.UpdateStatus(c.Context(), token(c), c.Params("id"), req.Status, req.Notes)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) DeleteApplication(c *fiber.Ctx) error {
	env, err := h.Applications.Delete(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

// ----- payments -----

func (h *ResourceHandler) ListPayments(c *fiber.Ctx) error {
	env, err := h.Payments.List(c.Context(), token(c), listQuery(c), c.Query("method"))
	return h.forward(c, env, err)
}

type paymentReq struct {
	TaskID         string  `json:"taskId"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	TransactionRef string  `json:"transactionRef"`
	Proof          string  `json:"proof"`
}

// DeclarePayment records a user-declared manual payment claim. No settlement
// happens anywhere in this repository.
func (h *ResourceHandler) DeclarePayment(c *fiber.Ctx) error {
	var req paymentReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	if strings.TrimSpace(req.Method) == "" {
		return fail200(c, "Méthode de paiement requise")
	}
	env, err := h.Payments.Declare(c.Context(), token(c), req)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) ConfirmPayment(c *fiber.Ctx) error {
	env, err := h.Payments.Confirm(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

type disputeReq struct {
	Reason string `json:"reason"`
}

func (h *ResourceHandler) DisputePayment(c *fiber.Ctx) error {
	var req disputeReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	env, err := h.Payments.Dispute(c.Context(), token(c), c.Params("id"), req.Reason)
	return h.forward(c, env, err)
}

// ----- notifications -----

func (h *ResourceHandler) ListNotifications(c *fiber.Ctx) error {
	env, err := h.Notifications.List(c.Context(), token(c), listQuery(c))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) MarkNotificationRead(c *fiber.Ctx) error {
	env, err := h.Notifications.MarkRead(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	env, err := h.Notifications.MarkAllRead(c.Context(), token(c))
	return h.forward(c, env, err)
}

// ----- users -----

func (h *ResourceHandler) ListAgents(c *fiber.Ctx) error {
	filters := map[string]string{"skills": c.Query("skills"), "search": c.Query("search")}
	env, err := h.Users.Agents(c.Context(), token(c), listQuery(c), filters)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) ListEnterprises(c *fiber.Ctx) error {
	filters := map[string]string{"sector": c.Query("sector"), "search": c.Query("search")}
	env, err := h.Users.Enterprises(c.Context(), token(c), listQuery(c), filters)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) GetUser(c *fiber.Ctx) error {
	env, err := h.Users.Get(c.Context(), token(c), c.Params("id"))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) UserTasks(c *fiber.Ctx) error {
	env, err := h.Users.Tasks(c.Context(), token(c), c.Params("id"), listQuery(c))
	return h.forward(c, env, err)
}

func (h *ResourceHandler) UserRatings(c *fiber.Ctx) error {
	env, err := h.Users.Ratings(c.Context(), token(c), c.Params("id"), listQuery(c))
	return h.forward(c, env, err)
}

// UpdateProfile is the settings page: the upstream result replaces the
// session identity.
func (h *ResourceHandler) UpdateProfile(c *fiber.Ctx) error {
	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return fail200(c, "invalid body")
	}
	env, err := h.Users.Update(c.Context(), token(c), fields)
	if err != nil {
		return failUpstream(c, err)
	}

	var res struct {
		User models.User `json:"user"`
	}
	if decodeErr := env.Decode(&res); decodeErr == nil && res.User.ID != "" {
		st := middleware.State(c)
		merged := models.MergeUser(st.User, &res.User)
		if err := h.Sessions.SetUser(c.Context(), middleware.SID(c), merged); err != nil {
			h.Log.Warn("settings update: session save failed", zap.Error(err))
		}
	}
	return envelope(c, env)
}

// ----- ratings -----

type ratingReq struct {
	TaskID   string  `json:"taskId"`
	ToUserID string  `json:"toUserId"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

func (h *ResourceHandler) CreateRating(c *fiber.Ctx) error {
	var req ratingReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fail200(c, "La note doit être entre 1 et 5")
	}
	env, err := h.Ratings.Create(c.Context(), token(c), req)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) ListRatings(c *fiber.Ctx) error {
	filters := map[string]string{"taskId": c.Query("taskId"), "toUserId": c.Query("toUserId")}
	env, err := h.Ratings.List(c.Context(), token(c), listQuery(c), filters)
	return h.forward(c, env, err)
}

func (h *ResourceHandler) RatingStatistics(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return fail200(c, "userId requis")
	}
	env, err := h.Ratings.Statistics(c.Context(), token(c), userID)
	return h.forward(c, env, err)
}
