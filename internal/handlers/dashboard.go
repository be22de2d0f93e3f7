package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

type DashboardHandler struct {
	Tasks         *upstream.TasksAPI
	Applications  *upstream.ApplicationsAPI
	Payments      *upstream.PaymentsAPI
	Notifications *upstream.NotificationsAPI
	Log           *zap.Logger
}

// Stats fans the role's dashboard sources in concurrently and returns the
// raw upstream payloads side by side. One failed source fails the whole
// request with its message.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	st := middleware.State(c)
	tok := st.Token
	q := upstream.ListQuery{Limit: 5}

	var tasksData, appsData, paymentsData, notifsData json.RawMessage

	g, ctx := errgroup.WithContext(c.Context())

	switch st.User.Role {
	case models.RoleAgent:
		g.Go(func() error {
			env, err := h.Tasks.Assigned(ctx, tok, q)
			if err != nil {
				return err
			}
			tasksData = env.Data
			return nil
		})
		g.Go(func() error {
			env, err := h.Applications.Mine(ctx, tok, q)
			if err != nil {
				return err
			}
			appsData = env.Data
			return nil
		})
	case models.RoleEnterprise:
		g.Go(func() error {
			env, err := h.Tasks.Mine(ctx, tok, q)
			if err != nil {
				return err
			}
			tasksData = env.Data
			return nil
		})
		g.Go(func() error {
			env, err := h.Payments.List(ctx, tok, q, "")
			if err != nil {
				return err
			}
			paymentsData = env.Data
			return nil
		})
	}

	g.Go(func() error {
		env, err := h.Notifications.List(ctx, tok, q)
		if err != nil {
			return err
		}
		notifsData = env.Data
		return nil
	})

	if err := g.Wait(); err != nil {
		return failUpstream(c, err)
	}

	data := fiber.Map{"notifications": notifsData}
	if tasksData != nil {
		data["tasks"] = tasksData
	}
	if appsData != nil {
		data["applications"] = appsData
	}
	if paymentsData != nil {
		data["payments"] = paymentsData
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}
