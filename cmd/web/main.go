package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tasklink-app/tasklink-web/internal/config"
	"github.com/tasklink-app/tasklink-web/internal/handlers"
	"github.com/tasklink-app/tasklink-web/internal/middleware"
	"github.com/tasklink-app/tasklink-web/internal/models"
	"github.com/tasklink-app/tasklink-web/internal/realtime"
	"github.com/tasklink-app/tasklink-web/internal/session"
	"github.com/tasklink-app/tasklink-web/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	codec, err := session.NewCodec(cfg.SessionSealKey)
	if err != nil {
		logger.Fatal("invalid session seal key", zap.Error(err))
	}

	var storage session.Storage
	if cfg.SessionStore == "memory" {
		storage = session.NewMemoryStorage()
		logger.Info("session store: in-memory (single instance only)")
	} else {
		rdb := session.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		storage = session.NewRedisStorage(rdb)
		logger.Info("session store: redis", zap.String("addr", cfg.RedisAddr))
	}

	client := upstream.New(cfg.UpstreamAPIURL, logger)
	authAPI := &upstream.AuthAPI{Client: client}
	tasksAPI := &upstream.TasksAPI{Client: client}
	applicationsAPI := &upstream.ApplicationsAPI{Client: client}
	paymentsAPI := &upstream.PaymentsAPI{Client: client}
	notificationsAPI := &upstream.NotificationsAPI{Client: client}
	usersAPI := &upstream.UsersAPI{Client: client}
	ratingsAPI := &upstream.RatingsAPI{Client: client}

	sessions := session.NewManager(storage, codec, authAPI,
		time.Duration(cfg.SessionTTLMin)*time.Minute, logger)

	hub := realtime.NewHub(logger)
	go hub.Run()
	poller := realtime.NewPoller(notificationsAPI, hub, 15*time.Second, logger)

	authH := &handlers.AuthHandler{Sessions: sessions, Log: logger}
	viewH := &handlers.ViewHandler{Sessions: sessions, Log: logger}
	googleH := &handlers.GoogleHandler{
		Sessions:     sessions,
		Auth:         authAPI,
		Log:          logger,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleSecret,
		RedirectURL:  cfg.GoogleRedirect,
	}
	completionH := &handlers.ProfileCompletionHandler{Sessions: sessions, Auth: authAPI, Log: logger}
	resourcesH := &handlers.ResourceHandler{
		Sessions:      sessions,
		Tasks:         tasksAPI,
		Applications:  applicationsAPI,
		Payments:      paymentsAPI,
		Notifications: notificationsAPI,
		Users:         usersAPI,
		Ratings:       ratingsAPI,
		Log:           logger,
	}
	dashboardH := &handlers.DashboardHandler{
		Tasks:         tasksAPI,
		Applications:  applicationsAPI,
		Payments:      paymentsAPI,
		Notifications: notificationsAPI,
		Log:           logger,
	}
	streamH := &handlers.StreamHandler{Sessions: sessions, Hub: hub, Poller: poller, Log: logger}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	// websocket upgrade handles its own session lookup
	app.Get("/ws/notifications", websocket.New(streamH.Serve))

	app.Use(middleware.Session(sessions, cfg.SessionTTLMin))

	// view resolution + OAuth redirect surface
	app.Get("/", viewH.Resolve)
	app.Get("/auth/google/start", googleH.Start)
	app.Get("/auth/google/callback", googleH.Callback)

	api := app.Group("/app")

	// public
	api.Get("/view", viewH.Resolve)
	api.Get("/session", authH.Session)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/logout", authH.Logout)

	// protected
	protected := api.Group("/", middleware.RequireAuth())

	completion := protected.Group("/profile-completion")
	completion.Get("/", completionH.Get)
	completion.Put("/data", completionH.Update)
	completion.Post("/skills", completionH.AddSkill)
	completion.Delete("/skills", completionH.RemoveSkill)
	completion.Post("/advance", completionH.Advance)
	completion.Post("/skip", completionH.Skip)

	protected.Get("/dashboard/stats", dashboardH.Stats)

	protected.Get("/tasks", resourcesH.ListTasks)
	protected.Get("/tasks/mine",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.MyTasks)
	protected.Get("/tasks/assigned",
		middleware.RequireRoles(models.RoleAgent), resourcesH.AssignedTasks)
	protected.Get("/tasks/:id", resourcesH.GetTask)
	protected.Post("/tasks",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.CreateTask)
	protected.Put("/tasks/:id",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.UpdateTask)
	protected.Delete("/tasks/:id",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.DeleteTask)

	protected.Post("/applications",
		middleware.RequireRoles(models.RoleAgent), resourcesH.CreateApplication)
	protected.Get("/applications/mine",
		middleware.RequireRoles(models.RoleAgent), resourcesH.MyApplications)
	protected.Get("/applications/task/:id",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.TaskApplications)
	protected.Put("/applications/:id/status",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.UpdateApplicationStatus)
	protected.Delete("/applications/:id",
		middleware.RequireRoles(models.RoleAgent), resourcesH.DeleteApplication)

	protected.Get("/payments", resourcesH.ListPayments)
	protected.Post("/payments",
		middleware.RequireRoles(models.RoleEnterprise), resourcesH.DeclarePayment)
	protected.Put("/payments/:id/confirm",
		middleware.RequireRoles(models.RoleAgent), resourcesH.ConfirmPayment)
	protected.Put("/payments/:id/dispute", resourcesH.DisputePayment)

	protected.Get("/notifications", resourcesH.ListNotifications)
	protected.Put("/notifications/read-all", resourcesH.MarkAllNotificationsRead)
	protected.Put("/notifications/:id/read", resourcesH.MarkNotificationRead)

	protected.Get("/users/agents", resourcesH.ListAgents)
	protected.Get("/users/enterprises", resourcesH.ListEnterprises)
	protected.Get("/users/:id", resourcesH.GetUser)
	protected.Get("/users/:id/tasks", resourcesH.UserTasks)
	protected.Get("/users/:id/ratings", resourcesH.UserRatings)
	protected.Put("/profile", resourcesH.UpdateProfile)

	protected.Post("/ratings", resourcesH.CreateRating)
	protected.Get("/ratings", resourcesH.ListRatings)
	protected.Get("/ratings/statistics", resourcesH.RatingStatistics)

	logger.Info("listening", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
