package cmd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"support-desk/config"
	"support-desk/internal/backend"
	"support-desk/internal/backend/pbstore"
	"support-desk/internal/handlers"
	"support-desk/internal/realtime"
	"support-desk/internal/services"
	"support-desk/models"
	"support-desk/monitoring"
	"support-desk/security"
	"support-desk/utils"
)

// server holds everything wired around the PocketBase app.
type server struct {
	app   *pocketbase.PocketBase
	cfg   *config.Config
	redis *redis.Client

	tickets    *realtime.Hub[models.Ticket]
	messages   *realtime.Hub[models.Message]
	dispatcher *realtime.Dispatcher

	store *pbstore.Store
	auth  *pbstore.Auth

	ticketService  *services.TicketService
	messageService *services.MessageService
	authService    *services.AuthService
}

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := newServer(ctx, app, cfg)
	if err != nil {
		return err
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	app.RootCmd.AddCommand(newAdminCommand(srv), newConsoleCommand(srv))

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		logger := se.App.Logger()

		go func() {
			if err := srv.dispatcher.Run(ctx); err != nil {
				logger.Error("change dispatcher stopped", "error", err)
			}
		}()
		if srv.redis != nil && cfg.EnableMetrics {
			go monitoring.NewMonitor(srv.redis, cfg.RealtimeChannel).Run(ctx)
		}

		srv.registerRoutes(se, logger)
		logger.Info("Server routes registered")

		return se.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		cancel()
		srv.dispatcher.Wait()
		if srv.redis != nil {
			srv.redis.Close()
		}
		return e.Next()
	})

	return app.Start()
}

// newServer wires the realtime layer, the PocketBase adapters and the
// services. Redis and PubNub are optional.
func newServer(ctx context.Context, app *pocketbase.PocketBase, cfg *config.Config) (*server, error) {
	logger := slog.Default()
	srv := &server{app: app, cfg: cfg}

	if cfg.RedisEnabled {
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, change events stay in-process", "error", err)
		} else {
			srv.redis = client
		}
	}

	srv.tickets = realtime.NewHub[models.Ticket]("tickets", logger)
	srv.messages = realtime.NewHub[models.Message]("messages", logger)

	opts := []realtime.DispatcherOption{realtime.WithLogger(logger)}
	if srv.redis != nil {
		opts = append(opts, realtime.WithRedis(srv.redis, cfg.RealtimeChannel))
	}
	if cfg.PubNubEnabled() {
		publisher, err := realtime.NewPubNubPublisher(realtime.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UserID:       cfg.PubNubUserID,
		}, utils.NewCircuitBreaker("pubnub"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, realtime.WithNotifier(realtime.NewNotifier(publisher, logger)))
	}
	srv.dispatcher = realtime.NewDispatcher(srv.tickets, srv.messages, opts...)

	srv.store = pbstore.New(app, cfg.PublicURL)
	srv.auth = pbstore.NewAuth(app)
	pbstore.RegisterHooks(app, srv.dispatcher)

	srv.ticketService = services.NewTicketService(srv.store, logger)
	srv.messageService = services.NewMessageService(srv.store, srv.store, logger)
	srv.authService = services.NewAuthService(srv.auth, logger)
	return srv, nil
}

func (srv *server) registerRoutes(se *core.ServeEvent, logger *slog.Logger) {
	cfg := srv.cfg
	actor := handlers.AuthActor
	limiter := security.NewRateLimiter(srv.redis, logger)

	authHandler := handlers.NewAuthHandler(srv.authService, srv.auth)
	dashboardHandler := handlers.NewDashboardHandler(srv.ticketService, actor)
	ticketHandler := handlers.NewTicketHandler(srv.ticketService, actor)
	messageHandler := handlers.NewMessageHandler(srv.messageService, actor)
	profileHandler := handlers.NewProfileHandler(srv.authService, actor)
	streamHandler := handlers.NewStreamHandler(srv.store, srv.tickets, srv.messages, srv.ticketService, actor, logger)

	se.Router.GET("/", dashboardHandler.Root)
	se.Router.GET("/dashboard", dashboardHandler.Dashboard).Bind(apis.RequireAuth(backend.CollectionUsers))

	api := se.Router.Group("/api/support")
	if cfg.AntiBotEnabled {
		api.BindFunc(limiter.AntiBotMiddleware(cfg.AntiBotRateLimit))
	}

	// Auth endpoints
	api.POST("/signup", authHandler.SignUp)
	api.POST("/login", authHandler.SignIn)

	authed := api.Group("")
	authed.Bind(apis.RequireAuth(backend.CollectionUsers))
	sendLimit := limiter.Middleware("messages", cfg.MessageRateLimit, cfg.RateLimitWindow)

	// Ticket endpoints
	authed.GET("/tickets", ticketHandler.ListTickets)
	authed.POST("/tickets", ticketHandler.CreateTicket)
	authed.GET("/tickets/stream", streamHandler.StreamTickets)
	authed.GET("/tickets/{id}", ticketHandler.GetTicket)
	authed.POST("/tickets/{id}/solve", ticketHandler.MarkSolved)

	// Message endpoints
	authed.GET("/tickets/{id}/messages", messageHandler.ListMessages)
	authed.POST("/tickets/{id}/messages", messageHandler.PostMessage).BindFunc(sendLimit)
	authed.POST("/tickets/{id}/voice", messageHandler.PostVoice).BindFunc(sendLimit)
	authed.GET("/tickets/{id}/messages/stream", streamHandler.StreamMessages)

	// Profile endpoints
	authed.GET("/profile", profileHandler.GetProfile)
	authed.PATCH("/profile", profileHandler.UpdateProfile)

	// Health check
	se.Router.GET("/health", func(e *core.RequestEvent) error {
		if srv.redis != nil {
			if err := utils.RedisHealthCheck(e.Request.Context(), srv.redis); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	if cfg.EnableMetrics {
		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
	}
}
