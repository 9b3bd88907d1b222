package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zingerhq/zinger/internal/ai"
	"github.com/zingerhq/zinger/internal/email"
	"github.com/zingerhq/zinger/internal/handler"
	"github.com/zingerhq/zinger/internal/middleware"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/push"
	"github.com/zingerhq/zinger/internal/reconcile"
	"github.com/zingerhq/zinger/internal/store"
	ws "github.com/zingerhq/zinger/internal/websocket"
)

type Config struct {
	// CronSecret guards the manual reconciliation endpoint. Empty means open.
	CronSecret      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	planH          *handler.PlanHandler
	notificationH  *handler.NotificationHandler
	aiH            *handler.AIHandler
	progressH      *handler.ProgressHandler
	pushH          *handler.PushHandler
	cronH          *handler.CronHandler
	sessionStore   *store.SessionStore
	magicLinkStore *store.MagicLinkStore
	pushStore      *store.PushStore
	rateLimiter    *middleware.RateLimiter
	runner         *reconcile.Runner
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, emailClient *email.Client, aiClient *ai.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	magicLinkStore := store.NewMagicLinkStore(db)
	planStore := store.NewPlanStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	// Push service, only when VAPID keys are configured
	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	// Every notification the reconciliation run creates is fanned out to
	// web push and any connected websocket clients.
	onNotification := func(n *model.Notification) {
		if notifier != nil {
			notifier.NotificationCreated(n)
		}
		hub.SendToUser(n.UserID, ws.NewMessage("notification", "created", n.PlanID, map[string]any{
			"type":    n.Type,
			"message": n.Message,
		}))
	}

	var dispatcher reconcile.SummaryDispatcher
	if emailClient != nil && emailClient.Configured() {
		dispatcher = emailClient
	}
	runner := reconcile.NewRunner(
		planStore, userStore, notificationStore,
		dispatcher, onNotification,
		logger.With("component", "reconcile"),
	)

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, sessionStore, magicLinkStore, emailClient, logger.With("component", "auth")),
		planH:          handler.NewPlanHandler(planStore, notificationStore, aiClient, hub, logger.With("component", "plan")),
		notificationH:  handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		aiH:            handler.NewAIHandler(aiClient, logger.With("component", "ai")),
		progressH:      handler.NewProgressHandler(planStore, logger.With("component", "progress")),
		pushH:          pushH,
		cronH:          handler.NewCronHandler(runner, cfg.CronSecret, logger.With("component", "cron")),
		sessionStore:   sessionStore,
		magicLinkStore: magicLinkStore,
		pushStore:      pushStore,
		rateLimiter:    middleware.NewRateLimiter(),
		runner:         runner,
		logger:         logger,
	}
}

// Runner returns the reconciliation runner for scheduled invocation.
func (s *Server) Runner() *reconcile.Runner {
	return s.runner
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// MagicLinkStore returns the magic link store for cleanup tasks.
func (s *Server) MagicLinkStore() *store.MagicLinkStore {
	return s.magicLinkStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no session required)
	outerMux.HandleFunc("POST /api/auth/request-code", s.rateLimitedHandler(s.authH.RequestCode))
	outerMux.HandleFunc("POST /api/auth/verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("GET /api/cron", s.cronH.Trigger)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Study plan API routes
	mux.HandleFunc("GET /api/plans", s.planH.List)
	mux.HandleFunc("POST /api/plans", s.planH.Create)
	mux.HandleFunc("POST /api/plans/generate", s.planH.Generate)
	mux.HandleFunc("GET /api/plans/{id}", s.planH.Get)
	mux.HandleFunc("DELETE /api/plans/{id}", s.planH.Delete)
	mux.HandleFunc("PUT /api/plans/{id}/items/{itemID}/status", s.planH.SetItemStatus)
	mux.HandleFunc("PUT /api/plans/{id}/auto-delete", s.planH.SetAutoDelete)

	// Notification API routes
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("GET /api/notifications/unread-count", s.notificationH.UnreadCount)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("POST /api/notifications/read-all", s.notificationH.MarkAllRead)

	// AI API routes
	mux.HandleFunc("POST /api/resources/curate", s.aiH.CurateResources)
	mux.HandleFunc("POST /api/tips", s.aiH.StudyTips)
	mux.HandleFunc("POST /api/chat", s.aiH.Chat)
	mux.HandleFunc("GET /api/quote", s.aiH.Quote)

	// Progress
	mux.HandleFunc("GET /api/progress", s.progressH.Get)

	// Web push, registered only when VAPID keys are configured
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
