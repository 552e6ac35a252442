// Package app wires stores, services and handlers into one http.Handler.
// Every entry point (the HTTP server, tests) builds the application here.
package app

import (
	"net/http"

	"github.com/Dias221467/Recovery_Tracker/internal/config"
	"github.com/Dias221467/Recovery_Tracker/internal/handlers"
	"github.com/Dias221467/Recovery_Tracker/internal/realtime"
	"github.com/Dias221467/Recovery_Tracker/internal/services"
	jwtutil "github.com/Dias221467/Recovery_Tracker/pkg/jwt"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/Dias221467/Recovery_Tracker/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Stores groups the persistence the services need. The Mongo repositories
// and memory.Store both fit.
type Stores struct {
	Users         services.UserStore
	Milestones    services.MilestoneStore
	Friendships   services.FriendshipStore
	Notifications services.NotificationStore
	Health        handlers.Checker
}

// App is the assembled application.
type App struct {
	Handler       http.Handler
	Hub           *realtime.Hub
	Users         *services.UserService
	Milestones    *services.MilestoneService
	Friends       *services.FriendService
	Notifications *services.NotificationService
}

// New builds the services and the router. mailer may be nil.
func New(cfg *config.Config, stores Stores, mailer services.Mailer) *App {
	tokens := jwtutil.NewManager(cfg.JWTSecret, cfg.TokenExpiry)
	hub := realtime.NewHub()

	// --- Services ---
	notificationService := services.NewNotificationService(stores.Notifications, hub)
	milestoneService := services.NewMilestoneService(stores.Milestones, stores.Users, notificationService)
	friendService := services.NewFriendService(stores.Friendships, stores.Users, notificationService)
	userService := services.NewUserService(stores.Users, stores.Milestones, stores.Friendships, stores.Notifications, tokens, mailer)

	// --- Handlers ---
	debug := cfg.IsDevelopment()
	auth := &middleware.Authenticator{
		Verifier:  tokens,
		DevMode:   cfg.IsDevelopment(),
		DevToken:  cfg.DevAuthToken,
		DevUserID: cfg.DevUserID,
	}
	userHandler := handlers.NewUserHandler(userService, debug)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService, debug)
	friendHandler := handlers.NewFriendHandler(friendService, debug)
	notificationHandler := handlers.NewNotificationHandler(notificationService, debug)
	streamHandler := handlers.NewNotificationStreamHandler(hub, auth)
	healthHandler := handlers.NewHealthHandler(stores.Health)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.HandleFunc("/health", healthHandler.HealthHandler).Methods("GET")

	// Auth routes, rate limited per client
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMin, cfg.AuthRateBurst)
	if proxies, err := middleware.ParseProxies(cfg.TrustedProxies); err == nil {
		limiter.KeyFunc = middleware.KeyByClientIP(proxies)
	} else {
		logger.Log.WithError(err).Warn("Ignoring TRUSTED_PROXIES")
	}
	authRoutes := router.PathPrefix("/auth").Subrouter()
	authRoutes.Use(limiter.Handler)
	authRoutes.HandleFunc("/signup", userHandler.SignupHandler).Methods("POST")
	authRoutes.HandleFunc("/login", userHandler.LoginHandler).Methods("POST")

	requireAuth := middleware.AuthMiddleware(auth)

	// Profile routes
	userRoutes := router.PathPrefix("/user").Subrouter()
	userRoutes.Use(requireAuth)
	userRoutes.HandleFunc("/profile", userHandler.GetProfileHandler).Methods("GET")
	userRoutes.HandleFunc("/profile", userHandler.UpdateProfileHandler).Methods("PUT")
	userRoutes.HandleFunc("/account", userHandler.DeleteAccountHandler).Methods("DELETE")

	// Milestone routes
	milestoneRoutes := router.PathPrefix("/milestones").Subrouter()
	milestoneRoutes.Use(requireAuth)
	milestoneRoutes.HandleFunc("", milestoneHandler.ListMilestonesHandler).Methods("GET")
	milestoneRoutes.HandleFunc("", milestoneHandler.CreateMilestoneHandler).Methods("POST")
	milestoneRoutes.HandleFunc("/standard", milestoneHandler.StandardMilestonesHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/bulk-create", milestoneHandler.BulkCreateHandler).Methods("POST")
	milestoneRoutes.HandleFunc("/sync", milestoneHandler.SyncHandler).Methods("POST")
	milestoneRoutes.HandleFunc("/{id}", milestoneHandler.GetMilestoneHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/{id}", milestoneHandler.UpdateMilestoneHandler).Methods("PUT")
	milestoneRoutes.HandleFunc("/{id}", milestoneHandler.DeleteMilestoneHandler).Methods("DELETE")
	milestoneRoutes.HandleFunc("/{id}/achieve", milestoneHandler.AchieveHandler).Methods("POST")

	// Friend routes
	friendRoutes := router.PathPrefix("/friends").Subrouter()
	friendRoutes.Use(requireAuth)
	friendRoutes.HandleFunc("", friendHandler.GetFriendsHandler).Methods("GET")
	friendRoutes.HandleFunc("", friendHandler.SendFriendRequestHandler).Methods("POST")
	friendRoutes.HandleFunc("/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	friendRoutes.HandleFunc("/suggestions", friendHandler.GetSuggestionsHandler).Methods("GET")
	friendRoutes.HandleFunc("/requests/{id}/accept", friendHandler.AcceptRequestHandler).Methods("POST")
	friendRoutes.HandleFunc("/requests/{id}/decline", friendHandler.DeclineRequestHandler).Methods("POST")
	friendRoutes.HandleFunc("/{friendId}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Notification routes; the stream authenticates itself
	router.HandleFunc("/notifications/ws", streamHandler.ServeWS).Methods("GET")
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(requireAuth)
	notificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("", notificationHandler.DeleteAllNotificationsHandler).Methods("DELETE")
	notificationRoutes.HandleFunc("/unread-count", notificationHandler.UnreadCountHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllAsReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return &App{
		Handler:       c.Handler(router),
		Hub:           hub,
		Users:         userService,
		Milestones:    milestoneService,
		Friends:       friendService,
		Notifications: notificationService,
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"success":false,"error":"Route not found"}` + "\n"))
}
