package handlers

import (
	"net/http"

	"lovebox-backend/internal/metrics"
	"lovebox-backend/internal/middleware"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig collects what the HTTP API is served from.
// Avatars and RateLimiter are optional.
type RouterConfig struct {
	Users       *services.UserService
	Pairs       *services.PairService
	Couple      *services.CoupleQuestionService
	Single      *services.SingleQuestionService
	Avatars     *services.AvatarService
	Hub         *services.WSHub
	RateLimiter *middleware.RateLimiter
	// RequestLogging enables chi's request logger
	RequestLogging bool
}

// NewRouter builds the chi router serving the API, the websocket and the probes
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Users)
	userHandler := NewUserHandler(cfg.Users)
	pairHandler := NewPairHandler(cfg.Pairs, cfg.Users)
	coupleHandler := NewCoupleQuestionHandler(cfg.Couple, cfg.Users)
	singleHandler := NewSingleQuestionHandler(cfg.Single, cfg.Users)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.Users, cfg.Users)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if cfg.RequestLogging {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.RateLimiter.Handler)
			r.Post("/auth/signup", authHandler.SignUp)
			r.Post("/auth/signin", authHandler.SignIn)
			r.Get("/users/check-username-availability", authHandler.CheckUsernameAvailability)
			r.Get("/users/check-email-availability", authHandler.CheckEmailAvailability)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Users))
			r.Use(middleware.RequireRole(models.RoleUser))
			r.Use(cfg.RateLimiter.Handler)

			r.Get("/users", userHandler.FindUsers)
			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			if cfg.Avatars != nil {
				avatarHandler := NewAvatarHandler(cfg.Avatars)
				r.Post("/users/me/avatar", avatarHandler.CreateUploadURL)
				r.Put("/users/me/avatar", avatarHandler.ConfirmUpload)
			}

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Post("/follow", userHandler.FollowOrUnfollow)
				r.Get("/following", userHandler.GetFollowing)
				r.Get("/followers", userHandler.GetFollowers)

				r.Post("/bff-requests", pairHandler.SendRequest)
				r.Get("/bff", pairHandler.GetPair)

				r.Route("/couple-questions", func(r chi.Router) {
					r.Get("/news-feed", coupleHandler.NewsFeed)
					r.Get("/", coupleHandler.List)
					r.Post("/", coupleHandler.Ask)
					r.Get("/{id}", coupleHandler.Get)
					r.Post("/{id}/answer", coupleHandler.Answer)
					r.Post("/{id}/unanswer", coupleHandler.Unanswer)
					r.Post("/{id}/love", coupleHandler.Love)
					r.Delete("/{id}", coupleHandler.Delete)
				})

				r.Route("/single-questions", func(r chi.Router) {
					r.Get("/", singleHandler.List)
					r.Post("/", singleHandler.Ask)
					r.Get("/{id}", singleHandler.Get)
					r.Post("/{id}/answer", singleHandler.Answer)
				})
			})

			r.Get("/bff-requests", pairHandler.ListRequests)
			r.Post("/bff-requests/{id}/accept", pairHandler.AcceptRequest)
			r.Delete("/bff-requests/{id}", pairHandler.DeclineRequest)
			r.Put("/bff/description", pairHandler.UpdateDescription)
			r.Delete("/bff/{id}", pairHandler.BreakUp)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
