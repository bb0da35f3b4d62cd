package server

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/auth"
	"github.com/emilythestrangee/comment-system/backend/internal/config"
	"github.com/emilythestrangee/comment-system/backend/internal/database"
	"github.com/emilythestrangee/comment-system/backend/internal/handlers"
	"github.com/emilythestrangee/comment-system/backend/internal/middleware"
	"github.com/emilythestrangee/comment-system/backend/internal/ratelimit"
	"github.com/emilythestrangee/comment-system/backend/internal/realtime"
	"github.com/emilythestrangee/comment-system/backend/internal/services"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
)

// Deps are the collaborators built by main.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	// DB is nil when running on the in-memory store.
	DB      database.Service
	Store   storage.Store
	Limiter ratelimit.Limiter
	// Notifier receives comment events. It defaults to Hub.
	Notifier realtime.Notifier
	Hub      *realtime.Hub
}

type Server struct {
	cfg     config.Config
	log     *slog.Logger
	db      database.Service
	tokens  *auth.TokenService
	limiter ratelimit.Limiter
	hub     *realtime.Hub
	handler *handlers.Handler
}

func New(d Deps) *Server {
	notifier := d.Notifier
	if notifier == nil && d.Hub != nil {
		notifier = d.Hub
	}

	limiter := d.Limiter
	if limiter == nil {
		limiter, _ = ratelimit.NewMemory(0)
	}

	tokens := auth.NewTokenService(d.Config.JWTSecret, d.Config.JWTExpiresIn)
	authService := services.NewAuthService(d.Store, tokens, d.Config.BcryptCost, d.Logger)
	commentService := services.NewCommentService(d.Store, notifier, d.Logger)

	return &Server{
		cfg:     d.Config,
		log:     d.Logger,
		db:      d.DB,
		tokens:  tokens,
		limiter: limiter,
		hub:     d.Hub,
		handler: handlers.NewHandler(authService, commentService, handlers.CookieConfig{
			Enabled: d.Config.CookieEnabled,
			Name:    d.Config.CookieName,
			MaxAge:  tokens.TTL(),
			Secure:  d.Config.IsProduction(),
		}),
	}
}

// NewServer creates and configures a new server
func NewServer(d Deps) *http.Server {
	s := New(d)
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(middleware.ErrorHandler(s.log, s.cfg.Env == config.EnvDevelopment))
	r.Use(cors.New(s.corsConfig()))
	r.NoRoute(middleware.NoRoute())

	// Health check endpoint
	r.GET("/health", s.health)

	authRequired := middleware.AuthMiddleware(s.tokens, s.cookieName())
	limit := func(p ratelimit.Policy) gin.HandlerFunc {
		return middleware.RateLimit(s.limiter, p, s.log)
	}

	api := r.Group("")
	api.Use(limit(ratelimit.General))
	{
		api.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Comment System API is running"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", limit(ratelimit.Auth), s.handler.Auth.Register)
			authGroup.POST("/login", limit(ratelimit.Auth), s.handler.Auth.Login)
			authGroup.POST("/logout", s.handler.Auth.Logout)
			authGroup.GET("/me", authRequired, s.handler.Auth.GetMe)
		}

		// Comment reads are public
		comments := api.Group("/comments")
		{
			comments.GET("", s.handler.Comment.GetComments)
			comments.GET("/:id", s.handler.Comment.GetComment)
			comments.GET("/:id/replies", s.handler.Comment.GetReplies)

			comments.POST("", authRequired, limit(ratelimit.CreateComment), s.handler.Comment.CreateComment)
			comments.PUT("/:id", authRequired, limit(ratelimit.Modify), s.handler.Comment.UpdateComment)
			comments.DELETE("/:id", authRequired, limit(ratelimit.Modify), s.handler.Comment.DeleteComment)
			comments.POST("/:id/like", authRequired, limit(ratelimit.Vote), s.handler.Comment.LikeComment)
			comments.POST("/:id/dislike", authRequired, limit(ratelimit.Vote), s.handler.Comment.DislikeComment)
		}

		if s.hub != nil {
			api.GET("/ws", gin.WrapH(s.hub))
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": gin.H{"status": "up", "driver": config.StorageMemory}})
		return
	}

	stats := s.db.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "database": stats})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": stats})
}

func (s *Server) cookieName() string {
	if !s.cfg.CookieEnabled {
		return ""
	}
	return s.cfg.CookieName
}

// corsConfig echoes the request origin when "*" is configured, since a
// literal wildcard is rejected by browsers on credentialed requests.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 || slices.Contains(s.cfg.CORSOrigins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
	}
	return cfg
}
