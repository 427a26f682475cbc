package router

import (
	"context"
	"time"

	"github.com/anonto42/inkwell/backend/internal/commenttree"
	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies is everything the routes need
type Dependencies struct {
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Notifications repositories.NotificationRepository
	Posts         repositories.PostRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	SavedPosts    repositories.SavedPostRepository

	// Firebase is nil when federated login is not configured
	Firebase handlers.TokenVerifier

	JWTSecret            string
	JWTTTL               time.Duration
	CommentRefetchOnMiss bool
	Log                  zerolog.Logger

	// Metrics, when set, serves /metrics from this registry
	Metrics *prometheus.Registry
}

// NewDependencies builds the database-backed repositories
func NewDependencies(ctx context.Context, pgdb *gorm.DB, mongoDB *mongo.Database) (Dependencies, error) {
	comments := repositories.NewMongoCommentRepository(mongoDB)
	if err := comments.EnsureIndexes(ctx); err != nil {
		return Dependencies{}, err
	}
	return Dependencies{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Follows:       repositories.NewPostgresFollowRepository(pgdb),
		Notifications: repositories.NewPostgresNotificationRepository(pgdb),
		Likes:         repositories.NewPostgresLikeRepository(pgdb),
		SavedPosts:    repositories.NewPostgresSavedPostRepository(pgdb),
		Posts:         repositories.NewMongoPostRepository(mongoDB),
		Comments:      comments,
	}, nil
}

// Migrate creates or updates the PostgreSQL tables
func Migrate(pgdb *gorm.DB) error {
	return pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
		&models.Like{},
		&models.SavedPost{},
	)
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, log zerolog.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and returns the comment
// store backing the comment endpoints
func SetupRoutes(e *echo.Echo, deps Dependencies) *commenttree.Store {
	log := deps.Log

	e.GET("/health", handlers.HealthCheck)

	commentService := services.NewCommentService(deps.Comments, deps.Posts, deps.Notifications, log)
	var storeService commenttree.Service = commentService
	var m *metrics.Metrics
	if deps.Metrics != nil {
		m = metrics.New(deps.Metrics)
		storeService = m.Instrument(commentService)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}
	store := commenttree.NewStore(storeService, commenttree.Options{
		Logger:        log.With().Str("component", "comment_store").Logger(),
		RefetchOnMiss: deps.CommentRefetchOnMiss,
	})
	if m != nil {
		m.WatchStore(store)
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(deps.Users, deps.Firebase, deps.JWTSecret, deps.JWTTTL).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret))

	handlers.NewUserHandler(deps.Users).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(deps.Follows, deps.Users, deps.Notifications, log).RegisterFollowRoutes(api)
	handlers.NewFeedHandler(deps.Posts, deps.Users, deps.Follows).RegisterFeedRoutes(api)
	handlers.NewPostHandler(deps.Posts, deps.Users, deps.Likes, deps.SavedPosts, commentService, store, log).RegisterPostRoutes(api)
	handlers.NewLikeHandler(deps.Likes, deps.Posts, deps.Users, deps.Notifications, log).RegisterLikeRoutes(api)
	handlers.NewSavedPostHandler(deps.SavedPosts, deps.Posts, deps.Users).RegisterSavedPostRoutes(api)
	handlers.NewCommentHandler(store, deps.Comments, deps.Posts, deps.Users).RegisterCommentRoutes(api)
	handlers.NewNotificationHandler(deps.Notifications, deps.Users).RegisterNotificationRoutes(api)

	log.Info().Bool("firebase_login", deps.Firebase != nil).Msg("routes configured")
	return store
}
