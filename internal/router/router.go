package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/handler"
	"github.com/lingomarket/lingomarket-api/internal/middleware"
	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/payments"
	"github.com/lingomarket/lingomarket-api/internal/repository"
	"github.com/lingomarket/lingomarket-api/internal/service"
	"github.com/lingomarket/lingomarket-api/pkg/config"
	"github.com/lingomarket/lingomarket-api/pkg/storage"
)

// Dependencies carries the process-level resources the route tree needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService
}

// RegisterRoutes builds the repository, service and handler graph and mounts
// every API route under the configured prefix.
func RegisterRoutes(r *gin.Engine, deps Dependencies) error {
	cfg := deps.Config
	logr := deps.Logger
	validate := validator.New()

	userRepo := repository.NewUserRepository(deps.DB)
	bookingRepo := repository.NewBookingRepository(deps.DB)
	sessionRepo := repository.NewSessionRepository(deps.DB)
	reviewRepo := repository.NewReviewRepository(deps.DB)
	auditRepo := repository.NewAuditRepository(deps.DB)

	var cacheService *service.CacheService
	if deps.Redis != nil {
		cacheRepo := repository.NewCacheRepository(deps.Redis, logr)
		cacheService = service.NewCacheService(cacheRepo, deps.Metrics, cfg.Discovery.CacheTTL, logr, cfg.Discovery.CacheEnabled)
	} else {
		cacheService = service.NewCacheService(nil, deps.Metrics, cfg.Discovery.CacheTTL, logr, false)
	}

	var cardProvider payments.Provider
	if cfg.Payments.StripeSecretKey != "" {
		cardProvider = payments.NewStripeProvider(cfg.Payments.StripeSecretKey)
	}
	var mockProvider payments.Provider
	if cfg.Payments.MockEnabled {
		mockProvider = payments.NewMockProvider(cfg.Payments.Currency)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lingomarket-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	discoveryService := service.NewDiscoveryService(userRepo, cacheService, logr)
	paymentService := service.NewPaymentService(cardProvider, mockProvider, cfg.Payments.Currency, cfg.Payments.MockEnabled, validate, deps.Metrics, logr)
	bookingService := service.NewBookingService(bookingRepo, userRepo, paymentService, validate, logr)
	sessionService := service.NewSessionService(sessionRepo, bookingRepo, userRepo, cfg.Meetings.RoomBaseURL, validate, logr)
	reviewService := service.NewReviewService(reviewRepo, sessionRepo, bookingRepo, userRepo, validate, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewStatementStore(cfg.Exports.StorageDir)
		if err != nil {
			return err
		}
		signer := storage.NewURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService = service.NewExportService(bookingRepo, store, signer, true, logr)
	} else {
		exportService = service.NewExportService(bookingRepo, nil, nil, false, logr)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, discoveryService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	exportHandler := handler.NewExportHandler(exportService)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.PUT("/password", middleware.JWT(authService), authHandler.ChangePassword)

	users := api.Group("/users")
	users.GET("/trainers", userHandler.SearchTrainers)
	users.GET("/trainers/:id", userHandler.GetTrainer)
	users.GET("/me", middleware.JWT(authService), userHandler.Me)
	users.PUT("/me", middleware.JWT(authService), userHandler.UpdateMe)
	users.GET("/me/stats", middleware.JWT(authService), userHandler.MyStats)

	pays := api.Group("/payments", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent))
	pays.POST("/create-payment-intent", middleware.Audit(auditRepo, "payment.intent", "payment"), paymentHandler.CreateIntent)
	pays.POST("/fake-payment", middleware.Audit(auditRepo, "payment.mock", "payment"), paymentHandler.MockPay)

	bookings := api.Group("/bookings", middleware.JWT(authService))
	bookings.POST("", middleware.RequireRoles(models.RoleStudent), middleware.Audit(auditRepo, "booking.create", "booking"), bookingHandler.Create)
	bookings.PUT("/:id/payment", middleware.RequireRoles(models.RoleStudent), middleware.Audit(auditRepo, "booking.payment", "booking"), bookingHandler.MarkPayment)
	bookings.GET("/my-bookings", middleware.RequireRoles(models.RoleStudent), bookingHandler.MyBookings)
	bookings.GET("/trainer-bookings", middleware.RequireRoles(models.RoleTrainer), bookingHandler.TrainerBookings)

	sessions := api.Group("/sessions", middleware.JWT(authService))
	sessions.POST("", middleware.RequireRoles(models.RoleTrainer), middleware.Audit(auditRepo, "session.create", "session"), sessionHandler.Create)
	sessions.GET("/my-sessions", sessionHandler.MySessions)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PUT("/:id/status", middleware.RequireRoles(models.RoleTrainer), middleware.Audit(auditRepo, "session.status", "session"), sessionHandler.UpdateStatus)

	reviews := api.Group("/reviews")
	reviews.POST("", middleware.JWT(authService), middleware.RequireRoles(models.RoleStudent), middleware.Audit(auditRepo, "review.create", "review"), reviewHandler.Create)
	reviews.GET("/trainer/:trainerId", reviewHandler.ListForTrainer)
	reviews.GET("/trainer/:trainerId/summary", reviewHandler.TrainerSummary)
	reviews.GET("/trainer-reviews", middleware.JWT(authService), middleware.RequireRoles(models.RoleTrainer), reviewHandler.MyReviews)
	reviews.GET("/session/:sessionId", reviewHandler.ListForSession)

	exports := api.Group("/exports")
	exports.POST("/earnings", middleware.JWT(authService), middleware.RequireRoles(models.RoleTrainer), exportHandler.GenerateStatement)
	exports.GET("/download", exportHandler.Download)

	return nil
}
