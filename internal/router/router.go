package router

import (
	"time"

	"feedra/config"
	"feedra/internal/domain"
	"feedra/internal/feed"
	"feedra/internal/handler"
	"feedra/internal/middleware"
	"feedra/internal/repository"
	"feedra/internal/service"
	"feedra/pkg/cloudinary"
	"feedra/pkg/mailer"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, mailProvider mailer.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	bus := feed.NewBus()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	donationRepo := repository.NewDonationRepository(db, bus)
	paymentRepo := repository.NewPaymentRepository(db, bus)

	// Services
	mailSvc := service.NewMailService(mailProvider, cfg.Mail.FromName)
	authSvc := service.NewAuthService(cfg, userRepo, mailSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	donationHandler := handler.NewDonationHandler(donationRepo, userRepo, mailSvc)
	paymentHandler := handler.NewPaymentHandler(paymentRepo)
	statsHandler := handler.NewStatsHandler(donationRepo)
	uploadHandler := handler.NewUploadHandler(cloud)
	mailHandler := handler.NewMailHandler(mailSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.POST("/reset-password/complete", authHandler.CompleteReset)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		// Browsing is public; everything that writes needs a session.
		api.GET("/donations", donationHandler.List)
		api.GET("/donations/:id", donationHandler.Get)
		api.GET("/stats", statsHandler.Get)

		donations := api.Group("/donations")
		donations.Use(authMw)
		{
			donations.POST("", donationHandler.Create)
			donations.POST("/:id/claim", donationHandler.Claim)
			donations.POST("/:id/complete", donationHandler.Complete)
			donations.DELETE("/:id", donationHandler.Delete)
		}
		api.GET("/me/donations", authMw, donationHandler.ListMine)

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.PATCH("/:id", paymentHandler.UpdateStatus)
			payments.DELETE("/:id", paymentHandler.Delete)
		}

		api.POST("/uploads/donation-image", authMw, uploadHandler.UploadDonationImage)
		api.POST("/mail/test", authMw, middleware.RequireRole(domain.RoleAdmin), mailHandler.Test)

		// Live feed: token goes in the query string because browsers cannot
		// set headers on WebSocket upgrades.
		api.GET("/ws/live", handler.UpgradeLiveWS(&cfg.JWT, donationRepo))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
