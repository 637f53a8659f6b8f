package router

import (
	"time"

	"smartcopy/config"
	"smartcopy/internal/handler"
	"smartcopy/internal/middleware"
	"smartcopy/internal/repository"
	"smartcopy/internal/service"
	"smartcopy/pkg/cloudinary"
	"smartcopy/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, payProvider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	textRepo := repository.NewTextRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	orderSvc := service.NewOrderService(orderRepo, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditRepo)
	meHandler := handler.NewMeHandler(userRepo, orderRepo, ledgerRepo)
	orderHandler := handler.NewOrderHandler(orderSvc, orderRepo)
	depositHandler := handler.NewDepositHandler(cfg, paymentRepo, userRepo, payProvider)
	webhookHandler := handler.NewPaymentWebhookHandler(cfg, paymentRepo, auditRepo)
	adminHandler := handler.NewAdminHandler(adminRepo, userRepo, ledgerRepo, orderRepo, textRepo, orderSvc, auditRepo)
	blogHandler := handler.NewBlogHandler(blogRepo, cloud)
	seoHandler := handler.NewSEOHandler(&cfg.Site, blogRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/sitemap.xml", seoHandler.Sitemap)
	r.GET("/robots.txt", seoHandler.Robots)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/verify", authHandler.VerifyEmail)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.TokenLogin)
		}

		api.GET("/blog", blogHandler.ListPublished)
		api.GET("/blog/:slug", blogHandler.GetBySlug)
		api.POST("/webhooks/payment", webhookHandler.Handle)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.GET("/balance", meHandler.GetBalance)
			me.GET("/transactions", meHandler.GetTransactions)
		}

		api.POST("/deposit/initiate", authMw, depositHandler.Initiate)

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/cancel", orderHandler.Cancel)
			orders.DELETE("/:id", orderHandler.Delete)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id/balance", adminHandler.AdjustBalance)
			admin.PATCH("/users/:id/role", adminHandler.UpdateRole)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id", adminHandler.UpdateOrder)
			admin.DELETE("/orders/:id", adminHandler.DeleteOrder)
			admin.GET("/texts/:id/details", adminHandler.GetTextDetails)
			admin.PATCH("/texts/:id/content", adminHandler.OverwriteContent)
			admin.GET("/blog", blogHandler.AdminList)
			admin.POST("/blog", blogHandler.AdminCreate)
			admin.PATCH("/blog/:id", blogHandler.AdminUpdate)
			admin.DELETE("/blog/:id", blogHandler.AdminDelete)
			admin.POST("/blog/upload-cover", blogHandler.UploadCover)
		}
	}

	return r
}
