package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"timesheet/internal/domain"
	"timesheet/internal/handler"
	"timesheet/internal/middleware"
	"timesheet/internal/service"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	TimesheetHandler *handler.TimesheetHandler
	AuthService      *service.AuthService
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
	UploadsDir       string
	UploadsBaseURL   string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	authed := middleware.Authenticate(deps.AuthService)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Uploaded receipts are served straight from disk.
	if deps.UploadsDir != "" {
		router.Static(deps.UploadsBaseURL, deps.UploadsDir)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Auth routes.
		auth := v1.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/refresh-token", deps.AuthHandler.Refresh)
			auth.POST("/logout", authed, deps.AuthHandler.Logout)
			auth.POST("/forgot-password", deps.AuthHandler.ForgotPassword)
			auth.POST("/reset-password", deps.AuthHandler.ResetPassword)
			auth.POST("/change-password", authed, deps.AuthHandler.ChangePassword)
			auth.GET("/sessions", authed, deps.AuthHandler.Sessions)
			auth.DELETE("/sessions/:id", authed, deps.AuthHandler.RemoveSession)
		}

		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", authed, adminOnly, deps.UserHandler.Create)
			users.GET("", authed, adminOnly, deps.UserHandler.List)
			users.GET("/me", authed, deps.UserHandler.Profile)
			users.GET("/:id", authed, adminOnly, deps.UserHandler.Get)
			users.PUT("/:id", authed, adminOnly, deps.UserHandler.AdminUpdate)
			users.PATCH("/:id/name", authed, deps.UserHandler.UpdateName)
			users.DELETE("/:id", authed, adminOnly, deps.UserHandler.Delete)
			users.DELETE("", authed, adminOnly, deps.UserHandler.DeleteMany)
		}

		// Timesheet routes.
		timesheets := v1.Group("/timesheets", authed)
		{
			timesheets.POST("", deps.TimesheetHandler.Create)
			timesheets.GET("", deps.TimesheetHandler.List)
			timesheets.GET("/summary", deps.TimesheetHandler.Summary)
			timesheets.GET("/:id", deps.TimesheetHandler.Get)
			timesheets.POST("/receipt", deps.TimesheetHandler.UploadReceipt)
			timesheets.PUT("/:id", deps.TimesheetHandler.Update)
			timesheets.DELETE("/:id", deps.TimesheetHandler.Delete)
		}
	}

	return router
}
