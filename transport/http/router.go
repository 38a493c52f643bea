package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pitchbase/pitchbase/service"
)

// RouterConfig carries the transport-level settings.
type RouterConfig struct {
	// Origin is the frontend origin allowed to call the API.
	Origin string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	cfg RouterConfig,
	authService *service.AuthService,
	accountService *service.AccountService,
	transferService *service.TransferService,
) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{cfg.Origin}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	handlers := NewHandlers(authService, accountService, transferService)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Public profile routes
	api := router.Group("/api")
	{
		api.GET("/users/:id", handlers.GetUser)
		api.GET("/wallets/:address", handlers.GetUserByWallet)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", handlers.Me)
		protected.PATCH("/me", handlers.UpdateProfile)
		protected.GET("/transfers", handlers.Transfers)
	}

	return router
}
