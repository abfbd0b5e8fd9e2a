package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
)

// SetupRoutes registers all HTTP endpoints on the router.
func SetupRoutes(
	router *gin.Engine,
	mode dualstore.Mode,
	authService service.AuthService,
	userService service.UserService,
	progressService service.ProgressService,
	planService service.PlanService,
	analysisService service.AnalysisService,
	logger zerolog.Logger,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	progressHandler := NewProgressHandler(progressService)
	trainingHandler := NewPlanHandler(planService, domain.PlanTraining)
	dietHandler := NewPlanHandler(planService, domain.PlanDiet)
	analysisHandler := NewAnalysisHandler(analysisService)

	authMiddleware := AuthMiddleware(authService, userService, mode, logger)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		userGroup := protected.Group("/users")
		{
			userGroup.GET("/me", userHandler.Me)
			userGroup.PUT("/me", userHandler.UpdateMe)
			// Admin-only account management.
			userGroup.GET("", RoleMiddleware(domain.RoleAdmin), userHandler.List)
			userGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), userHandler.Delete)
		}

		progressGroup := protected.Group("/progress")
		{
			progressGroup.POST("", progressHandler.Create)
			progressGroup.GET("", progressHandler.List)
			progressGroup.GET("/:id", progressHandler.Get)
			progressGroup.PUT("/:id", progressHandler.Update)
			progressGroup.DELETE("/:id", progressHandler.Delete)
		}

		// The two plan families share one handler implementation; the
		// kind is fixed per route group.
		registerPlanRoutes(protected.Group("/plans/training"), trainingHandler)
		registerPlanRoutes(protected.Group("/plans/diet"), dietHandler)

		analysisGroup := protected.Group("/analyses")
		{
			analysisGroup.POST("/generate", analysisHandler.Generate)
			analysisGroup.GET("", analysisHandler.List)
			analysisGroup.POST("/import", analysisHandler.Import)
			analysisGroup.GET("/:id", analysisHandler.Get)
			analysisGroup.PUT("/:id", analysisHandler.Update)
			analysisGroup.DELETE("/:id", analysisHandler.Delete)
			analysisGroup.GET("/:id/export", analysisHandler.Export)
		}
	}
}

func registerPlanRoutes(group *gin.RouterGroup, handler *PlanHandler) {
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/exists", handler.Exists)
	group.POST("/import", handler.Import)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.GET("/:id/export", handler.Export)
	group.POST("/:id/days", handler.AddDay)
	group.DELETE("/:id/days/:dayId", handler.RemoveDay)
	group.POST("/:id/days/:dayId/items", handler.AddItem)
	group.DELETE("/:id/days/:dayId/items/:itemId", handler.RemoveItem)
}
