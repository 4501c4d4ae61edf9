package auth

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/club"
	"github.com/interclub/organizer/internal/middleware"
)

func RegisterAuthRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	authRepo := NewAuthRepository(db)
	resolver := club.NewResolver(db)
	authController := NewAuthController(authRepo, resolver, appConfig)

	authPublic := router.Group("/auth")
	{
		authPublic.POST("/register", authController.Register)
		authPublic.POST("/login", authController.Login)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(middleware.AuthMiddleware(appConfig.JWT.Secret, db))
	{
		authProtected.GET("/me", authController.GetProfile)
	}
}
