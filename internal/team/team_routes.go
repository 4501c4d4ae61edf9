package team

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/authz"
	mw "github.com/interclub/organizer/internal/middleware"
	"github.com/interclub/organizer/pkg/mailer"
)

// TeamRoutes sets up all team-related routes. Authorization beyond
// authentication is handled inside the controller.
func TeamRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, notifier mailer.Notifier) {
	teamRepo := NewTeamRepository(db)
	gate := authz.NewGate(db)
	teamController := NewTeamController(teamRepo, gate, notifier)

	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.Secret, db))
	{
		authRoutes.GET("/dashboard", teamController.Dashboard)

		authRoutes.GET("/teams", teamController.GetClubTeams)
		authRoutes.POST("/teams", teamController.CreateTeam)
		authRoutes.DELETE("/teams/:team_id", teamController.DeleteTeam)

		authRoutes.POST("/teams/:team_id/join", teamController.RequestJoin)
		authRoutes.GET("/teams/:team_id/manage", teamController.ManageTeam)
		authRoutes.PUT("/teams/:team_id/requests/:user_id/:action", teamController.DecideRequest)
	}
}
