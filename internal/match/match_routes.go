package match

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/authz"
	mw "github.com/interclub/organizer/internal/middleware"
	"github.com/interclub/organizer/pkg/mailer"
)

// MatchRoutes sets up all match-related routes. Authorization beyond
// authentication is handled inside the controller.
func MatchRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, notifier mailer.Notifier) {
	matchRepo := NewMatchRepository(db)
	gate := authz.NewGate(db)
	matchController := NewMatchController(matchRepo, gate, notifier)

	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.Secret, db))
	{
		authRoutes.POST("/teams/:team_id/matches", matchController.CreateMatch)

		authRoutes.GET("/matches/:match_id", matchController.GetMatch)
		authRoutes.PUT("/matches/:match_id", matchController.EditMatch)
		authRoutes.DELETE("/matches/:match_id", matchController.DeleteMatch)

		authRoutes.PUT("/matches/:match_id/availability", matchController.SubmitAvailability)
		authRoutes.POST("/matches/:match_id/confirm-date", matchController.ConfirmDate)

		authRoutes.PUT("/matches/:match_id/lineup", matchController.SetLineup)
		authRoutes.POST("/matches/:match_id/lineup/respond", matchController.RespondLineup)

		authRoutes.POST("/matches/:match_id/tasks", matchController.ClaimTask)

		authRoutes.GET("/matches/:match_id/messages", matchController.GetMessages)
		authRoutes.POST("/matches/:match_id/messages", matchController.PostMessage)
	}
}
