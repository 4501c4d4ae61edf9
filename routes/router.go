package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/auth"
	"github.com/interclub/organizer/internal/match"
	"github.com/interclub/organizer/internal/team"
	"github.com/interclub/organizer/pkg/mailer"
)

func SetupRoutes(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default()) // allows all origins, GET/POST/PUT

	notifier := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	// Welcome page
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`
			<html>
				<head><title>Interclub Organizer</title></head>
				<body style="text-align:center; margin-top: 40px;">
					<h1>Interclub Organizer</h1>
					<p>Club coordination API. See <a href="/swagger/index.html">swagger</a>.</p>
				</body>
			</html>
		`))
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	auth.RegisterAuthRoutes(api, db, cfg)
	team.TeamRoutes(api, db, cfg, notifier)
	match.MatchRoutes(api, db, cfg, notifier)

	return r
}
