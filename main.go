package main

import (
	"log"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/club"
	"github.com/interclub/organizer/internal/match"
	"github.com/interclub/organizer/internal/team"
	"github.com/interclub/organizer/internal/user"
	"github.com/interclub/organizer/routes"
)

// @title Interclub Organizer REST API
// @version 1.0
// @description Coordination backend for amateur club teams: membership, match scheduling, lineups and logistics.
// @host localhost:8080
// @BasePath /api
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()

	err := config.DB.AutoMigrate(
		&user.Club{}, &user.User{}, &club.LicenseClubMap{},
		&team.Team{}, &team.TeamMembership{},
		&match.Match{}, &match.MatchDate{}, &match.Availability{},
		&match.LineupEntry{}, &match.MatchTask{}, &match.MatchMessage{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	log.Println("AutoMigrate successful")

	r := routes.SetupRoutes(config.DB, cfg)

	log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
