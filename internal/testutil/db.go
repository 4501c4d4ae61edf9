// Package testutil provides an in-memory database for repository and
// handler tests. Production code must not import it.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/interclub/organizer/internal/club"
	"github.com/interclub/organizer/internal/match"
	"github.com/interclub/organizer/internal/team"
	"github.com/interclub/organizer/internal/user"
)

// NewDB opens a fresh in-memory SQLite database with the full schema
// migrated. The single-connection limit keeps every query on the same
// in-memory instance.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&user.Club{}, &user.User{}, &club.LicenseClubMap{},
		&team.Team{}, &team.TeamMembership{},
		&match.Match{}, &match.MatchDate{}, &match.Availability{},
		&match.LineupEntry{}, &match.MatchTask{}, &match.MatchMessage{},
	)
	if err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}
	return db
}

// CreateUser inserts a user with sensible defaults.
func CreateUser(t *testing.T, db *gorm.DB, firstName, lastName, email, license string, clubID uint, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		LicenseNumber: license,
		PasswordHash:  "x",
		ClubID:        clubID,
		Role:          role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateClub inserts a club.
func CreateClub(t *testing.T, db *gorm.DB, name string) *user.Club {
	t.Helper()
	c := &user.Club{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create club %s: %v", name, err)
	}
	return c
}
