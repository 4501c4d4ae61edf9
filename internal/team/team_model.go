// team/team_model.go
package team

import (
	"time"

	"gorm.io/gorm"
)

// Team is owned by exactly one captain. There is no captain transfer; a team
// changes hands only by being re-created.
type Team struct {
	gorm.Model
	ClubID    uint   `json:"club_id" gorm:"index;not null"`
	Name      string `json:"name" gorm:"not null"`
	CaptainID uint   `json:"captain_id" gorm:"index;not null"`
}

// TeamMembership doubles as a pending join request (Approved false) and an
// active roster entry (Approved true). One row per (team, user).
type TeamMembership struct {
	gorm.Model
	TeamID     uint       `json:"team_id" gorm:"index;not null;uniqueIndex:idx_team_user_unique"`
	UserID     uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_team_user_unique"`
	Approved   bool       `json:"approved" gorm:"not null;default:false"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}
