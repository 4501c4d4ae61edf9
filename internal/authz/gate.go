// Package authz holds the single authorization gate consulted before every
// mutating or match-viewing operation.
package authz

import (
	"github.com/interclub/organizer/internal/user"
	"gorm.io/gorm"
)

// Actor is the authenticated user invoking an operation, as loaded by the
// auth middleware. Identity, role and club are read from the users table on
// every request.
type Actor struct {
	ID        uint
	FirstName string
	LastName  string
	Email     string
	ClubID    uint
	Role      user.Role
}

// FullName is the display form used in notifications.
func (a Actor) FullName() string {
	return a.FirstName + " " + a.LastName
}

// IsAdmin reports whether the actor holds the club_admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleClubAdmin
}

// Gate evaluates the two authorization predicates. A failed predicate means
// the operation performs no state change and emits no notification.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// IsCaptainOrAdmin is true iff the actor owns the team or is a club admin.
func (g *Gate) IsCaptainOrAdmin(actor Actor, captainID uint) bool {
	return actor.ID == captainID || actor.IsAdmin()
}

// IsApprovedMember is true iff an approved membership row exists for the
// actor on the team, or the actor is a club admin.
func (g *Gate) IsApprovedMember(actor Actor, teamID uint) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	var count int64
	err := g.db.Table("team_memberships").
		Where("team_id = ? AND user_id = ? AND approved = ? AND deleted_at IS NULL", teamID, actor.ID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
