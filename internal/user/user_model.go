package user

import "gorm.io/gorm"

// Role is the closed set of user roles. It is stored as a string column but
// only these three values are ever written.
type Role string

const (
	RolePlayer    Role = "player"
	RoleCaptain   Role = "captain"
	RoleClubAdmin Role = "club_admin"
)

// Club is seed data; the application never creates clubs, it only assigns
// users to them at registration.
type Club struct {
	gorm.Model
	Name string `gorm:"not null" json:"name"`
}

// User is an interclub member. The club is fixed at registration, resolved
// from the license number. Role is promoted player -> captain when the user
// creates their first team and is never demoted automatically.
type User struct {
	gorm.Model
	FirstName     string `gorm:"not null" json:"first_name"`
	LastName      string `gorm:"not null" json:"last_name"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	LicenseNumber string `gorm:"uniqueIndex;not null" json:"license_number"`
	PasswordHash  string `gorm:"not null" json:"-"`
	ClubID        uint   `gorm:"index;not null" json:"club_id"`
	Club          Club   `gorm:"foreignKey:ClubID" json:"-"`
	Role          Role   `gorm:"not null;default:'player'" json:"role"`
}

// FullName is the display form used in notifications and match views.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
