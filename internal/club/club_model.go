package club

import "gorm.io/gorm"

// LicenseClubMap maps a license number prefix to a club. Prefixes are unique
// so longest-prefix resolution can never tie.
type LicenseClubMap struct {
	gorm.Model
	LicensePrefix string `gorm:"uniqueIndex;not null" json:"license_prefix"`
	ClubID        uint   `gorm:"index;not null" json:"club_id"`
}
