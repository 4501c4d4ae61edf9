package club

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNoClubForLicense means no mapping prefix matches the license number.
// Registration must fail in that case rather than defaulting to any club.
var ErrNoClubForLicense = errors.New("license number is not mapped to any club")

// Resolver assigns a club to a license number by longest-prefix match over
// the license_club_maps table.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the club whose mapping prefix is the longest prefix of the
// given license number. Prefix uniqueness is enforced at data entry, so two
// matching prefixes of equal length cannot exist.
func (r *Resolver) Resolve(licenseNumber string) (uint, error) {
	var mappings []LicenseClubMap
	if err := r.db.Find(&mappings).Error; err != nil {
		return 0, err
	}

	var best *LicenseClubMap
	for i := range mappings {
		m := &mappings[i]
		if !strings.HasPrefix(licenseNumber, m.LicensePrefix) {
			continue
		}
		if best == nil || len(m.LicensePrefix) > len(best.LicensePrefix) {
			best = m
		}
	}
	if best == nil {
		return 0, ErrNoClubForLicense
	}
	return best.ClubID, nil
}
