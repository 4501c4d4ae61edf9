package auth

import (
	"github.com/interclub/organizer/internal/user"
	"gorm.io/gorm"
)

// AuthRepository defines the data operations needed by registration and login.
type AuthRepository interface {
	GetUserByID(id uint) (*user.User, error)
	GetUserByEmail(email string) (*user.User, error)
	EmailOrLicenseExists(email, licenseNumber string) (bool, error)
	CreateUser(u *user.User) error
}

type authRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) GetUserByID(id uint) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *authRepository) GetUserByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *authRepository) EmailOrLicenseExists(email, licenseNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).
		Where("email = ? OR license_number = ?", email, licenseNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *authRepository) CreateUser(u *user.User) error {
	return r.db.Create(u).Error
}
