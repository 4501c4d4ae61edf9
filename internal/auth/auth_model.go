package auth

import (
	"time"

	"github.com/interclub/organizer/internal/user"
)

type RegisterRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	LicenseNumber string `json:"license_number" binding:"required"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID            uint      `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	LicenseNumber string    `json:"license_number"`
	ClubID        uint      `json:"club_id"`
	Role          user.Role `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

func FilterUserRecord(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		LicenseNumber: u.LicenseNumber,
		ClubID:        u.ClubID,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
	}
}
