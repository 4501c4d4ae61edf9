package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/club"
	"github.com/interclub/organizer/internal/middleware"
	"github.com/interclub/organizer/internal/user"
	"github.com/interclub/organizer/pkg/responses"
	"github.com/interclub/organizer/pkg/token"
	"github.com/interclub/organizer/utils"
)

type AuthController struct {
	repo     AuthRepository
	resolver *club.Resolver
	config   *config.Config
}

func NewAuthController(repo AuthRepository, resolver *club.Resolver, cfg *config.Config) *AuthController {
	return &AuthController{
		repo:     repo,
		resolver: resolver,
		config:   cfg,
	}
}

// Register godoc
// @Summary      Register a new member
// @Description  Creates a user; the club is resolved from the license number prefix.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user  body  RegisterRequest  true  "Registration details"
// @Success      201  {object}  responses.SuccessResponse{data=UserResponse}
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid input: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	licenseNumber := strings.TrimSpace(req.LicenseNumber)

	exists, err := ac.repo.EmailOrLicenseExists(email, licenseNumber)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if exists {
		responses.Conflict(c, "Email or license number is already registered")
		return
	}

	clubID, err := ac.resolver.Resolve(licenseNumber)
	if err != nil {
		if errors.Is(err, club.ErrNoClubForLicense) {
			responses.Conflict(c, "License number is not mapped to any club")
			return
		}
		responses.InternalServerError(c, "")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		responses.InternalServerError(c, "Error hashing password")
		return
	}

	newUser := &user.User{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         email,
		LicenseNumber: licenseNumber,
		PasswordHash:  hash,
		ClubID:        clubID,
		Role:          user.RolePlayer,
	}
	if err := ac.repo.CreateUser(newUser); err != nil {
		responses.InternalServerError(c, "User creation failed")
		return
	}

	responses.SendSuccess(c, http.StatusCreated, "Registration successful", FilterUserRecord(newUser))
}

// Login godoc
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  responses.SuccessResponse{data=AuthResponse}
// @Failure      401  {object}  responses.ErrorResponse
// @Router       /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid input: "+err.Error())
		return
	}

	u, err := ac.repo.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			responses.SendError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		responses.InternalServerError(c, "")
		return
	}
	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		responses.SendError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	accessToken, err := token.GenerateJWT(u.ID, string(u.Role), u.ClubID, ac.config.JWT.Secret, ac.config.JWT.ExpiryMinutes)
	if err != nil {
		responses.InternalServerError(c, "Token generation failed")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Login successful", AuthResponse{
		AccessToken: accessToken,
		User:        FilterUserRecord(u),
	})
}

// GetProfile godoc
// @Summary      Current member profile
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  responses.SuccessResponse{data=UserResponse}
// @Security     ApiKeyAuth
// @Router       /auth/me [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := ac.repo.GetUserByID(actor.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", FilterUserRecord(u))
}
