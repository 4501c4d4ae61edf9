package team

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/internal/authz"
	"github.com/interclub/organizer/internal/middleware"
	"github.com/interclub/organizer/pkg/mailer"
	"github.com/interclub/organizer/pkg/responses"
)

const (
	ActionApprove = "approve"
	ActionDeny    = "deny"
)

// TeamController handles the membership workflow: team creation, join
// requests, approval decisions and team deletion.
type TeamController struct {
	repo     TeamRepository
	gate     *authz.Gate
	notifier mailer.Notifier
}

func NewTeamController(repo TeamRepository, gate *authz.Gate, notifier mailer.Notifier) *TeamController {
	return &TeamController{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
	}
}

// --- DTOs ---

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

type ManageView struct {
	Team     *Team          `json:"team"`
	Members  []MemberRow    `json:"members"`
	Requests []MemberRow    `json:"requests"`
	Matches  []TeamMatchRow `json:"matches"`
}

type DashboardView struct {
	ClubName        string             `json:"club_name"`
	MyTeams         []MyTeamRow        `json:"my_teams"`
	UpcomingMatches []UpcomingMatchRow `json:"upcoming_matches"`
}

func teamIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("team_id"), 10, 32)
	return uint(id), err
}

// loadTeamForManager fetches the team and enforces the captain-or-admin
// gate. Missing and forbidden teams get the same answer so probing a team id
// reveals nothing.
func (tc *TeamController) loadTeamForManager(c *gin.Context, actor authz.Actor) *Team {
	teamID, err := teamIDParam(c)
	if err != nil {
		responses.BadRequest(c, "Invalid team id")
		return nil
	}
	t, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return nil
	}
	if t == nil || !tc.gate.IsCaptainOrAdmin(actor, t.CaptainID) {
		responses.NotAllowed(c)
		return nil
	}
	return t
}

// --- Handlers ---

// CreateTeam godoc
// @Summary      Create a team
// @Description  Creates a team with the caller as captain and auto-approved member; a player is promoted to captain.
// @Tags         Teams
// @Accept       json
// @Produce      json
// @Param        team  body  CreateTeamRequest  true  "Team data"
// @Success      201  {object}  responses.SuccessResponse{data=Team}
// @Failure      400  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /teams [post]
func (tc *TeamController) CreateTeam(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		responses.BadRequest(c, "Team name is required")
		return
	}

	t := &Team{
		ClubID:    actor.ClubID,
		Name:      name,
		CaptainID: actor.ID,
	}
	if err := tc.repo.CreateTeamWithCaptain(t); err != nil {
		responses.InternalServerError(c, "Team creation failed")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team created, you are the captain", t)
}

// GetClubTeams godoc
// @Summary      Club team directory
// @Description  Lists the caller's club teams with their membership status.
// @Tags         Teams
// @Produce      json
// @Success      200  {object}  responses.SuccessResponse{data=[]DirectoryRow}
// @Security     ApiKeyAuth
// @Router       /teams [get]
func (tc *TeamController) GetClubTeams(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	directory, err := tc.repo.GetClubDirectory(actor.ClubID, actor.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", directory)
}

// RequestJoin godoc
// @Summary      Request to join a team
// @Tags         Teams
// @Produce      json
// @Param        team_id  path  int  true  "Team ID"
// @Success      201  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse "Request or membership already exists"
// @Security     ApiKeyAuth
// @Router       /teams/{team_id}/join [post]
func (tc *TeamController) RequestJoin(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	teamID, err := teamIDParam(c)
	if err != nil {
		responses.BadRequest(c, "Invalid team id")
		return
	}

	t, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if t == nil {
		responses.NotAllowed(c)
		return
	}

	if err := tc.repo.CreateJoinRequest(teamID, actor.ID); err != nil {
		if errors.Is(err, ErrMembershipExists) {
			responses.Conflict(c, "You already have a request or membership for this team")
			return
		}
		responses.InternalServerError(c, "")
		return
	}

	if captain, err := tc.repo.GetUserContact(t.CaptainID); err == nil {
		tc.notifier.Notify(captain.Email, "New join request",
			fmt.Sprintf("Hello %s,\n\n%s has asked to join your team %s.\n\n— Interclub Organizer",
				captain.FirstName, actor.FullName(), t.Name))
	}

	responses.SendSuccess(c, http.StatusCreated, "Join request sent", nil)
}

// ManageTeam godoc
// @Summary      Team management view
// @Description  Roster, open join requests and matches. Captain or club admin only.
// @Tags         Teams
// @Produce      json
// @Param        team_id  path  int  true  "Team ID"
// @Success      200  {object}  responses.SuccessResponse{data=ManageView}
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /teams/{team_id}/manage [get]
func (tc *TeamController) ManageTeam(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	t := tc.loadTeamForManager(c, actor)
	if t == nil {
		return
	}

	members, err := tc.repo.GetApprovedMembers(t.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	requests, err := tc.repo.GetPendingRequests(t.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	matches, err := tc.repo.GetTeamMatches(t.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", ManageView{
		Team:     t,
		Members:  members,
		Requests: requests,
		Matches:  matches,
	})
}

// DecideRequest godoc
// @Summary      Approve or deny a join request
// @Description  Approve stamps the approval time and notifies the requester; deny removes the request entirely.
// @Tags         Teams
// @Produce      json
// @Param        team_id  path  int     true  "Team ID"
// @Param        user_id  path  int     true  "Requesting user ID"
// @Param        action   path  string  true  "approve or deny"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /teams/{team_id}/requests/{user_id}/{action} [put]
func (tc *TeamController) DecideRequest(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	t := tc.loadTeamForManager(c, actor)
	if t == nil {
		return
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid user id")
		return
	}
	action := c.Param("action")

	switch action {
	case ActionApprove:
		if err := tc.repo.ApproveMembership(t.ID, uint(userID)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.NotAllowed(c)
				return
			}
			responses.InternalServerError(c, "")
			return
		}
		if u, err := tc.repo.GetUserContact(uint(userID)); err == nil {
			tc.notifier.Notify(u.Email, "Join request approved",
				fmt.Sprintf("Hello %s,\n\nYour request to join %s has been accepted.\n\n— Interclub Organizer",
					u.FirstName, t.Name))
		}
		responses.SendSuccess(c, http.StatusOK, "Request approved", nil)
	case ActionDeny:
		if err := tc.repo.DenyMembership(t.ID, uint(userID)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.NotAllowed(c)
				return
			}
			responses.InternalServerError(c, "")
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Request denied", nil)
	default:
		responses.BadRequest(c, "Action must be approve or deny")
	}
}

// DeleteTeam godoc
// @Summary      Delete a team
// @Description  Removes the team, its memberships and every owned match with all dependent rows.
// @Tags         Teams
// @Produce      json
// @Param        team_id  path  int  true  "Team ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /teams/{team_id} [delete]
func (tc *TeamController) DeleteTeam(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	t := tc.loadTeamForManager(c, actor)
	if t == nil {
		return
	}

	if err := tc.repo.DeleteTeamCascade(t.ID); err != nil {
		responses.InternalServerError(c, "Team deletion failed")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team deleted", nil)
}

// Dashboard godoc
// @Summary      Member dashboard
// @Description  Club name, the caller's teams and upcoming matches across their approved teams.
// @Tags         Teams
// @Produce      json
// @Success      200  {object}  responses.SuccessResponse{data=DashboardView}
// @Security     ApiKeyAuth
// @Router       /dashboard [get]
func (tc *TeamController) Dashboard(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	clubName, err := tc.repo.GetClubName(actor.ClubID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	myTeams, err := tc.repo.GetUserTeams(actor.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	upcoming, err := tc.repo.GetUpcomingMatches(actor.ID, 20)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", DashboardView{
		ClubName:        clubName,
		MyTeams:         myTeams,
		UpcomingMatches: upcoming,
	})
}
