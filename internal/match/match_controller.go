package match

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/interclub/organizer/internal/authz"
	"github.com/interclub/organizer/internal/middleware"
	"github.com/interclub/organizer/pkg/mailer"
	"github.com/interclub/organizer/pkg/responses"
)

const (
	ResponseAccept  = "accept"
	ResponseDecline = "decline"

	messageHistoryLimit = 50
)

// MatchController handles match scheduling, lineup selection, task claiming
// and the discussion thread.
type MatchController struct {
	repo     MatchRepository
	gate     *authz.Gate
	notifier mailer.Notifier
}

func NewMatchController(repo MatchRepository, gate *authz.Gate, notifier mailer.Notifier) *MatchController {
	return &MatchController{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
	}
}

// --- DTOs ---

type CreateMatchRequest struct {
	Opponent      string   `json:"opponent" binding:"required"`
	Location      string   `json:"location"`
	ProposedDates []string `json:"proposed_dates"`
}

type EditMatchRequest struct {
	Opponent      string   `json:"opponent" binding:"required"`
	Location      string   `json:"location"`
	ProposedDates []string `json:"proposed_dates"`
}

type AvailabilityRequest struct {
	DateIDs []uint `json:"date_ids"`
}

type ConfirmDateRequest struct {
	DateID uint `json:"date_id" binding:"required"`
}

type LineupRequest struct {
	PlayerIDs []uint `json:"player_ids"`
}

type LineupResponseRequest struct {
	Response string `json:"response" binding:"required,oneof=accept decline"`
}

type ClaimTaskRequest struct {
	Task string `json:"task" binding:"required"`
}

type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type DateOption struct {
	ID         uint      `json:"id"`
	ProposedAt time.Time `json:"proposed_at"`
	// Count and Names are filled only for the captain while the match is
	// still planned.
	Count *int     `json:"count,omitempty"`
	Names []string `json:"names,omitempty"`
}

type DetailView struct {
	Match           *Match       `json:"match"`
	TeamName        string       `json:"team_name"`
	IsCaptain       bool         `json:"is_captain"`
	DateOptions     []DateOption `json:"date_options"`
	MyDateIDs       []uint       `json:"my_date_ids"`
	Members         []PlayerRow  `json:"members"`
	Lineup          []LineupRow  `json:"lineup"`
	InLineup        bool         `json:"in_lineup"`
	LineupConfirmed bool         `json:"lineup_confirmed"`
	Tasks           []string     `json:"tasks"`
	TaskAssignments []TaskRow    `json:"task_assignments"`
	Messages        []MessageRow `json:"messages"`
}

// parseProposedDates accepts RFC 3339 and the HTML datetime-local format;
// empty entries are skipped, anything else is an input error.
func parseProposedDates(raw []string) ([]time.Time, error) {
	var dates []time.Time
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := time.Parse(time.RFC3339, s)
		if err != nil {
			d, err = time.Parse("2006-01-02T15:04", s)
		}
		if err != nil {
			return nil, fmt.Errorf("malformed date %q", s)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func matchIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("match_id"), 10, 32)
	return uint(id), err
}

// loadMatch fetches the match and its owning team. A missing match answers
// exactly like a forbidden one, via the callers below.
func (mc *MatchController) loadMatch(c *gin.Context) (*Match, *TeamInfo, bool) {
	matchID, err := matchIDParam(c)
	if err != nil {
		responses.BadRequest(c, "Invalid match id")
		return nil, nil, false
	}
	m, err := mc.repo.GetMatchByID(matchID)
	if err != nil {
		responses.InternalServerError(c, "")
		return nil, nil, false
	}
	if m == nil {
		responses.NotAllowed(c)
		return nil, nil, false
	}
	info, err := mc.repo.GetTeamInfo(m.TeamID)
	if err != nil {
		responses.InternalServerError(c, "")
		return nil, nil, false
	}
	if info == nil {
		responses.NotAllowed(c)
		return nil, nil, false
	}
	return m, info, true
}

// loadMatchForMember enforces the approved-member gate.
func (mc *MatchController) loadMatchForMember(c *gin.Context, actor authz.Actor) (*Match, *TeamInfo, bool) {
	m, info, ok := mc.loadMatch(c)
	if !ok {
		return nil, nil, false
	}
	member, err := mc.gate.IsApprovedMember(actor, info.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return nil, nil, false
	}
	if !member {
		responses.NotAllowed(c)
		return nil, nil, false
	}
	return m, info, true
}

// loadMatchForCaptain enforces the captain-or-admin gate.
func (mc *MatchController) loadMatchForCaptain(c *gin.Context, actor authz.Actor) (*Match, *TeamInfo, bool) {
	m, info, ok := mc.loadMatch(c)
	if !ok {
		return nil, nil, false
	}
	if !mc.gate.IsCaptainOrAdmin(actor, info.CaptainID) {
		responses.NotAllowed(c)
		return nil, nil, false
	}
	return m, info, true
}

func getActorOrAbort(c *gin.Context) (authz.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return authz.Actor{}, false
	}
	return actor, true
}

// --- Handlers ---

// CreateMatch godoc
// @Summary      Plan a match
// @Description  Creates a planned match with candidate dates and notifies every approved member.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        team_id  path  int                 true  "Team ID"
// @Param        match    body  CreateMatchRequest  true  "Match data"
// @Success      201  {object}  responses.SuccessResponse{data=Match}
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /teams/{team_id}/matches [post]
func (mc *MatchController) CreateMatch(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	teamID, err := strconv.ParseUint(c.Param("team_id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid team id")
		return
	}
	info, err := mc.repo.GetTeamInfo(uint(teamID))
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if info == nil || !mc.gate.IsCaptainOrAdmin(actor, info.CaptainID) {
		responses.NotAllowed(c)
		return
	}

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	dates, err := parseProposedDates(req.ProposedDates)
	if err != nil {
		responses.BadRequest(c, err.Error())
		return
	}

	m := &Match{
		TeamID:   info.ID,
		Opponent: strings.TrimSpace(req.Opponent),
		Location: strings.TrimSpace(req.Location),
		Status:   StatusPlanned,
	}
	if err := mc.repo.CreateMatchWithDates(m, dates); err != nil {
		responses.InternalServerError(c, "Match creation failed")
		return
	}

	if contacts, err := mc.repo.GetApprovedMemberContacts(info.ID); err == nil {
		for _, contact := range contacts {
			mc.notifier.Notify(contact.Email, "New match planned",
				fmt.Sprintf("Hello %s,\n\nA new match against %s has been planned for %s. Please enter your availability.\n\n— Interclub Organizer",
					contact.FirstName, m.Opponent, info.Name))
		}
	}

	responses.SendSuccess(c, http.StatusCreated, "Match created, availability can now be entered", m)
}

// GetMatch godoc
// @Summary      Match detail
// @Description  Candidate dates, the caller's availability, lineup and task state, and the discussion thread. Captains additionally see per-date availability summaries while the match is planned.
// @Tags         Matches
// @Produce      json
// @Param        match_id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse{data=DetailView}
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id} [get]
func (mc *MatchController) GetMatch(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, info, ok := mc.loadMatchForMember(c, actor)
	if !ok {
		return
	}
	isCaptain := mc.gate.IsCaptainOrAdmin(actor, info.CaptainID)

	dates, err := mc.repo.GetMatchDates(m.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	myDateIDs, err := mc.repo.GetUserAvailability(m.ID, actor.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	options := make([]DateOption, 0, len(dates))
	var byDate map[uint][]string
	if isCaptain && m.Status == StatusPlanned {
		byDate, err = mc.repo.GetAvailabilityByDate(m.ID)
		if err != nil {
			responses.InternalServerError(c, "")
			return
		}
	}
	for _, d := range dates {
		opt := DateOption{ID: d.ID, ProposedAt: d.ProposedAt}
		if byDate != nil {
			names := byDate[d.ID]
			count := len(names)
			opt.Count = &count
			opt.Names = names
		}
		options = append(options, opt)
	}

	members, err := mc.repo.GetApprovedMembers(info.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	lineup, err := mc.repo.GetLineup(m.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	inLineup, lineupConfirmed := false, false
	for _, entry := range lineup {
		if entry.UserID == actor.ID {
			inLineup = true
			lineupConfirmed = entry.Confirmed
		}
	}
	if !isCaptain {
		// Players only see their own invitation state, not the whole roster.
		lineup = nil
	}

	assignments, err := mc.repo.GetTaskAssignments(m.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	messages, err := mc.repo.GetRecentMessages(m.ID, messageHistoryLimit)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "", DetailView{
		Match:           m,
		TeamName:        info.Name,
		IsCaptain:       isCaptain,
		DateOptions:     options,
		MyDateIDs:       myDateIDs,
		Members:         members,
		Lineup:          lineup,
		InLineup:        inLineup,
		LineupConfirmed: lineupConfirmed,
		Tasks:           Tasks,
		TaskAssignments: assignments,
		Messages:        messages,
	})
}

// SubmitAvailability godoc
// @Summary      Submit availability
// @Description  Replaces the caller's availability for the match with the given date ids. An empty selection clears it.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id      path  int                  true  "Match ID"
// @Param        availability  body  AvailabilityRequest  true  "Selected date ids"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse "Date id not belonging to this match"
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/availability [put]
func (mc *MatchController) SubmitAvailability(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForMember(c, actor)
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := mc.repo.ReplaceAvailability(m.ID, actor.ID, req.DateIDs); err != nil {
		if errors.Is(err, ErrUnknownDate) {
			responses.BadRequest(c, "Selected date does not belong to this match")
			return
		}
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Availability saved", nil)
}

// ConfirmDate godoc
// @Summary      Confirm the match date
// @Description  Fixes the final date from one of the candidates. Other candidates and their availability remain as history.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int                 true  "Match ID"
// @Param        date      body  ConfirmDateRequest  true  "Chosen date id"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/confirm-date [post]
func (mc *MatchController) ConfirmDate(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForCaptain(c, actor)
	if !ok {
		return
	}

	var req ConfirmDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := mc.repo.ConfirmDate(m.ID, req.DateID); err != nil {
		if errors.Is(err, ErrUnknownDate) {
			responses.BadRequest(c, "Invalid date for this match")
			return
		}
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Date confirmed, time for lineup and logistics", nil)
}

// EditMatch godoc
// @Summary      Edit or reschedule a match
// @Description  Updates opponent and location. Passing new proposed dates is a full reschedule: all availability is discarded and the match reverts to planned.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int               true  "Match ID"
// @Param        match     body  EditMatchRequest  true  "New match data"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id} [put]
func (mc *MatchController) EditMatch(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForCaptain(c, actor)
	if !ok {
		return
	}

	var req EditMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	dates, err := parseProposedDates(req.ProposedDates)
	if err != nil {
		responses.BadRequest(c, err.Error())
		return
	}

	if err := mc.repo.UpdateMatch(m, strings.TrimSpace(req.Opponent), strings.TrimSpace(req.Location), dates); err != nil {
		responses.InternalServerError(c, "Match update failed")
		return
	}
	if len(dates) > 0 {
		responses.SendSuccess(c, http.StatusOK, "Match rescheduled, availability entries were reset", nil)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Match updated", nil)
}

// DeleteMatch godoc
// @Summary      Delete a match
// @Description  Removes the match and every dependent row.
// @Tags         Matches
// @Produce      json
// @Param        match_id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id} [delete]
func (mc *MatchController) DeleteMatch(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForCaptain(c, actor)
	if !ok {
		return
	}

	if err := mc.repo.DeleteMatchCascade(m.ID); err != nil {
		responses.InternalServerError(c, "Match deletion failed")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Match deleted", nil)
}

// SetLineup godoc
// @Summary      Set the lineup
// @Description  Replaces the lineup with unconfirmed entries; each invited player confirms individually. Players must be approved team members.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int            true  "Match ID"
// @Param        lineup    body  LineupRequest  true  "Player ids"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/lineup [put]
func (mc *MatchController) SetLineup(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, info, ok := mc.loadMatchForCaptain(c, actor)
	if !ok {
		return
	}

	var req LineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	memberIDs, err := mc.repo.GetApprovedMemberIDs(info.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	approved := make(map[uint]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		approved[id] = struct{}{}
	}
	for _, id := range req.PlayerIDs {
		if _, ok := approved[id]; !ok {
			responses.BadRequest(c, "Lineup may only contain approved team members")
			return
		}
	}

	if err := mc.repo.ReplaceLineup(m.ID, req.PlayerIDs); err != nil {
		responses.InternalServerError(c, "Lineup update failed")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Lineup saved, players confirm individually", nil)
}

// RespondLineup godoc
// @Summary      Accept or decline a lineup spot
// @Description  Accept confirms the entry; decline removes it from the roster.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int                    true  "Match ID"
// @Param        response  body  LineupResponseRequest  true  "accept or decline"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      403  {object}  responses.ErrorResponse "Caller is not in the lineup"
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/lineup/respond [post]
func (mc *MatchController) RespondLineup(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	matchID, err := matchIDParam(c)
	if err != nil {
		responses.BadRequest(c, "Invalid match id")
		return
	}

	var req LineupResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	// Only invited players may respond; a missing entry is treated exactly
	// like a forbidden one.
	entry, err := mc.repo.GetLineupEntry(matchID, actor.ID)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	if entry == nil {
		responses.NotAllowed(c)
		return
	}

	if req.Response == ResponseAccept {
		if err := mc.repo.ConfirmLineupEntry(matchID, actor.ID); err != nil {
			responses.InternalServerError(c, "")
			return
		}
		responses.SendSuccess(c, http.StatusOK, "Participation confirmed", nil)
		return
	}
	if err := mc.repo.DeleteLineupEntry(matchID, actor.ID); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Declined, the captain will see it", nil)
}

// ClaimTask godoc
// @Summary      Claim a logistics task
// @Description  First come, first served; a claimed task never moves except by match deletion.
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int               true  "Match ID"
// @Param        task      body  ClaimTaskRequest  true  "Task name"
// @Success      201  {object}  responses.SuccessResponse
// @Failure      409  {object}  responses.ErrorResponse "Task already claimed"
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/tasks [post]
func (mc *MatchController) ClaimTask(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForMember(c, actor)
	if !ok {
		return
	}

	var req ClaimTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if !IsKnownTask(req.Task) {
		responses.BadRequest(c, "Unknown task")
		return
	}

	if err := mc.repo.ClaimTask(m.ID, req.Task, actor.ID); err != nil {
		if errors.Is(err, ErrTaskClaimed) {
			responses.Conflict(c, "Task is already claimed")
			return
		}
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, fmt.Sprintf("You take over: %s", req.Task), nil)
}

// PostMessage godoc
// @Summary      Post a message to the match thread
// @Tags         Matches
// @Accept       json
// @Produce      json
// @Param        match_id  path  int             true  "Match ID"
// @Param        message   body  MessageRequest  true  "Message content"
// @Success      201  {object}  responses.SuccessResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/messages [post]
func (mc *MatchController) PostMessage(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForMember(c, actor)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		responses.BadRequest(c, "Message is empty")
		return
	}

	msg := &MatchMessage{MatchID: m.ID, UserID: actor.ID, Content: content}
	if err := mc.repo.CreateMessage(msg); err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Message posted", msg)
}

// GetMessages godoc
// @Summary      Match discussion thread
// @Description  The latest 50 messages in chronological order.
// @Tags         Matches
// @Produce      json
// @Param        match_id  path  int  true  "Match ID"
// @Success      200  {object}  responses.SuccessResponse{data=[]MessageRow}
// @Failure      403  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /matches/{match_id}/messages [get]
func (mc *MatchController) GetMessages(c *gin.Context) {
	actor, ok := getActorOrAbort(c)
	if !ok {
		return
	}
	m, _, ok := mc.loadMatchForMember(c, actor)
	if !ok {
		return
	}

	messages, err := mc.repo.GetRecentMessages(m.ID, messageHistoryLimit)
	if err != nil {
		responses.InternalServerError(c, "")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", messages)
}
