package team

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrMembershipExists signals that a join request or membership for the
// (user, team) pair is already present, whatever its approval state.
var ErrMembershipExists = errors.New("membership or join request already exists")

// MemberRow is a roster or request entry joined with the users table.
type MemberRow struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DirectoryRow is one club team as seen by a specific user.
type DirectoryRow struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CaptainName string `json:"captain_name"`
	IsCaptain   bool   `json:"is_captain"`
	IsMyTeam    bool   `json:"is_my_team"`
	IsPending   bool   `json:"is_pending"`
}

// TeamMatchRow is a match summary for the team management view.
type TeamMatchRow struct {
	ID        uint       `json:"id"`
	Opponent  string     `json:"opponent"`
	Status    string     `json:"status"`
	FinalDate *time.Time `json:"final_date,omitempty"`
}

// MyTeamRow is one of the caller's teams on the dashboard.
type MyTeamRow struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Approved  bool   `json:"approved"`
	IsCaptain bool   `json:"is_captain"`
}

// UpcomingMatchRow is a dashboard match summary across the caller's teams.
type UpcomingMatchRow struct {
	ID        uint       `json:"id"`
	Opponent  string     `json:"opponent"`
	Status    string     `json:"status"`
	FinalDate *time.Time `json:"final_date,omitempty"`
	TeamName  string     `json:"team_name"`
}

// Contact is the minimal user info needed to address a notification.
type Contact struct {
	Email     string
	FirstName string
}

// TeamRepository defines the data operations of the membership workflow.
type TeamRepository interface {
	CreateTeamWithCaptain(t *Team) error
	GetTeamByID(id uint) (*Team, error)
	GetClubDirectory(clubID, viewerID uint) ([]DirectoryRow, error)

	GetMembership(teamID, userID uint) (*TeamMembership, error)
	CreateJoinRequest(teamID, userID uint) error
	ApproveMembership(teamID, userID uint) error
	DenyMembership(teamID, userID uint) error
	GetApprovedMembers(teamID uint) ([]MemberRow, error)
	GetPendingRequests(teamID uint) ([]MemberRow, error)

	GetTeamMatches(teamID uint) ([]TeamMatchRow, error)
	GetUserContact(userID uint) (*Contact, error)

	GetClubName(clubID uint) (string, error)
	GetUserTeams(userID uint) ([]MyTeamRow, error)
	GetUpcomingMatches(userID uint, limit int) ([]UpcomingMatchRow, error)

	DeleteTeamCascade(teamID uint) error
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// CreateTeamWithCaptain creates the team, the captain's approved membership
// and the role promotion in one transaction: either all three land or none.
func (r *teamRepository) CreateTeamWithCaptain(t *Team) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		now := time.Now()
		membership := &TeamMembership{
			TeamID:     t.ID,
			UserID:     t.CaptainID,
			Approved:   true,
			ApprovedAt: &now,
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		// First team creation promotes a player to captain. Captains and
		// club admins keep their role.
		return tx.Table("users").
			Where("id = ? AND role = ?", t.CaptainID, "player").
			Update("role", "captain").Error
	})
}

func (r *teamRepository) GetTeamByID(id uint) (*Team, error) {
	var t Team
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) GetClubDirectory(clubID, viewerID uint) ([]DirectoryRow, error) {
	type teamRow struct {
		ID          uint
		Name        string
		CaptainID   uint
		CaptainName string
	}
	var rows []teamRow
	err := r.db.Table("teams").
		Select("teams.id, teams.name, teams.captain_id, users.first_name || ' ' || users.last_name AS captain_name").
		Joins("JOIN users ON users.id = teams.captain_id").
		Where("teams.club_id = ? AND teams.deleted_at IS NULL", clubID).
		Order("teams.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var memberships []TeamMembership
	if err := r.db.Where("user_id = ?", viewerID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	memByTeam := make(map[uint]TeamMembership, len(memberships))
	for _, m := range memberships {
		memByTeam[m.TeamID] = m
	}

	directory := make([]DirectoryRow, 0, len(rows))
	for _, row := range rows {
		m, hasMembership := memByTeam[row.ID]
		directory = append(directory, DirectoryRow{
			ID:          row.ID,
			Name:        row.Name,
			CaptainName: row.CaptainName,
			IsCaptain:   row.CaptainID == viewerID,
			IsMyTeam:    hasMembership && m.Approved,
			IsPending:   hasMembership && !m.Approved,
		})
	}
	return directory, nil
}

func (r *teamRepository) GetMembership(teamID, userID uint) (*TeamMembership, error) {
	var m TeamMembership
	err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *teamRepository) CreateJoinRequest(teamID, userID uint) error {
	existing, err := r.GetMembership(teamID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrMembershipExists
	}
	// The pre-check can miss a row a concurrent request just inserted; the
	// (team_id, user_id) unique index is the backstop.
	err = r.db.Create(&TeamMembership{TeamID: teamID, UserID: userID, Approved: false}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrMembershipExists
	}
	return err
}

func (r *teamRepository) ApproveMembership(teamID, userID uint) error {
	now := time.Now()
	res := r.db.Model(&TeamMembership{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Updates(map[string]interface{}{"approved": true, "approved_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DenyMembership removes the row outright. A denied request leaves no trace
// and the user may request again later, so the delete is unscoped.
func (r *teamRepository) DenyMembership(teamID, userID uint) error {
	res := r.db.Unscoped().
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&TeamMembership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *teamRepository) GetApprovedMembers(teamID uint) ([]MemberRow, error) {
	var members []MemberRow
	err := r.db.Table("team_memberships").
		Select("users.id, users.first_name, users.last_name, users.email").
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND team_memberships.approved = ? AND team_memberships.deleted_at IS NULL", teamID, true).
		Order("users.last_name").
		Scan(&members).Error
	return members, err
}

// GetPendingRequests lists open join requests oldest first, so captains work
// through them in arrival order.
func (r *teamRepository) GetPendingRequests(teamID uint) ([]MemberRow, error) {
	var requests []MemberRow
	err := r.db.Table("team_memberships").
		Select("users.id, users.first_name, users.last_name, users.email").
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND team_memberships.approved = ? AND team_memberships.deleted_at IS NULL", teamID, false).
		Order("team_memberships.created_at").
		Scan(&requests).Error
	return requests, err
}

func (r *teamRepository) GetTeamMatches(teamID uint) ([]TeamMatchRow, error) {
	var matches []TeamMatchRow
	err := r.db.Table("matches").
		Select("id, opponent, status, final_date").
		Where("team_id = ? AND deleted_at IS NULL", teamID).
		Order("created_at DESC").
		Scan(&matches).Error
	return matches, err
}

func (r *teamRepository) GetUserContact(userID uint) (*Contact, error) {
	var contact Contact
	err := r.db.Table("users").
		Select("email, first_name").
		Where("id = ?", userID).
		Scan(&contact).Error
	if err != nil {
		return nil, err
	}
	if contact.Email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &contact, nil
}

func (r *teamRepository) GetClubName(clubID uint) (string, error) {
	var name string
	err := r.db.Table("clubs").Select("name").Where("id = ?", clubID).Scan(&name).Error
	return name, err
}

func (r *teamRepository) GetUserTeams(userID uint) ([]MyTeamRow, error) {
	var rows []MyTeamRow
	err := r.db.Table("team_memberships").
		Select("teams.id, teams.name, team_memberships.approved, teams.captain_id = ? AS is_captain", userID).
		Joins("JOIN teams ON teams.id = team_memberships.team_id").
		Where("team_memberships.user_id = ? AND team_memberships.deleted_at IS NULL AND teams.deleted_at IS NULL", userID).
		Order("teams.name").
		Scan(&rows).Error
	return rows, err
}

// GetUpcomingMatches lists matches across the caller's approved teams,
// confirmed dates first, newest plans after.
func (r *teamRepository) GetUpcomingMatches(userID uint, limit int) ([]UpcomingMatchRow, error) {
	var rows []UpcomingMatchRow
	err := r.db.Table("matches").
		Select("matches.id, matches.opponent, matches.status, matches.final_date, teams.name AS team_name").
		Joins("JOIN teams ON teams.id = matches.team_id").
		Joins("JOIN team_memberships ON team_memberships.team_id = teams.id AND team_memberships.user_id = ? AND team_memberships.approved = ?", userID, true).
		Where("matches.deleted_at IS NULL AND team_memberships.deleted_at IS NULL").
		Order("(matches.final_date IS NULL), matches.final_date, matches.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DeleteTeamCascade removes the team, its memberships and every owned match
// with all dependent rows, in dependency order inside one transaction. A
// partial cascade must never be observable.
func (r *teamRepository) DeleteTeamCascade(teamID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM match_messages WHERE match_id IN (SELECT id FROM matches WHERE team_id = ?)",
			"DELETE FROM match_tasks WHERE match_id IN (SELECT id FROM matches WHERE team_id = ?)",
			"DELETE FROM lineup_entries WHERE match_id IN (SELECT id FROM matches WHERE team_id = ?)",
			"DELETE FROM availabilities WHERE match_date_id IN (SELECT id FROM match_dates WHERE match_id IN (SELECT id FROM matches WHERE team_id = ?))",
			"DELETE FROM match_dates WHERE match_id IN (SELECT id FROM matches WHERE team_id = ?)",
			"DELETE FROM matches WHERE team_id = ?",
			"DELETE FROM team_memberships WHERE team_id = ?",
		} {
			if err := tx.Exec(stmt, teamID).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&Team{}, teamID).Error
	})
}
