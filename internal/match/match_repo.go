package match

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUnknownDate means a date id does not belong to the target match.
	ErrUnknownDate = errors.New("date does not belong to this match")
	// ErrTaskClaimed means another member already holds the task.
	ErrTaskClaimed = errors.New("task is already claimed")
)

// TeamInfo is the slice of the owning team the scheduler needs for
// authorization and notifications.
type TeamInfo struct {
	ID        uint
	Name      string
	CaptainID uint
	ClubID    uint
}

// Contact addresses one notification recipient.
type Contact struct {
	Email     string
	FirstName string
}

// PlayerRow is an approved team member in the match detail view.
type PlayerRow struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LineupRow is one lineup entry joined with the player's name.
type LineupRow struct {
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Confirmed bool   `json:"confirmed"`
}

// TaskRow is one claimed task with the claimant's name.
type TaskRow struct {
	Task      string `json:"task"`
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// MessageRow is one discussion entry with its author's name.
type MessageRow struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// availabilityNameRow feeds the captain's per-date summaries.
type availabilityNameRow struct {
	DateID    uint
	FirstName string
	LastName  string
}

// MatchRepository defines the data operations of the match scheduler,
// lineup workflow, task registry and discussion log.
type MatchRepository interface {
	CreateMatchWithDates(m *Match, dates []time.Time) error
	GetMatchByID(id uint) (*Match, error)
	GetTeamInfo(teamID uint) (*TeamInfo, error)

	GetMatchDates(matchID uint) ([]MatchDate, error)
	ConfirmDate(matchID, dateID uint) error
	UpdateMatch(m *Match, opponent, location string, newDates []time.Time) error

	ReplaceAvailability(matchID, userID uint, dateIDs []uint) error
	GetUserAvailability(matchID, userID uint) ([]uint, error)
	GetAvailabilityByDate(matchID uint) (map[uint][]string, error)

	ReplaceLineup(matchID uint, playerIDs []uint) error
	GetLineup(matchID uint) ([]LineupRow, error)
	GetLineupEntry(matchID, userID uint) (*LineupEntry, error)
	ConfirmLineupEntry(matchID, userID uint) error
	DeleteLineupEntry(matchID, userID uint) error

	ClaimTask(matchID uint, task string, userID uint) error
	GetTaskAssignments(matchID uint) ([]TaskRow, error)

	CreateMessage(msg *MatchMessage) error
	GetRecentMessages(matchID uint, limit int) ([]MessageRow, error)

	GetApprovedMemberIDs(teamID uint) ([]uint, error)
	GetApprovedMemberContacts(teamID uint) ([]Contact, error)
	GetApprovedMembers(teamID uint) ([]PlayerRow, error)

	DeleteMatchCascade(matchID uint) error
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateMatchWithDates(m *Match, dates []time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		for _, d := range dates {
			if err := tx.Create(&MatchDate{MatchID: m.ID, ProposedAt: d}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *matchRepository) GetMatchByID(id uint) (*Match, error) {
	var m Match
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) GetTeamInfo(teamID uint) (*TeamInfo, error) {
	var info TeamInfo
	err := r.db.Table("teams").
		Select("id, name, captain_id, club_id").
		Where("id = ? AND deleted_at IS NULL", teamID).
		Scan(&info).Error
	if err != nil {
		return nil, err
	}
	if info.ID == 0 {
		return nil, nil
	}
	return &info, nil
}

func (r *matchRepository) GetMatchDates(matchID uint) ([]MatchDate, error) {
	var dates []MatchDate
	err := r.db.Where("match_id = ?", matchID).Order("proposed_at").Find(&dates).Error
	return dates, err
}

// replaceSet clears every row of T matching the scope and inserts the new
// set. All replace-on-write operations (availability, lineup, match dates)
// funnel through here; callers must hold a transaction so readers never see
// a torn state. The delete is unscoped so composite unique indexes stay
// reusable.
func replaceSet[T any](tx *gorm.DB, query string, args []interface{}, rows []T) error {
	if err := tx.Unscoped().Where(query, args...).Delete(new(T)).Error; err != nil {
		return err
	}
	for i := range rows {
		if err := tx.Create(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// validDateIDs returns the set of date ids currently proposed for the match.
func (r *matchRepository) validDateIDs(tx *gorm.DB, matchID uint) (map[uint]struct{}, error) {
	var ids []uint
	if err := tx.Model(&MatchDate{}).Where("match_id = ?", matchID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ConfirmDate moves the match to confirmed with the chosen date as final.
// The other candidates and their availability stay around as history.
func (r *matchRepository) ConfirmDate(matchID, dateID uint) error {
	var d MatchDate
	err := r.db.Where("id = ? AND match_id = ?", dateID, matchID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownDate
		}
		return err
	}
	return r.db.Model(&Match{}).Where("id = ?", matchID).
		Updates(map[string]interface{}{"status": StatusConfirmed, "final_date": d.ProposedAt}).Error
}

// UpdateMatch always updates opponent and location. A non-empty date set is
// a full reschedule: availability and old candidates are wiped, the new set
// is inserted and the match drops back to planned with no final date, even
// if it was confirmed. Stale availability against discarded dates must never
// survive.
func (r *matchRepository) UpdateMatch(m *Match, opponent, location string, newDates []time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"opponent": opponent, "location": location}
		if len(newDates) > 0 {
			if err := tx.Unscoped().
				Where("match_date_id IN (SELECT id FROM match_dates WHERE match_id = ?)", m.ID).
				Delete(&Availability{}).Error; err != nil {
				return err
			}
			dates := make([]MatchDate, 0, len(newDates))
			for _, d := range newDates {
				dates = append(dates, MatchDate{MatchID: m.ID, ProposedAt: d})
			}
			if err := replaceSet(tx, "match_id = ?", []interface{}{m.ID}, dates); err != nil {
				return err
			}
			updates["status"] = StatusPlanned
			updates["final_date"] = nil
		}
		return tx.Model(&Match{}).Where("id = ?", m.ID).Updates(updates).Error
	})
}

// ReplaceAvailability is replace-on-write: the user's rows for this match
// are deleted and the new selection inserted, atomically. An empty selection
// clears availability entirely. Repeated ids in the selection collapse to
// one row.
func (r *matchRepository) ReplaceAvailability(matchID, userID uint, dateIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		valid, err := r.validDateIDs(tx, matchID)
		if err != nil {
			return err
		}
		seen := make(map[uint]struct{}, len(dateIDs))
		rows := make([]Availability, 0, len(dateIDs))
		for _, id := range dateIDs {
			if _, ok := valid[id]; !ok {
				return ErrUnknownDate
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, Availability{MatchDateID: id, UserID: userID})
		}
		return replaceSet(tx,
			"user_id = ? AND match_date_id IN (SELECT id FROM match_dates WHERE match_id = ?)",
			[]interface{}{userID, matchID}, rows)
	})
}

func (r *matchRepository) GetUserAvailability(matchID, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("availabilities").
		Select("availabilities.match_date_id").
		Joins("JOIN match_dates ON match_dates.id = availabilities.match_date_id").
		Where("match_dates.match_id = ? AND availabilities.user_id = ? AND availabilities.deleted_at IS NULL", matchID, userID).
		Pluck("availabilities.match_date_id", &ids).Error
	return ids, err
}

// GetAvailabilityByDate returns, per candidate date, the names of members
// who marked themselves available. Feeds the captain's summary.
func (r *matchRepository) GetAvailabilityByDate(matchID uint) (map[uint][]string, error) {
	var rows []availabilityNameRow
	err := r.db.Table("availabilities").
		Select("match_dates.id AS date_id, users.first_name, users.last_name").
		Joins("JOIN match_dates ON match_dates.id = availabilities.match_date_id").
		Joins("JOIN users ON users.id = availabilities.user_id").
		Where("match_dates.match_id = ? AND availabilities.deleted_at IS NULL", matchID).
		Order("users.last_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byDate := make(map[uint][]string)
	for _, row := range rows {
		byDate[row.DateID] = append(byDate[row.DateID], row.FirstName+" "+row.LastName)
	}
	return byDate, nil
}

// ReplaceLineup replaces the entire lineup with unconfirmed entries. A
// player listed twice gets one entry.
func (r *matchRepository) ReplaceLineup(matchID uint, playerIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		seen := make(map[uint]struct{}, len(playerIDs))
		entries := make([]LineupEntry, 0, len(playerIDs))
		for _, id := range playerIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			entries = append(entries, LineupEntry{MatchID: matchID, UserID: id, Confirmed: false})
		}
		return replaceSet(tx, "match_id = ?", []interface{}{matchID}, entries)
	})
}

func (r *matchRepository) GetLineup(matchID uint) ([]LineupRow, error) {
	var rows []LineupRow
	err := r.db.Table("lineup_entries").
		Select("lineup_entries.user_id, users.first_name, users.last_name, lineup_entries.confirmed").
		Joins("JOIN users ON users.id = lineup_entries.user_id").
		Where("lineup_entries.match_id = ? AND lineup_entries.deleted_at IS NULL", matchID).
		Order("users.last_name").
		Scan(&rows).Error
	return rows, err
}

func (r *matchRepository) GetLineupEntry(matchID, userID uint) (*LineupEntry, error) {
	var e LineupEntry
	err := r.db.Where("match_id = ? AND user_id = ?", matchID, userID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *matchRepository) ConfirmLineupEntry(matchID, userID uint) error {
	return r.db.Model(&LineupEntry{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Update("confirmed", true).Error
}

// DeleteLineupEntry removes a declined invitation outright; no declined
// record is retained.
func (r *matchRepository) DeleteLineupEntry(matchID, userID uint) error {
	return r.db.Unscoped().
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Delete(&LineupEntry{}).Error
}

// ClaimTask is a single conditional insert backed by the (match, task)
// unique index. Two concurrent claimants can never both win: the loser's
// insert affects zero rows and reports ErrTaskClaimed.
func (r *matchRepository) ClaimTask(matchID uint, task string, userID uint) error {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}, {Name: "task"}},
		DoNothing: true,
	}).Create(&MatchTask{MatchID: matchID, Task: task, UserID: userID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskClaimed
	}
	return nil
}

func (r *matchRepository) GetTaskAssignments(matchID uint) ([]TaskRow, error) {
	var rows []TaskRow
	err := r.db.Table("match_tasks").
		Select("match_tasks.task, match_tasks.user_id, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = match_tasks.user_id").
		Where("match_tasks.match_id = ? AND match_tasks.deleted_at IS NULL", matchID).
		Scan(&rows).Error
	return rows, err
}

func (r *matchRepository) CreateMessage(msg *MatchMessage) error {
	return r.db.Create(msg).Error
}

// GetRecentMessages returns the latest messages in chronological order.
func (r *matchRepository) GetRecentMessages(matchID uint, limit int) ([]MessageRow, error) {
	var rows []MessageRow
	err := r.db.Table("match_messages").
		Select("match_messages.id, match_messages.user_id, users.first_name, users.last_name, match_messages.content, match_messages.created_at").
		Joins("JOIN users ON users.id = match_messages.user_id").
		Where("match_messages.match_id = ? AND match_messages.deleted_at IS NULL", matchID).
		Order("match_messages.created_at DESC, match_messages.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *matchRepository) GetApprovedMemberIDs(teamID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("team_memberships").
		Where("team_id = ? AND approved = ? AND deleted_at IS NULL", teamID, true).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *matchRepository) GetApprovedMemberContacts(teamID uint) ([]Contact, error) {
	var contacts []Contact
	err := r.db.Table("team_memberships").
		Select("users.email, users.first_name").
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND team_memberships.approved = ? AND team_memberships.deleted_at IS NULL", teamID, true).
		Scan(&contacts).Error
	return contacts, err
}

func (r *matchRepository) GetApprovedMembers(teamID uint) ([]PlayerRow, error) {
	var members []PlayerRow
	err := r.db.Table("team_memberships").
		Select("users.id, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND team_memberships.approved = ? AND team_memberships.deleted_at IS NULL", teamID, true).
		Order("users.last_name").
		Scan(&members).Error
	return members, err
}

// DeleteMatchCascade removes the match and every dependent row in
// dependency order inside one transaction.
func (r *matchRepository) DeleteMatchCascade(matchID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM match_messages WHERE match_id = ?",
			"DELETE FROM match_tasks WHERE match_id = ?",
			"DELETE FROM lineup_entries WHERE match_id = ?",
			"DELETE FROM availabilities WHERE match_date_id IN (SELECT id FROM match_dates WHERE match_id = ?)",
			"DELETE FROM match_dates WHERE match_id = ?",
		} {
			if err := tx.Exec(stmt, matchID).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&Match{}, matchID).Error
	})
}
