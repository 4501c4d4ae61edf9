// match/match_model.go
package match

import (
	"time"

	"gorm.io/gorm"
)

// Status is the match lifecycle. There is no completed or cancelled state;
// a confirmed match stays confirmed unless it is rescheduled or deleted.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusConfirmed Status = "confirmed"
)

// Tasks is the fixed set of logistics tasks members can claim per match.
// Defined by the deployment, not by stored data.
var Tasks = []string{"Balls", "Drinks", "Transport"}

// IsKnownTask reports whether name belongs to the fixed task set.
func IsKnownTask(name string) bool {
	for _, t := range Tasks {
		if t == name {
			return true
		}
	}
	return false
}

// Match is owned by exactly one team. FinalDate is set iff the status is
// confirmed.
type Match struct {
	gorm.Model
	TeamID    uint       `json:"team_id" gorm:"index;not null"`
	Opponent  string     `json:"opponent" gorm:"not null"`
	Location  string     `json:"location"`
	Status    Status     `json:"status" gorm:"not null;default:'planned'"`
	FinalDate *time.Time `json:"final_date,omitempty"`
}

// MatchDate is one candidate date members vote on. The whole set is replaced
// on rescheduling; confirmed matches keep the losing candidates as history.
type MatchDate struct {
	gorm.Model
	MatchID    uint      `json:"match_id" gorm:"index;not null"`
	ProposedAt time.Time `json:"proposed_at" gorm:"not null"`
}

// Availability marks a user as available for one candidate date.
type Availability struct {
	gorm.Model
	MatchDateID uint `json:"match_date_id" gorm:"index;not null;uniqueIndex:idx_date_user_unique"`
	UserID      uint `json:"user_id" gorm:"index;not null;uniqueIndex:idx_date_user_unique"`
}

// LineupEntry is a captain-selected player awaiting or having given their
// own confirmation. Declining deletes the entry.
type LineupEntry struct {
	gorm.Model
	MatchID   uint `json:"match_id" gorm:"index;not null;uniqueIndex:idx_lineup_match_user_unique"`
	UserID    uint `json:"user_id" gorm:"index;not null;uniqueIndex:idx_lineup_match_user_unique"`
	Confirmed bool `json:"confirmed" gorm:"not null;default:false"`
}

// MatchTask is a claimed logistics task. First writer wins; the claim never
// moves except by match deletion.
type MatchTask struct {
	gorm.Model
	MatchID uint   `json:"match_id" gorm:"index;not null;uniqueIndex:idx_match_task_unique"`
	Task    string `json:"task" gorm:"not null;uniqueIndex:idx_match_task_unique"`
	UserID  uint   `json:"user_id" gorm:"index;not null"`
}

// MatchMessage is one entry of the append-only discussion thread.
type MatchMessage struct {
	gorm.Model
	MatchID uint   `json:"match_id" gorm:"index;not null"`
	UserID  uint   `json:"user_id" gorm:"index;not null"`
	Content string `json:"content" gorm:"type:text;not null"`
}
