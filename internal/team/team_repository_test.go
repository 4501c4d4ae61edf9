package team_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/interclub/organizer/internal/match"
	"github.com/interclub/organizer/internal/team"
	"github.com/interclub/organizer/internal/testutil"
	"github.com/interclub/organizer/internal/user"
)

func TestCreateTeamWithCaptain(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	founder := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	repo := team.NewTeamRepository(db)

	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: founder.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	// The founder is an approved member from the start.
	membership, err := repo.GetMembership(tm.ID, founder.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.True(t, membership.Approved)
	assert.NotNil(t, membership.ApprovedAt)

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, founder.ID).Error)
	assert.Equal(t, user.RoleCaptain, reloaded.Role, "founding a team promotes a player")

	// Founding a second team changes nothing further.
	second := &team.Team{ClubID: c.ID, Name: "Second Team", CaptainID: founder.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(second))
	require.NoError(t, db.First(&reloaded, founder.ID).Error)
	assert.Equal(t, user.RoleCaptain, reloaded.Role)
}

func TestCreateTeamKeepsAdminRole(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	admin := testutil.CreateUser(t, db, "Ada", "Boss", "ada@example.com", "12002", c.ID, user.RoleClubAdmin)
	repo := team.NewTeamRepository(db)

	tm := &team.Team{ClubID: c.ID, Name: "Second Team", CaptainID: admin.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, admin.ID).Error)
	assert.Equal(t, user.RoleClubAdmin, reloaded.Role, "promotion only applies to plain players")
}

func TestJoinRequestLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	joiner := testutil.CreateUser(t, db, "Tom", "Kranz", "tom@example.com", "12003", c.ID, user.RolePlayer)
	repo := team.NewTeamRepository(db)

	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	require.NoError(t, repo.CreateJoinRequest(tm.ID, joiner.ID))
	assert.ErrorIs(t, repo.CreateJoinRequest(tm.ID, joiner.ID), team.ErrMembershipExists,
		"a second request while one is open must bounce")

	pending, err := repo.GetPendingRequests(tm.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, joiner.ID, pending[0].ID)

	require.NoError(t, repo.ApproveMembership(tm.ID, joiner.ID))
	membership, err := repo.GetMembership(tm.ID, joiner.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.True(t, membership.Approved)
	assert.NotNil(t, membership.ApprovedAt)

	members, err := repo.GetApprovedMembers(tm.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestDenyAllowsRequestingAgain(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	joiner := testutil.CreateUser(t, db, "Tom", "Kranz", "tom@example.com", "12003", c.ID, user.RolePlayer)
	repo := team.NewTeamRepository(db)

	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	require.NoError(t, repo.CreateJoinRequest(tm.ID, joiner.ID))
	require.NoError(t, repo.DenyMembership(tm.ID, joiner.ID))

	membership, err := repo.GetMembership(tm.ID, joiner.ID)
	require.NoError(t, err)
	assert.Nil(t, membership, "a denied request leaves no trace")

	require.NoError(t, repo.CreateJoinRequest(tm.ID, joiner.ID))
}

func TestJoinRequestUniqueIndexBackstop(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	joiner := testutil.CreateUser(t, db, "Tom", "Kranz", "tom@example.com", "12003", c.ID, user.RolePlayer)
	repo := team.NewTeamRepository(db)

	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))
	require.NoError(t, repo.CreateJoinRequest(tm.ID, joiner.ID))

	// Soft-delete the row: the existence check no longer sees it, but the
	// unique index still holds it. That is the same window a concurrent
	// request slipping in between check and insert would hit, and it must
	// surface as the duplicate-request error, not a raw constraint failure.
	require.NoError(t, db.Delete(&team.TeamMembership{}, "team_id = ? AND user_id = ?", tm.ID, joiner.ID).Error)

	assert.ErrorIs(t, repo.CreateJoinRequest(tm.ID, joiner.ID), team.ErrMembershipExists)
}

func TestDecideOnMissingRequest(t *testing.T) {
	db := testutil.NewDB(t)
	repo := team.NewTeamRepository(db)

	assert.ErrorIs(t, repo.ApproveMembership(1, 99), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DenyMembership(1, 99), gorm.ErrRecordNotFound)
}

func TestDeleteTeamCascade(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	other := testutil.CreateUser(t, db, "Tom", "Kranz", "tom@example.com", "12003", c.ID, user.RolePlayer)
	repo := team.NewTeamRepository(db)

	doomed := &team.Team{ClubID: c.ID, Name: "Doomed", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(doomed))
	survivor := &team.Team{ClubID: c.ID, Name: "Survivor", CaptainID: other.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(survivor))

	// Hang a full match graph off each team.
	matchRepo := match.NewMatchRepository(db)
	buildMatch := func(teamID uint) *match.Match {
		m := &match.Match{TeamID: teamID, Opponent: "TSV Gegner", Status: match.StatusPlanned}
		require.NoError(t, matchRepo.CreateMatchWithDates(m, []time.Time{
			time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 13, 10, 0, 0, 0, time.UTC),
		}))
		dates, err := matchRepo.GetMatchDates(m.ID)
		require.NoError(t, err)
		require.NoError(t, matchRepo.ReplaceAvailability(m.ID, captain.ID, []uint{dates[0].ID}))
		require.NoError(t, matchRepo.ReplaceLineup(m.ID, []uint{captain.ID}))
		require.NoError(t, matchRepo.ClaimTask(m.ID, "Balls", captain.ID))
		require.NoError(t, matchRepo.CreateMessage(&match.MatchMessage{MatchID: m.ID, UserID: captain.ID, Content: "who drives?"}))
		return m
	}
	doomedMatch := buildMatch(doomed.ID)
	survivorMatch := buildMatch(survivor.ID)

	require.NoError(t, repo.DeleteTeamCascade(doomed.ID))

	gone, err := repo.GetTeamByID(doomed.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	for table, want := range map[string]int64{
		"matches":          1,
		"match_dates":      2,
		"availabilities":   1,
		"lineup_entries":   1,
		"match_tasks":      1,
		"match_messages":   1,
		"team_memberships": 1,
	} {
		var count int64
		require.NoError(t, db.Table(table).Count(&count).Error)
		assert.Equalf(t, want, count, "only %s rows of the surviving team may remain", table)
	}

	m, err := matchRepo.GetMatchByID(doomedMatch.ID)
	require.NoError(t, err)
	assert.Nil(t, m)
	m, err = matchRepo.GetMatchByID(survivorMatch.ID)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
