package team_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/team"
	"github.com/interclub/organizer/internal/testutil"
	"github.com/interclub/organizer/internal/user"
	"github.com/interclub/organizer/pkg/mailer"
	"github.com/interclub/organizer/pkg/token"
)

const testSecret = "test-secret"

func newTeamServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.ExpiryMinutes = 15

	r := gin.New()
	api := r.Group("/api")
	team.TeamRoutes(api, db, cfg, mailer.New("", "", "", "", ""))
	return r, db
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, u *user.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		signed, err := token.GenerateJWT(u.ID, string(u.Role), u.ClubID, testSecret, 15)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTeamOverHTTP(t *testing.T) {
	r, db := newTeamServer(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	founder := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)

	w := doRequest(t, r, http.MethodPost, "/api/teams", founder, gin.H{"name": "First Team"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, founder.ID).Error)
	assert.Equal(t, user.RoleCaptain, reloaded.Role)

	w = doRequest(t, r, http.MethodPost, "/api/teams", founder, gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a blank name is rejected")
}

func TestJoinWorkflowOverHTTP(t *testing.T) {
	r, db := newTeamServer(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	joiner := testutil.CreateUser(t, db, "Tom", "Kranz", "tom@example.com", "12002", c.ID, user.RolePlayer)

	repo := team.NewTeamRepository(db)
	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	joinPath := fmt.Sprintf("/api/teams/%d/join", tm.ID)
	w := doRequest(t, r, http.MethodPost, joinPath, joiner, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodPost, joinPath, joiner, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "an open request blocks a second one")

	// Only the captain decides.
	decidePath := fmt.Sprintf("/api/teams/%d/requests/%d/approve", tm.ID, joiner.ID)
	w = doRequest(t, r, http.MethodPut, decidePath, joiner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodPut, decidePath, captain, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	membership, err := repo.GetMembership(tm.ID, joiner.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.True(t, membership.Approved)

	// Deciding the same request again hits nothing and looks like any
	// other miss.
	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/teams/%d/requests/%d/deny", tm.ID, 424242), captain, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/teams/%d/requests/%d/promote", tm.ID, joiner.ID), captain, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "only approve and deny exist")
}

func TestManageTeamOverHTTP(t *testing.T) {
	r, db := newTeamServer(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)
	outsider := testutil.CreateUser(t, db, "Eva", "Fremd", "eva@example.com", "12003", c.ID, user.RolePlayer)
	admin := testutil.CreateUser(t, db, "Ada", "Boss", "ada@example.com", "12004", c.ID, user.RoleClubAdmin)

	repo := team.NewTeamRepository(db)
	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	managePath := fmt.Sprintf("/api/teams/%d/manage", tm.ID)
	w := doRequest(t, r, http.MethodGet, managePath, outsider, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodGet, managePath, captain, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodGet, managePath, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, "club admins manage every team")

	// A made-up team id answers like a forbidden one.
	w = doRequest(t, r, http.MethodGet, "/api/teams/424242/manage", captain, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteTeamOverHTTP(t *testing.T) {
	r, db := newTeamServer(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)

	repo := team.NewTeamRepository(db)
	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/teams/%d", tm.ID), captain, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	gone, err := repo.GetTeamByID(tm.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDashboardOverHTTP(t *testing.T) {
	r, db := newTeamServer(t)
	c := testutil.CreateClub(t, db, "Blue Rackets")
	captain := testutil.CreateUser(t, db, "Mia", "Vogel", "mia@example.com", "12001", c.ID, user.RolePlayer)

	repo := team.NewTeamRepository(db)
	tm := &team.Team{ClubID: c.ID, Name: "First Team", CaptainID: captain.ID}
	require.NoError(t, repo.CreateTeamWithCaptain(tm))

	w := doRequest(t, r, http.MethodGet, "/api/dashboard", captain, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			ClubName string           `json:"club_name"`
			MyTeams  []team.MyTeamRow `json:"my_teams"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Blue Rackets", body.Data.ClubName)
	require.Len(t, body.Data.MyTeams, 1)
	assert.True(t, body.Data.MyTeams[0].IsCaptain)
}
