package match_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/interclub/organizer/config"
	"github.com/interclub/organizer/internal/match"
	"github.com/interclub/organizer/internal/testutil"
	"github.com/interclub/organizer/internal/user"
	"github.com/interclub/organizer/pkg/mailer"
	"github.com/interclub/organizer/pkg/token"
)

const testSecret = "test-secret"

type httpFixture struct {
	engine  *gin.Engine
	db      *gorm.DB
	fixture *fixture
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.ExpiryMinutes = 15

	r := gin.New()
	api := r.Group("/api")
	match.MatchRoutes(api, f.db, cfg, mailer.New("", "", "", "", ""))
	return &httpFixture{engine: r, db: f.db, fixture: f}
}

func (h *httpFixture) do(t *testing.T, method, path string, u *user.User, body any) *httptest.ResponseRecorder {
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
	h.engine.ServeHTTP(w, req)
	return w
}

func TestMatchEndpointsRequireMembership(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	stranger := testutil.CreateUser(t, h.db, "Eva", "Fremd", "eva@example.com", "99001", f.team.ClubID, user.RolePlayer)

	w := h.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d", f.match.ID), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "non-members are shut out")

	// A missing match answers exactly like a forbidden one.
	w = h.do(t, http.MethodGet, "/api/matches/424242", f.captain, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d", f.match.ID), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token, no entry")
}

func TestMatchMutationsRequireCaptain(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p := f.players[0]

	w := h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/confirm-date", f.match.ID), p,
		gin.H{"date_id": f.dates[0].ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/lineup", f.match.ID), p,
		gin.H{"player_ids": []uint{p.ID}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/matches/%d", f.match.ID), p, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateMatchOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture

	w := h.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/matches", f.team.ID), f.captain, gin.H{
		"opponent":       "SV Anders",
		"location":       "Halle 1",
		"proposed_dates": []string{"2026-10-03T14:00", "2026-10-04T10:00:00Z"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var count int64
	require.NoError(t, h.db.Model(&match.Match{}).Where("opponent = ?", "SV Anders").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Ordinary members cannot plan matches.
	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/matches", f.team.ID), f.players[0], gin.H{
		"opponent": "SV Anders",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A malformed date is an input error, not a crash.
	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/teams/%d/matches", f.team.ID), f.captain, gin.H{
		"opponent":       "SV Anders",
		"proposed_dates": []string{"next sunday"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityAndConfirmOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p := f.players[0]

	w := h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/availability", f.match.ID), p,
		gin.H{"date_ids": []uint{f.dates[1].ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/availability", f.match.ID), p,
		gin.H{"date_ids": []uint{424242}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/confirm-date", f.match.ID), f.captain,
		gin.H{"date_id": f.dates[1].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m, err := f.repo.GetMatchByID(f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, m.Status)
}

func TestLineupOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p1, p2 := f.players[0], f.players[1]
	stranger := testutil.CreateUser(t, h.db, "Eva", "Fremd", "eva@example.com", "99001", f.team.ClubID, user.RolePlayer)

	// Outsiders cannot be drafted.
	w := h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/lineup", f.match.ID), f.captain,
		gin.H{"player_ids": []uint{stranger.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/lineup", f.match.ID), f.captain,
		gin.H{"player_ids": []uint{p1.ID, p2.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/lineup/respond", f.match.ID), p1,
		gin.H{"response": "accept"})
	require.Equal(t, http.StatusOK, w.Code)
	entry, err := f.repo.GetLineupEntry(f.match.ID, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Confirmed)

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/lineup/respond", f.match.ID), p2,
		gin.H{"response": "decline"})
	require.Equal(t, http.StatusOK, w.Code)
	entry, err = f.repo.GetLineupEntry(f.match.ID, p2.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Uninvited players cannot respond.
	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/lineup/respond", f.match.ID), f.captain,
		gin.H{"response": "accept"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClaimTaskOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p1, p2 := f.players[0], f.players[1]

	w := h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/tasks", f.match.ID), p1,
		gin.H{"task": "Drinks"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/tasks", f.match.ID), p2,
		gin.H{"task": "Drinks"})
	assert.Equal(t, http.StatusConflict, w.Code, "a claimed task never moves")

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/tasks", f.match.ID), p1,
		gin.H{"task": "Snacks"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "only the fixed task set is claimable")
}

func TestMessagesOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p := f.players[0]

	w := h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/messages", f.match.ID), p,
		gin.H{"content": "who brings the balls?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/messages", f.match.ID), p,
		gin.H{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d/messages", f.match.ID), f.captain, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []match.MessageRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "who brings the balls?", body.Data[0].Content)
}

func TestRescheduleOverHTTP(t *testing.T) {
	h := newHTTPFixture(t)
	f := h.fixture
	p := f.players[0]

	require.NoError(t, f.repo.ReplaceAvailability(f.match.ID, p.ID, []uint{f.dates[0].ID}))
	require.NoError(t, f.repo.ConfirmDate(f.match.ID, f.dates[0].ID))

	w := h.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d", f.match.ID), f.captain, gin.H{
		"opponent":       "TSV Gegner",
		"location":       "Halle 2",
		"proposed_dates": []string{time.Date(2026, 9, 20, 15, 0, 0, 0, time.UTC).Format(time.RFC3339)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m, err := f.repo.GetMatchByID(f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusPlanned, m.Status)
	assert.Nil(t, m.FinalDate)
	got, err := f.repo.GetUserAvailability(f.match.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
