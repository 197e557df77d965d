package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/cache"
	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/Bekzhanizb/QuitTrackerBackend/config"
	"github.com/Bekzhanizb/QuitTrackerBackend/handlers"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
	"github.com/Bekzhanizb/QuitTrackerBackend/routes"
	"github.com/Bekzhanizb/QuitTrackerBackend/services"
	"github.com/Bekzhanizb/QuitTrackerBackend/store"
	"github.com/Bekzhanizb/QuitTrackerBackend/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	router http.Handler
	users  *services.UserService
}

func newApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := config.Config{
		JWTSecret:          "test-secret",
		CORSOrigins:        []string{"http://localhost:3000"},
		CelebrationTick:    10 * time.Millisecond,
		UserCacheTTL:       time.Minute,
		SummaryConcurrency: 4,
		AdminToken:         "admin",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client, _ := testutil.Redis(t)
	users := services.NewUserService(store.New[models.UserRecord](testutil.DB(t), services.UserKind), zap.NewNop()).
		WithClock(func() time.Time { return now })
	hub := services.NewCelebrationHub(users, cache.NewRedisSeenStore(client), cfg.ResetClearsSeen, zap.NewNop())
	h := handlers.New(cfg, users, hub, cache.New(client))

	return &testApp{router: routes.Setup(h), users: users}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type session struct {
	User  models.UserRecord `json:"user"`
	Token string            `json:"token"`
}

func profileBody() gin.H {
	return gin.H{"profile": models.Profile{
		StartedAt:       now.Add(-26 * time.Hour),
		CostPerUnit:     20,
		UnitsPerWeek:    7,
		VolumePerUnitML: 2,
		MLPerUse:        0.05,
		NicotineMgPerML: 20,
		Currency:        "USD",
	}}
}

func entryBody(id string, intensity int) gin.H {
	return gin.H{"entry": gin.H{
		"id":        id,
		"timestamp": now.Add(-time.Hour).UnixMilli(),
		"intensity": intensity,
		"trigger":   "stress",
	}}
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	w := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLogin(t *testing.T) {
	app := newApp(t)

	w := app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/auth/login", gin.H{"email": " Sam@Example.com "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode[session](t, w)
	assert.Equal(t, "sam@example.com", s.User.ID)
	assert.NotEmpty(t, s.Token)

	w = app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "sam@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuest(t *testing.T) {
	app := newApp(t)
	w := app.do(t, http.MethodPost, "/auth/guest", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	s := decode[session](t, w)
	assert.True(t, strings.HasPrefix(s.User.ID, services.GuestPrefix))
	assert.True(t, s.User.IsGuest)
}

func TestGetUser(t *testing.T) {
	app := newApp(t)

	w := app.do(t, http.MethodGet, "/user/ghost@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"ghost@example.com: user not found"}`, w.Body.String())

	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "u@example.com"})
	w = app.do(t, http.MethodGet, "/user/u@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = app.do(t, http.MethodGet, "/user/u@example.com", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	app.do(t, http.MethodPost, "/user/u@example.com/journal", entryBody("e1", 5))
	w = app.do(t, http.MethodGet, "/user/u@example.com", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "writes invalidate the cache")
	assert.Len(t, decode[models.UserRecord](t, w).Journal, 1)
}

func TestSetProfile(t *testing.T) {
	app := newApp(t)

	w := app.do(t, http.MethodPost, "/user/p@example.com/profile", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := profileBody()
	p := bad["profile"].(models.Profile)
	p.Currency = "DOLLARS"
	w = app.do(t, http.MethodPost, "/user/p@example.com/profile", gin.H{"profile": p})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Currency")

	w = app.do(t, http.MethodPost, "/user/p@example.com/profile", profileBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[models.UserRecord](t, w)
	assert.Equal(t, "p@example.com", rec.ID, "auto-created")
	require.NotNil(t, rec.Profile)
}

func TestJournalEndpoints(t *testing.T) {
	app := newApp(t)

	w := app.do(t, http.MethodPost, "/user/nobody@example.com/journal", entryBody("e1", 5))
	assert.Equal(t, http.StatusNotFound, w.Code)

	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "j@example.com"})

	w = app.do(t, http.MethodPost, "/user/j@example.com/journal", entryBody("e1", 11))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(t, http.MethodPost, "/user/j@example.com/journal", gin.H{"entry": gin.H{"id": "e1", "intensity": 3}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "trigger required")
	w = app.do(t, http.MethodPost, "/user/j@example.com/journal", gin.H{"entry": gin.H{"trigger": "stress", "intensity": 3}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "id required")

	w = app.do(t, http.MethodPost, "/user/j@example.com/journal", entryBody("e1", 5))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodPost, "/user/j@example.com/journal", entryBody("e1", 5))
	assert.Equal(t, http.StatusConflict, w.Code)

	upd := entryBody("ignored", 2)
	upd["entry"].(gin.H)["note"] = "better"
	w = app.do(t, http.MethodPut, "/user/j@example.com/journal/e1", upd)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[models.UserRecord](t, w)
	require.Len(t, rec.Journal, 1)
	assert.Equal(t, "e1", rec.Journal[0].ID)
	assert.Equal(t, "better", rec.Journal[0].Note)

	w = app.do(t, http.MethodPut, "/user/j@example.com/journal/missing", upd)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.UserRecord](t, w).Journal, 1)

	w = app.do(t, http.MethodDelete, "/user/j@example.com/journal/missing", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodDelete, "/user/j@example.com/journal/e1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.UserRecord](t, w).Journal)
}

func TestPledgeEndpoint(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "pl@example.com"})

	type pledgeResp struct {
		User   models.UserRecord `json:"user"`
		Result string            `json:"result"`
	}

	w := app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{"date": "2026-03-09"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	r := decode[pledgeResp](t, w)
	assert.Equal(t, 1, r.User.PledgeStreak)
	assert.Equal(t, "first", r.Result)

	w = app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{"date": "2026-03-10"})
	r = decode[pledgeResp](t, w)
	assert.Equal(t, 2, r.User.PledgeStreak)

	w = app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{"date": "2026-03-10"})
	r = decode[pledgeResp](t, w)
	assert.Equal(t, 2, r.User.PledgeStreak)
	assert.Equal(t, "already_pledged", r.Result)

	w = app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{"date": "10.03.2026"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{"date": "2026-03-20"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(t, http.MethodPost, "/user/pl@example.com/pledge", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetProfile_RejectsOutOfRangeStart(t *testing.T) {
	app := newApp(t)

	body := profileBody()
	p := body["profile"].(models.Profile)
	p.StartedAt = time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC)
	w := app.do(t, http.MethodPost, "/user/old@example.com/profile", gin.H{"profile": p})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p.StartedAt = now.Add(48 * time.Hour)
	w = app.do(t, http.MethodPost, "/user/old@example.com/profile", gin.H{"profile": p})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressAndReset(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "pr@example.com"})

	w := app.do(t, http.MethodGet, "/user/pr@example.com/progress", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	app.do(t, http.MethodPost, "/user/pr@example.com/profile", profileBody())
	w = app.do(t, http.MethodGet, "/user/pr@example.com/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[map[string]interface{}](t, w)
	assert.InDelta(t, 26*3600, snap["seconds_free"], 1e-6)
	assert.Equal(t, "USD", snap["currency"])
	assert.NotContains(t, snap, "history")

	w = app.do(t, http.MethodGet, "/user/pr@example.com/progress?days=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	withHistory := decode[progress.Snapshot](t, w)
	require.Len(t, withHistory.History, 3)
	assert.Equal(t, "2026-03-08", withHistory.History[0].Date)
	assert.Equal(t, progress.DayUnknown, withHistory.History[0].Status)
	assert.Equal(t, "2026-03-10", withHistory.History[2].Date)
	assert.Equal(t, progress.DayClean, withHistory.History[2].Status)

	for _, bad := range []string{"0", "abc", "367"} {
		w = app.do(t, http.MethodGet, "/user/pr@example.com/progress?days="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	app.do(t, http.MethodPost, "/user/pr@example.com/journal", entryBody("e1", 5))
	w = app.do(t, http.MethodPost, "/user/pr@example.com/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[models.UserRecord](t, w)
	assert.Empty(t, rec.Journal)
	assert.True(t, rec.Profile.StartedAt.Equal(now))
}

func TestImportExport(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/user/src@example.com/profile", profileBody())
	app.do(t, http.MethodPost, "/user/src@example.com/journal", entryBody("e1", 4))

	w := app.do(t, http.MethodGet, "/user/src@example.com/data/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	backup := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, services.BackupVersion, backup["version"])

	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "dst@example.com"})
	w = app.do(t, http.MethodPost, "/user/dst@example.com/data/import", backup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[models.UserRecord](t, w)
	assert.Equal(t, "dst@example.com", rec.ID)
	assert.Equal(t, "dst@example.com", rec.Email)
	assert.Len(t, rec.Journal, 1)

	bad := gin.H{"journal": []gin.H{{"id": "x", "intensity": 0, "trigger": "stress"}}}
	w = app.do(t, http.MethodPost, "/user/dst@example.com/data/import", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/user/missing@example.com/data/import", gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCelebrationEndpoints(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "c@example.com"})

	w := app.do(t, http.MethodGet, "/user/c@example.com/celebrations", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	app.do(t, http.MethodPost, "/user/c@example.com/profile", profileBody())

	w = app.do(t, http.MethodGet, "/user/c@example.com/celebrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[celebrate.View](t, w)
	require.NotNil(t, v.Showing)
	assert.Equal(t, celebrate.CategoryRank, v.Showing.Category)
	assert.Equal(t, "cadet", v.Showing.ID)

	w = app.do(t, http.MethodPost, "/user/c@example.com/celebrations/badge/cadet/dismiss", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/user/c@example.com/celebrations/milestone/oxygen/dismiss", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/user/c@example.com/celebrations/rank/cadet/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[celebrate.View](t, w)
	require.NotNil(t, v.Showing)
	assert.Equal(t, "heart-rate", v.Showing.ID)

	// the dismissed rank never comes back
	w = app.do(t, http.MethodGet, "/user/c@example.com/celebrations", nil)
	v = decode[celebrate.View](t, w)
	for _, it := range v.Queued {
		assert.NotEqual(t, "cadet", it.ID)
	}
}

func TestCelebrationStream(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/user/s@example.com/profile", profileBody())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/user/s@example.com/celebrations/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:celebration")
	assert.Contains(t, w.Body.String(), `"id":"cadet"`)
}

func TestCelebrationStream_RequiresProfile(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "np@example.com"})

	w := app.do(t, http.MethodGet, "/user/np@example.com/celebrations/stream", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthRequired(t *testing.T) {
	app := newApp(t, func(c *config.Config) { c.AuthRequired = true })

	w := app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "a@example.com"})
	s := decode[session](t, w)

	w = app.do(t, http.MethodGet, "/user/a@example.com", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/user/a@example.com", nil, "Authorization", "Bearer "+s.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/user/b@example.com", nil, "Authorization", "Bearer "+s.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	app := newApp(t)
	app.do(t, http.MethodPost, "/user/one@example.com/profile", profileBody())
	app.do(t, http.MethodPost, "/auth/login", gin.H{"email": "two@example.com"})

	w := app.do(t, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/admin/users", nil, "X-Admin-Token", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "one@example.com")
	assert.Contains(t, w.Body.String(), "two@example.com")

	w = app.do(t, http.MethodGet, "/admin/summaries", nil, "X-Admin-Token", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[services.SummaryReport](t, w)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Onboarded)
}

func TestAdminEndpoints_UnmountedWithoutToken(t *testing.T) {
	app := newApp(t, func(c *config.Config) { c.AdminToken = "" })
	w := app.do(t, http.MethodGet, "/admin/users", nil, "X-Admin-Token", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
