package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/config"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/ratelimit"
	"github.com/hongminglow/mosque-donations/internal/storage/memory"
)

// Wednesday, ISO week 11 of 2025.
var apiNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t       *testing.T
	baseURL string
}

func newTestServer(t *testing.T) (*apiClient, *memory.Store) {
	t.Helper()
	store := memory.NewSeeded().WithClock(func() time.Time { return apiNow })
	cfg := config.Config{
		Port:           "0",
		CORSOrigins:    []string{"*"},
		LoginRateLimit: 1000,
		RequestTimeout: 5 * time.Second,
		TimeZone:       "UTC",
	}
	tokens := auth.NewTokenManager("test-secret", "test", 24*time.Hour).WithClock(func() time.Time { return apiNow })
	handler := NewHandler(cfg, Deps{
		Store:   store,
		Tokens:  tokens,
		Limiter: ratelimit.NewMemory(1000, time.Minute),
		Now:     func() time.Time { return apiNow },
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &apiClient{t: t, baseURL: ts.URL}, store
}

func (c *apiClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(c.t, resp.StatusCode, out.Code)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type loginData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// registerAndLogin creates a fresh account and returns its token and id.
func (c *apiClient) registerAndLogin(email string) (string, int64) {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/register", "", map[string]any{
		"full_name": "Test " + email,
		"email":     email,
		"password":  "password123",
		"mosque_id": 1,
	})
	require.Equal(c.t, http.StatusCreated, status, env.Message)
	registered := decode[models.User](c.t, env.Data)

	status, env = c.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(c.t, http.StatusOK, status, env.Message)
	login := decode[loginData](c.t, env.Data)
	require.NotEmpty(c.t, login.Token)
	require.Equal(c.t, registered.ID, login.User.ID)
	return login.Token, login.User.ID
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	c, _ := newTestServer(t)
	token, id := c.registerAndLogin("amir@example.com")

	status, env := c.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[models.User](t, env.Data)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "Central Mosque", me.MosqueName)
	assert.NotContains(t, string(env.Data), "password")
}

func TestRegisterErrors(t *testing.T) {
	c, _ := newTestServer(t)
	c.registerAndLogin("dup@example.com")

	status, env := c.do(http.MethodPost, "/register", "", map[string]any{
		"full_name": "Again", "email": "dup@example.com", "password": "password123", "mosque_id": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already exists", env.Message)

	status, _ = c.do(http.MethodPost, "/register", "", map[string]any{
		"full_name": "X", "email": "x@example.com", "password": "password123", "mosque_id": 1, "role": "caliph",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginErrors(t *testing.T) {
	c, _ := newTestServer(t)
	c.registerAndLogin("amir@example.com")

	status, _ := c.do(http.MethodPost, "/login", "", map[string]string{"email": "ghost@example.com", "password": "password123"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodPost, "/login", "", map[string]string{"email": "amir@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/login", "", map[string]string{"email": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	c, _ := newTestServer(t)
	for _, path := range []string{"/me", "/purposes", "/donations/user/1", "/donations/summary/1"} {
		status, env := c.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "token missing", env.Message)
	}
	status, env := c.do(http.MethodGet, "/purposes", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", env.Message)
}

func createFriday(c *apiClient, token string, amount any, purpose int64, date string) (int, envelope) {
	return c.do(http.MethodPost, "/donation/friday", token, map[string]any{
		"mosque_id": 1, "amount": amount, "purpose_id": purpose, "donation_date": date,
	})
}

func TestDonationsListedOnlyForOwner(t *testing.T) {
	c, _ := newTestServer(t)
	uToken, uID := c.registerAndLogin("u@example.com")
	vToken, _ := c.registerAndLogin("v@example.com")

	status, env := createFriday(c, uToken, 30, 3, "2025-03-07")
	require.Equal(t, http.StatusCreated, status, env.Message)
	created := decode[models.Donation](t, env.Data)

	status, env = c.do(http.MethodGet, fmt.Sprintf("/donations/user/%d", uID), uToken, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]models.Donation](t, env.Data)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Education", list[0].Friday.PurposeName)

	status, _ = c.do(http.MethodGet, fmt.Sprintf("/donations/user/%d", uID), vToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodGet, "/donations/user/abc", uToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListEmptyIsNotFound(t *testing.T) {
	c, _ := newTestServer(t)
	token, id := c.registerAndLogin("u@example.com")
	status, _ := c.do(http.MethodGet, fmt.Sprintf("/donations/user/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteByNonOwnerLeavesRecord(t *testing.T) {
	c, _ := newTestServer(t)
	uToken, _ := c.registerAndLogin("u@example.com")
	vToken, vID := c.registerAndLogin("v@example.com")

	status, env := createFriday(c, vToken, 25, 1, "2025-03-07")
	require.Equal(t, http.StatusCreated, status)
	created := decode[models.Donation](t, env.Data)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/donation/friday/%d", created.ID), uToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = c.do(http.MethodGet, fmt.Sprintf("/donations/user/%d", vID), vToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Donation](t, env.Data), 1)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/donation/friday/%d", created.ID), vToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodDelete, "/donation/zakat/1", vToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSummaryAfterOneOfEachKind(t *testing.T) {
	c, _ := newTestServer(t)
	token, id := c.registerAndLogin("u@example.com")

	status, _ := createFriday(c, token, 100, 1, "2025-03-07")
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.do(http.MethodPost, "/donation/fitr", token, map[string]any{"mosque_id": 1, "amount": 50, "year": 2025})
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.do(http.MethodPost, "/donation/zakat", token, map[string]any{"mosque_id": 1, "amount": "25", "year": 2025})
	require.Equal(t, http.StatusCreated, status)

	status, env := c.do(http.MethodGet, fmt.Sprintf("/donations/summary/%d", id), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"friday": {"total": 100.00, "count": 1},
		"fitr":   {"total": 50.00,  "count": 1},
		"zakat":  {"total": 25.00,  "count": 1}
	}`, string(env.Data))

	status, env = c.do(http.MethodGet, fmt.Sprintf("/donations/count/%d", id), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"fitr": 1, "zakat": 1}`, string(env.Data))
}

func TestSummaryEmptyUserIsZero(t *testing.T) {
	c, _ := newTestServer(t)
	token, id := c.registerAndLogin("u@example.com")
	status, env := c.do(http.MethodGet, fmt.Sprintf("/donations/summary/%d", id), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"friday":{"total":0,"count":0},"fitr":{"total":0,"count":0},"zakat":{"total":0,"count":0}}`, string(env.Data))
}

func TestInvalidAmountsRejected(t *testing.T) {
	c, store := newTestServer(t)
	token, id := c.registerAndLogin("u@example.com")

	for _, amount := range []any{0, "-5", "abc", -1.5} {
		status, env := createFriday(c, token, amount, 1, "2025-03-07")
		assert.Equal(t, http.StatusBadRequest, status, "amount %v", amount)
		assert.True(t, strings.HasPrefix(env.Message, "amount"), env.Message)
	}

	totals, err := store.SumAndCount(t.Context(), models.KindFriday, id)
	require.NoError(t, err)
	assert.Zero(t, totals.Count)
}

func TestCreateForAnotherUserForbidden(t *testing.T) {
	c, _ := newTestServer(t)
	uToken, _ := c.registerAndLogin("u@example.com")
	_, vID := c.registerAndLogin("v@example.com")

	status, _ := c.do(http.MethodPost, "/donation/fitr", uToken, map[string]any{
		"mosque_id": 1, "user_id": vID, "amount": 10, "year": 2025,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodPost, "/donation/sadaqa", uToken, map[string]any{"mosque_id": 1, "amount": 10})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWindowStats(t *testing.T) {
	c, _ := newTestServer(t)

	status, env := c.do(http.MethodGet, "/stats/1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"weekly":0,"monthly":0,"yearly":0}`, string(env.Data))

	token, _ := c.registerAndLogin("u@example.com")
	createFriday(c, token, 10, 1, "2025-03-11")
	createFriday(c, token, 20, 1, "2025-03-07")
	createFriday(c, token, 40, 1, "2025-01-10")

	status, env = c.do(http.MethodGet, "/stats/1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"weekly":10,"monthly":30,"yearly":70}`, string(env.Data))

	status, _ = c.do(http.MethodGet, "/stats/0", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestReferenceData(t *testing.T) {
	c, _ := newTestServer(t)
	status, env := c.do(http.MethodGet, "/mosques", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Mosque](t, env.Data), len(memory.DefaultMosques))

	token, _ := c.registerAndLogin("u@example.com")
	status, env = c.do(http.MethodGet, "/purposes", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Purpose](t, env.Data), len(memory.DefaultPurposes))
}

func TestAnalyticsReport(t *testing.T) {
	c, _ := newTestServer(t)
	token, id := c.registerAndLogin("u@example.com")
	createFriday(c, token, 30, 2, "2025-03-07")
	createFriday(c, token, 70, 2, "2025-02-28")

	status, env := c.do(http.MethodGet, fmt.Sprintf("/donations/analytics/%d", id), token, nil)
	require.Equal(t, http.StatusOK, status)
	var report struct {
		Purposes []struct {
			Name  string  `json:"name"`
			Total float64 `json:"total"`
		} `json:"purposes"`
		MonthOverMonth float64 `json:"month_over_month"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Purposes, 1)
	assert.Equal(t, "Humanitarian aid", report.Purposes[0].Name)
	assert.Equal(t, 100.0, report.Purposes[0].Total)
	assert.InDelta(t, -57.1, report.MonthOverMonth, 0.001)
}

func TestHealth(t *testing.T) {
	c, _ := newTestServer(t)
	status, _ := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func loginStatuses(t *testing.T, cfg config.Config, remote string, attempts int) []int {
	t.Helper()
	handler := NewHandler(cfg, Deps{
		Store:  memory.NewSeeded(),
		Tokens: auth.NewTokenManager("test-secret", "test", time.Hour),
		Now:    func() time.Time { return apiNow },
	})
	statuses := make([]int, 0, attempts)
	for i := 1; i <= attempts; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ghost@example.com","password":"password123"}`))
		req.RemoteAddr = remote + ":5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		statuses = append(statuses, rr.Code)
	}
	return statuses
}

func TestLoginRateLimitIgnoresClientForwardingHeaders(t *testing.T) {
	cfg := config.Config{Port: "0", CORSOrigins: []string{"*"}, LoginRateLimit: 2, TimeZone: "UTC"}
	statuses := loginStatuses(t, cfg, "10.0.0.9", 6)
	assert.Equal(t, []int{
		http.StatusNotFound, http.StatusNotFound,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, statuses)
}

func TestLoginRateLimitTrustedProxyForwardsClient(t *testing.T) {
	cfg := config.Config{
		Port: "0", CORSOrigins: []string{"*"}, LoginRateLimit: 2, TimeZone: "UTC",
		TrustedProxies: []string{"10.0.0.9"},
	}
	for _, status := range loginStatuses(t, cfg, "10.0.0.9", 6) {
		assert.Equal(t, http.StatusNotFound, status, "each forwarded client has its own window")
	}
}
