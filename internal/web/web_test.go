package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "github.com/hailinhs/alumnisite/auth/service"
	"github.com/hailinhs/alumnisite/internal/config"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/kv/mem"
	"github.com/hailinhs/alumnisite/internal/logger"
	"github.com/hailinhs/alumnisite/internal/service"
	"github.com/hailinhs/alumnisite/internal/storage/kvstore"
)

type response struct {
	Session *struct {
		User *struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Authenticated bool `json:"isAuthenticated"`
	} `json:"session"`
	Errors []string                   `json:"errors"`
	Data   map[string]json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Latency = 0
	cfg.Server.Timezone = "UTC"
	cfg.Site.Alumni = []domain.AlumniProfile{
		{ID: 1, Name: "张三", GraduationYear: 2010, Location: "深圳"},
		{ID: 2, Name: "李四", GraduationYear: 2008, Location: "海林"},
	}

	l := logger.Discard()
	st := kvstore.New(mem.New(), l)
	auth, err := authservice.New(context.Background(), cfg, st, l)
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	opts := []service.Option{service.WithClock(now), service.WithLocation(time.UTC)}
	news := service.NewNewsService(st, auth, l, opts...)
	events := service.NewEventService(st, l, opts...)
	directory := service.NewDirectoryService(cfg.Site.Alumni)
	return New(cfg, Services{
		Auth:      auth,
		News:      news,
		Events:    events,
		Directory: directory,
		Contact:   service.NewContactService(st, nil, l, opts...),
		Home:      service.NewHomeService(news, events, directory),
	}, l)
}

func do(t *testing.T, s *Server, method, path string, body any, cookie *http.Cookie) (*http.Response, response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func token(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.Value != "" {
			return c
		}
	}
	return nil
}

func signIn(t *testing.T, s *Server, email string) *http.Cookie {
	t.Helper()
	resp, _ := do(t, s, http.MethodPost, "/signin", payload{"email": email, "password": "password"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := token(resp)
	require.NotNil(t, c)
	return c
}

type payload map[string]any

func TestServer_Guard(t *testing.T) {
	s := newTestServer(t)

	resp, _ := do(t, s, http.MethodGet, "/api/news", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := do(t, s, http.MethodGet, "/api/admin/pending", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, out.Errors)

	for _, path := range []string{"/API/ADMIN/users", "/api/Admin/contact"} {
		resp, out = do(t, s, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Nil(t, out.Data["users"], path)
		assert.Nil(t, out.Data["messages"], path)
	}
	resp, _ = do(t, s, http.MethodPost, "/API/ADMIN/news", payload{"title": "x", "content": "y", "category": "general"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	alumni := signIn(t, s, "alumni1@example.com")
	resp, _ = do(t, s, http.MethodGet, "/api/admin/users", nil, alumni)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_SignIn(t *testing.T) {
	s := newTestServer(t)

	resp, out := do(t, s, http.MethodPost, "/signin", payload{"email": "admin@hailin.edu", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []string{authservice.ErrInvalidCredentials.Error()}, out.Errors)

	resp, out = do(t, s, http.MethodPost, "/signin", payload{"email": "ADMIN@hailin.edu", "password": "password"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out.Session)
	assert.True(t, out.Session.Authenticated)
	assert.Equal(t, "admin", out.Session.User.Role)

	resp, out = do(t, s, http.MethodGet, "/api/session", nil, token(resp))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Session.Authenticated)
}

func TestServer_StaleToken(t *testing.T) {
	s := newTestServer(t)
	alumni := signIn(t, s, "alumni1@example.com")
	admin := signIn(t, s, "admin@hailin.edu")

	_, out := do(t, s, http.MethodGet, "/api/session", nil, alumni)
	require.NotNil(t, out.Session)
	assert.False(t, out.Session.Authenticated)

	// signing out with a stale token leaves the holder signed in
	resp, _ := do(t, s, http.MethodPost, "/signout", nil, alumni)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, out = do(t, s, http.MethodGet, "/api/session", nil, admin)
	assert.True(t, out.Session.Authenticated)

	resp, _ = do(t, s, http.MethodPost, "/signout", nil, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, out = do(t, s, http.MethodGet, "/api/session", nil, admin)
	assert.False(t, out.Session.Authenticated)
}

func TestServer_SignUp(t *testing.T) {
	s := newTestServer(t)

	resp, out := do(t, s, http.MethodPost, "/signup", payload{
		"name":            "李雷",
		"email":           "lilei@example.com",
		"password":        "p1",
		"confirmPassword": "p2",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.ElementsMatch(t, []string{ErrPasswordMismatch.Error(), ErrNoGraduationYear.Error()}, out.Errors)

	resp, out = do(t, s, http.MethodPost, "/signup", payload{
		"name":            "李雷",
		"email":           "lilei@example.com",
		"password":        "p1",
		"confirmPassword": "p1",
		"graduationYear":  2012,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", out.Session.User.Role)
	pendingID := out.Session.User.ID

	// pending members are signed in but kept out of the console
	resp, _ = do(t, s, http.MethodGet, "/api/admin/pending", nil, token(resp))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := signIn(t, s, "admin@hailin.edu")
	resp, out = do(t, s, http.MethodGet, "/api/admin/pending", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(out.Data["pending"]), pendingID)

	resp, out = do(t, s, http.MethodPost, "/api/admin/pending/"+pendingID+"/approve", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(out.Data["pending"]))

	_, out = do(t, s, http.MethodGet, "/api/admin/users", nil, admin)
	assert.Contains(t, string(out.Data["users"]), "lilei@example.com")
}

func TestServer_NewsAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := signIn(t, s, "admin@hailin.edu")

	resp, out := do(t, s, http.MethodPost, "/api/admin/news", payload{
		"title":    "返校日",
		"content":  "欢迎 **全体校友** 回家",
		"category": "alumni",
	}, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.News
	require.NoError(t, json.Unmarshal(out.Data["news"], &created))
	assert.Equal(t, domain.NewsPublished, created.Status)
	assert.Equal(t, "管理员", created.Author)

	resp, out = do(t, s, http.MethodGet, "/api/news/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(out.Data["html"]), "<strong>全体校友</strong>")

	resp, _ = do(t, s, http.MethodPost, "/api/admin/news/"+created.ID+"/toggle", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, s, http.MethodGet, "/api/news/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, s, http.MethodGet, "/api/news/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = do(t, s, http.MethodPost, "/api/admin/news", payload{"title": "缺内容", "category": "alumni"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out.Errors)

	resp, _ = do(t, s, http.MethodPut, "/api/admin/news/missing", payload{
		"title": "x", "content": "y", "category": "general",
	}, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out = do(t, s, http.MethodDelete, "/api/admin/news/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{errConfirmRequired.Error()}, out.Errors)

	resp, _ = do(t, s, http.MethodDelete, "/api/admin/news/"+created.ID+"?confirm=true", nil, admin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, s, http.MethodGet, "/api/news/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EventsAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := signIn(t, s, "admin@hailin.edu")

	resp, out := do(t, s, http.MethodPost, "/api/admin/events", payload{
		"title":    "秋季聚会",
		"date":     "2024-09-01",
		"time":     "18:00 - 21:00",
		"location": "礼堂",
		"category": "social",
	}, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Event
	require.NoError(t, json.Unmarshal(out.Data["event"], &created))
	assert.Equal(t, domain.EventUpcoming, created.Status)

	_, out = do(t, s, http.MethodGet, "/api/events?category=social", nil, nil)
	assert.Contains(t, string(out.Data["events"]), created.ID)
	_, out = do(t, s, http.MethodGet, "/api/events?category=sports", nil, nil)
	assert.NotContains(t, string(out.Data["events"]), created.ID)

	resp, _ = do(t, s, http.MethodPut, "/api/admin/events/missing", payload{
		"title": "x", "date": "2024-09-01", "time": "10:00", "location": "y",
	}, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPost, "/api/admin/events", payload{
		"title": "x", "date": "09/01/2024", "time": "10:00", "location": "y",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, s, http.MethodDelete, "/api/admin/events/"+created.ID+"?confirm=true", nil, admin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_Alumni(t *testing.T) {
	s := newTestServer(t)

	resp, out := do(t, s, http.MethodGet, "/api/alumni?year=2010", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `1`, string(out.Data["count"]))
	assert.Contains(t, string(out.Data["alumni"]), "张三")
	assert.JSONEq(t, `[2010, 2008]`, string(out.Data["years"]))

	resp, _ = do(t, s, http.MethodGet, "/api/alumni?year=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Contact(t *testing.T) {
	s := newTestServer(t)

	resp, _ := do(t, s, http.MethodPost, "/api/contact", payload{
		"name":    "王五",
		"email":   "wang@example.com",
		"subject": "捐赠",
		"message": "想为母校捐赠图书",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	admin := signIn(t, s, "admin@hailin.edu")
	_, out := do(t, s, http.MethodGet, "/api/admin/contact", nil, admin)
	assert.Contains(t, string(out.Data["messages"]), "想为母校捐赠图书")
}
