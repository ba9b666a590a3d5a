package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hailinhs/alumnisite/auth/users"
	botmodel "github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/config"
	"github.com/hailinhs/alumnisite/internal/kv/mem"
	"github.com/hailinhs/alumnisite/internal/logger"
	"github.com/hailinhs/alumnisite/internal/storage/kvstore"
)

type notification struct {
	kind botmodel.EventType
	text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, kind botmodel.EventType, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: kind, text: text})
	return f.err
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Latency = 0
	return cfg
}

type AuthSuite struct {
	suite.Suite
	ctx      context.Context
	kv       *mem.Store
	storage  *kvstore.Storage
	notifier *fakeNotifier
	now      time.Time
	svc      *Service
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = mem.New()
	s.storage = kvstore.New(s.kv, logger.Discard())
	s.notifier = &fakeNotifier{}
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.svc = s.newService()
}

func (s *AuthSuite) newService() *Service {
	svc, err := New(s.ctx, testConfig(), s.storage, logger.Discard(),
		WithClock(func() time.Time { return s.now }),
		WithNotifier(s.notifier),
	)
	s.Require().NoError(err)
	return svc
}

func (s *AuthSuite) register(name, email string, year int) users.User {
	u, err := s.svc.Register(s.ctx, users.RegisterData{
		Name:           name,
		Email:          email,
		Password:       "p1",
		GraduationYear: year,
	})
	s.Require().NoError(err)
	return u
}

func (s *AuthSuite) TestNew_SeedsRoster() {
	list, err := s.svc.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(users.RoleAdmin, list[0].Role)
	s.Equal("admin@hailin.edu", list[0].Email)
	s.Equal(users.RoleAlumni, list[1].Role)

	session := s.svc.Current()
	s.False(session.Authenticated)
	s.False(session.Loading)
	s.Nil(session.User)
}

func (s *AuthSuite) TestNew_SeedsConfiguredAdminEmail() {
	cfg := testConfig()
	cfg.Auth.AdminEmail = "office@hailinhs.edu.cn"
	svc, err := New(s.ctx, cfg, kvstore.New(mem.New(), logger.Discard()), logger.Discard())
	s.Require().NoError(err)

	_, err = svc.Login(s.ctx, "office@hailinhs.edu.cn", "password")
	s.Require().NoError(err)
	s.Equal(users.RoleAdmin, svc.Current().Role())
}

func (s *AuthSuite) TestNew_KeepsExistingRoster() {
	s.Require().NoError(s.storage.SaveUsers(s.ctx, []users.User{{ID: "9", Role: users.RoleAlumni, Status: users.StatusActive}}))
	svc := s.newService()
	list, err := svc.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("9", list[0].ID)
}

func (s *AuthSuite) TestNew_RestoresSession() {
	_, err := s.svc.Login(s.ctx, "admin@hailin.edu", "password")
	s.Require().NoError(err)

	restarted := s.newService()
	session := restarted.Current()
	s.True(session.Authenticated)
	s.Equal("1", session.User.ID)
}

func (s *AuthSuite) TestNew_MalformedSession() {
	s.Require().NoError(s.kv.Set(s.ctx, kvstore.KeySession, []byte("{broken")))
	svc := s.newService()
	s.False(svc.Current().Authenticated)
}

func (s *AuthSuite) TestLogin() {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		wantID   string
	}{
		{name: "admin", email: "admin@hailin.edu", password: "password", wantID: "1"},
		{name: "email case and spaces", email: "  Alumni1@Example.com ", password: "password", wantID: "2"},
		{name: "wrong password", email: "admin@hailin.edu", password: "secret", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@x.com", password: "password", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Require().NoError(s.svc.Logout(s.ctx))
			u, err := s.svc.Login(s.ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				s.False(s.svc.Current().Authenticated)
				return
			}
			s.Require().NoError(err)
			s.Equal(tt.wantID, u.ID)
			session := s.svc.Current()
			s.True(session.Authenticated)
			s.Equal(tt.wantID, session.User.ID)
		})
	}
}

func (s *AuthSuite) TestLogin_PendingCannotSignIn() {
	u := s.register("李雷", "li@x.com", 2012)
	s.Require().NoError(s.svc.Logout(s.ctx))

	_, err := s.svc.Login(s.ctx, u.Email, "password")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthSuite) TestLogin_FailureKeepsSession() {
	_, err := s.svc.Login(s.ctx, "admin@hailin.edu", "password")
	s.Require().NoError(err)
	_, err = s.svc.Login(s.ctx, "admin@hailin.edu", "nope")
	s.Require().ErrorIs(err, ErrInvalidCredentials)
	s.Equal("1", s.svc.Current().User.ID)
}

func (s *AuthSuite) TestRegister() {
	u := s.register("李雷", "li@x.com", 2012)

	s.Equal(users.RolePending, u.Role)
	s.Equal(users.StatusActive, u.Status)
	s.Equal(s.now, u.CreatedAt)
	s.NotEmpty(u.ID)

	session := s.svc.Current()
	s.True(session.Authenticated)
	s.Equal(u.ID, session.User.ID)
	s.Equal(users.RolePending, session.Role())

	pending, err := s.svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(u.ID, pending[0].ID)

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(botmodel.EventRegistration, s.notifier.sent[0].kind)
	s.Contains(s.notifier.sent[0].text, "李雷")
}

type lockCheckNotifier struct {
	svc      *Service
	lockFree bool
}

func (n *lockCheckNotifier) Notify(context.Context, botmodel.EventType, string) error {
	if n.svc.ops.TryLock() {
		n.lockFree = true
		n.svc.ops.Unlock()
	}
	return nil
}

func (s *AuthSuite) TestRegister_NotifiesAfterReleasingLock() {
	n := &lockCheckNotifier{}
	svc, err := New(s.ctx, testConfig(), s.storage, logger.Discard(), WithNotifier(n))
	s.Require().NoError(err)
	n.svc = svc

	_, err = svc.Register(s.ctx, users.RegisterData{Name: "李雷", Email: "li@x.com", GraduationYear: 2012})
	s.Require().NoError(err)
	s.True(n.lockFree)
}

func (s *AuthSuite) TestRegister_NotifierFailureIsIgnored() {
	s.notifier.err = errors.New("telegram down")
	u := s.register("韩梅梅", "han@x.com", 2011)
	s.Equal(u.ID, s.svc.Current().User.ID)
}

func (s *AuthSuite) TestRegister_CancelledContext() {
	cfg := testConfig()
	cfg.Auth.Latency = time.Hour
	svc, err := New(s.ctx, cfg, s.storage, logger.Discard())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = svc.Register(ctx, users.RegisterData{Name: "x", Email: "x@x.com", GraduationYear: 2000})
	s.ErrorIs(err, context.Canceled)
	s.False(svc.Current().Loading)

	pending, err := svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *AuthSuite) TestRegisterThenApprove() {
	u := s.register("李雷", "li@x.com", 2012)

	s.Require().NoError(s.svc.ApproveAlumni(s.ctx, u.ID))

	session := s.svc.Current()
	s.True(session.Authenticated)
	s.Equal(users.RoleAlumni, session.Role())

	pending, err := s.svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)

	roster, err := s.svc.ListUsers(s.ctx)
	s.Require().NoError(err)
	var found int
	for _, r := range roster {
		if r.ID == u.ID {
			found++
			s.Equal(users.RoleAlumni, r.Role)
		}
	}
	s.Equal(1, found)

	persisted, err := s.storage.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(users.RoleAlumni, persisted.Role)
}

func (s *AuthSuite) TestApprove_OtherUserKeepsSession() {
	first := s.register("李雷", "li@x.com", 2012)
	second := s.register("韩梅梅", "han@x.com", 2011)

	s.Require().NoError(s.svc.ApproveAlumni(s.ctx, first.ID))

	session := s.svc.Current()
	s.Equal(second.ID, session.User.ID)
	s.Equal(users.RolePending, session.Role())
}

func (s *AuthSuite) TestApprove_UnknownIDChangesNothing() {
	s.register("李雷", "li@x.com", 2012)
	before, err := s.kv.Get(s.ctx, kvstore.KeyUsers)
	s.Require().NoError(err)
	beforePending, err := s.kv.Get(s.ctx, kvstore.KeyPending)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ApproveAlumni(s.ctx, "missing"))

	after, err := s.kv.Get(s.ctx, kvstore.KeyUsers)
	s.Require().NoError(err)
	afterPending, err := s.kv.Get(s.ctx, kvstore.KeyPending)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Equal(beforePending, afterPending)
}

type flakyStorage struct {
	*kvstore.Storage
	pendingFailures int
}

func (f *flakyStorage) SavePending(ctx context.Context, list []users.User) error {
	if f.pendingFailures > 0 {
		f.pendingFailures--
		return errors.New("disk full")
	}
	return f.Storage.SavePending(ctx, list)
}

func (s *AuthSuite) TestApprove_RetryAfterPendingWriteFails() {
	u := s.register("李雷", "li@x.com", 2012)
	flaky := &flakyStorage{Storage: s.storage, pendingFailures: 1}
	svc, err := New(s.ctx, testConfig(), flaky, logger.Discard())
	s.Require().NoError(err)

	s.Require().Error(svc.ApproveAlumni(s.ctx, u.ID))
	s.Require().NoError(svc.ApproveAlumni(s.ctx, u.ID))

	pending, err := svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)

	roster, err := svc.ListUsers(s.ctx)
	s.Require().NoError(err)
	var found int
	for _, r := range roster {
		if r.ID == u.ID {
			found++
			s.Equal(users.RoleAlumni, r.Role)
		}
	}
	s.Equal(1, found)
}

func (s *AuthSuite) TestReject_SessionUserIsSignedOut() {
	u := s.register("李雷", "li@x.com", 2012)

	s.Require().NoError(s.svc.RejectAlumni(s.ctx, u.ID))

	s.False(s.svc.Current().Authenticated)
	pending, err := s.svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)
	persisted, err := s.storage.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Nil(persisted)
}

func (s *AuthSuite) TestReject_OtherUserKeepsSession() {
	first := s.register("李雷", "li@x.com", 2012)
	second := s.register("韩梅梅", "han@x.com", 2011)

	s.Require().NoError(s.svc.RejectAlumni(s.ctx, first.ID))

	session := s.svc.Current()
	s.True(session.Authenticated)
	s.Equal(second.ID, session.User.ID)
	pending, err := s.svc.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)
}

func (s *AuthSuite) TestReject_UnknownID() {
	u := s.register("李雷", "li@x.com", 2012)
	s.Require().NoError(s.svc.RejectAlumni(s.ctx, "missing"))
	s.Equal(u.ID, s.svc.Current().User.ID)
}

func (s *AuthSuite) TestLogout() {
	_, err := s.svc.Login(s.ctx, "admin@hailin.edu", "password")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Logout(s.ctx))
	s.False(s.svc.Current().Authenticated)

	_, err = s.kv.Get(s.ctx, kvstore.KeySession)
	s.Error(err)
}

func (s *AuthSuite) TestSessionFromToken() {
	admin, err := s.svc.Login(s.ctx, "admin@hailin.edu", "password")
	s.Require().NoError(err)
	cookie, err := s.svc.GenerateJWTCookie(admin.ID, "")
	s.Require().NoError(err)
	s.Equal("token", cookie.Name)
	s.True(cookie.HTTPOnly)

	session, err := s.svc.SessionFromToken(cookie.Value)
	s.Require().NoError(err)
	s.True(session.Authenticated)
	s.Equal(admin.ID, session.User.ID)

	session, err = s.svc.SessionFromToken("")
	s.Require().NoError(err)
	s.False(session.Authenticated)

	_, err = s.svc.SessionFromToken("not-a-jwt")
	s.ErrorIs(err, ErrNotAuthorized)

	other, err := s.svc.GenerateJWTCookie("2", "")
	s.Require().NoError(err)
	session, err = s.svc.SessionFromToken(other.Value)
	s.Require().NoError(err)
	s.False(session.Authenticated, "token of a user who does not hold the session")

	s.Require().NoError(s.svc.Logout(s.ctx))
	session, err = s.svc.SessionFromToken(cookie.Value)
	s.Require().NoError(err)
	s.False(session.Authenticated)
}

func (s *AuthSuite) TestSessionFromToken_Expired() {
	s.now = time.Now().Add(-48 * time.Hour)
	cookie, err := s.svc.GenerateJWTCookie("1", "")
	s.Require().NoError(err)
	_, err = s.svc.SessionFromToken(cookie.Value)
	s.ErrorIs(err, ErrNotAuthorized)
}

func TestAuthorize(t *testing.T) {
	svc, err := New(context.Background(), testConfig(), kvstore.New(mem.New(), logger.Discard()), logger.Discard())
	require.NoError(t, err)

	guest := users.Session{}
	session := func(role users.Role) users.Session {
		return users.Session{User: &users.User{ID: "x", Role: role}, Authenticated: true}
	}
	tests := []struct {
		name    string
		session users.Session
		method  string
		path    string
		wantErr error
	}{
		{name: "guest on public page", session: guest, method: "GET", path: "/api/news"},
		{name: "guest signs in", session: guest, method: "POST", path: "/signin"},
		{name: "guest on admin", session: guest, method: "GET", path: "/api/admin/pending", wantErr: ErrNotAuthorized},
		{name: "pending on admin", session: session(users.RolePending), method: "GET", path: "/api/admin/users", wantErr: ErrForbidden},
		{name: "alumni on admin", session: session(users.RoleAlumni), method: "DELETE", path: "/api/admin/news/1", wantErr: ErrForbidden},
		{name: "admin on admin", session: session(users.RoleAdmin), method: "POST", path: "/api/admin/news"},
		{name: "admin prefix lookalike", session: guest, method: "GET", path: "/api/administrators"},
		{name: "guest on upper case admin", session: guest, method: "GET", path: "/API/ADMIN/users", wantErr: ErrNotAuthorized},
		{name: "alumni on mixed case admin", session: session(users.RoleAlumni), method: "POST", path: "/api/Admin/news", wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(tt.session, tt.method, tt.path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorize_Rules(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []config.Rule{
		{Name: "members", Path: "^/api/members", Method: []string{"GET"}, Allow: []string{"alumni"}},
		{Name: "me", Path: "^/api/me", Method: []string{"*"}, Allow: []string{"*"}},
	}
	svc, err := New(context.Background(), cfg, kvstore.New(mem.New(), logger.Discard()), logger.Discard())
	require.NoError(t, err)

	admin := users.Session{User: &users.User{Role: users.RoleAdmin}, Authenticated: true}
	alumni := users.Session{User: &users.User{Role: users.RoleAlumni}, Authenticated: true}
	pending := users.Session{User: &users.User{Role: users.RolePending}, Authenticated: true}

	assert.NoError(t, svc.Authorize(admin, "GET", "/api/members"))
	assert.NoError(t, svc.Authorize(alumni, "GET", "/api/members"))
	assert.ErrorIs(t, svc.Authorize(pending, "GET", "/api/members"), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(alumni, "POST", "/api/members"), ErrForbidden, "no rule covers POST")
	assert.NoError(t, svc.Authorize(pending, "PUT", "/api/me"))
	assert.ErrorIs(t, svc.Authorize(users.Session{}, "GET", "/api/me"), ErrNotAuthorized)
}

func TestNew_BadRule(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []config.Rule{{Name: "broken", Path: "(", Method: []string{"*"}}}
	_, err := New(context.Background(), cfg, kvstore.New(mem.New(), logger.Discard()), logger.Discard())
	require.Error(t, err)
}
