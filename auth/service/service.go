package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/auth/storage"
	"github.com/hailinhs/alumnisite/auth/users"
	botmodel "github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/config"
	"github.com/hailinhs/alumnisite/internal/normalize"
)

var (
	ErrForbidden          = errors.New("access denied")
	ErrNotAuthorized      = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
)

type Notifier interface {
	Notify(ctx context.Context, kind botmodel.EventType, text string) error
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// Service owns the single site session. Mutating operations are serialized
// by ops; mu only guards the in-memory session so readers never wait for the
// simulated login latency.
type Service struct {
	storage  storage.UserStorage
	cfg      config.Auth
	rules    []rule
	notifier Notifier
	now      func() time.Time
	log      *logrus.Entry

	ops     sync.Mutex
	mu      sync.RWMutex
	user    *users.User
	loading bool
}

func New(ctx context.Context, cfg config.Config, st storage.UserStorage, l *logrus.Logger, opts ...Option) (*Service, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	s := Service{
		storage: st,
		cfg:     cfg.Auth,
		rules:   rules,
		now:     time.Now,
		log:     l.WithField("from", "auth"),
	}
	for _, opt := range opts {
		opt(&s)
	}

	seeded, err := s.storage.SeedUsers(ctx, seedRoster(cfg.Auth.AdminEmail))
	if err != nil {
		return nil, fmt.Errorf("seed roster: %w", err)
	}
	if seeded {
		s.log.Info("roster seeded with demo accounts")
	}

	user, err := s.storage.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s.user = user
	if user != nil {
		s.log.WithField("user_id", user.ID).Info("session restored")
	}
	return &s, nil
}

// seedRoster is the first-run roster: the site admin and one demo alumnus.
func seedRoster(adminEmail string) []users.User {
	if adminEmail == "" {
		adminEmail = "admin@hailin.edu"
	}
	return []users.User{
		{
			ID:             "1",
			Email:          adminEmail,
			Name:           "管理员",
			Role:           users.RoleAdmin,
			GraduationYear: 2000,
			Status:         users.StatusActive,
			CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             "2",
			Email:          "alumni1@example.com",
			Name:           "张三",
			Role:           users.RoleAlumni,
			GraduationYear: 2010,
			Status:         users.StatusActive,
			CreatedAt:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func (s *Service) Current() users.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLocked()
}

func (s *Service) sessionLocked() users.Session {
	session := users.Session{Loading: s.loading}
	if s.user != nil {
		u := *s.user
		session.User = &u
		session.Authenticated = true
	}
	return session
}

func (s *Service) setUser(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Service) currentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// wait imitates the round trip of a remote auth service.
func (s *Service) wait(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.cfg.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Login accepts any roster email with the shared demo password. A failed
// attempt leaves the current session as it was.
func (s *Service) Login(ctx context.Context, email string, password string) (users.User, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.wait(ctx); err != nil {
		return users.User{}, err
	}
	roster, err := s.storage.ListUsers(ctx)
	if err != nil {
		return users.User{}, err
	}
	want := normalize.Email(email)
	for _, u := range roster {
		if normalize.Email(u.Email) != want {
			continue
		}
		if password != s.cfg.DemoPassword {
			break
		}
		if err := s.storage.SaveSession(ctx, u); err != nil {
			return users.User{}, err
		}
		s.setUser(&u)
		s.log.WithField("user_id", u.ID).Info("signed in")
		return u, nil
	}
	return users.User{}, ErrInvalidCredentials
}

// Register queues a new pending member and signs them in straight away.
// Admins are told once the session lock is released.
func (s *Service) Register(ctx context.Context, data users.RegisterData) (users.User, error) {
	u, err := s.register(ctx, data)
	if err != nil {
		return users.User{}, err
	}
	if s.notifier != nil {
		text := fmt.Sprintf("新的校友注册申请：%s（%s，%d届）", u.Name, u.Email, u.GraduationYear)
		if err := s.notifier.Notify(ctx, botmodel.EventRegistration, text); err != nil {
			s.log.WithError(err).Warn("registration notification failed")
		}
	}
	return u, nil
}

func (s *Service) register(ctx context.Context, data users.RegisterData) (users.User, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.wait(ctx); err != nil {
		return users.User{}, err
	}
	u := users.User{
		ID:             uuid.NewString(),
		Email:          strings.TrimSpace(data.Email),
		Name:           strings.TrimSpace(data.Name),
		Role:           users.RolePending,
		GraduationYear: data.GraduationYear,
		Phone:          strings.TrimSpace(data.Phone),
		Status:         users.StatusActive,
		CreatedAt:      s.now(),
	}
	pending, err := s.storage.ListPending(ctx)
	if err != nil {
		return users.User{}, err
	}
	if err := s.storage.SavePending(ctx, append(pending, u)); err != nil {
		return users.User{}, err
	}
	if err := s.storage.SaveSession(ctx, u); err != nil {
		return users.User{}, err
	}
	s.setUser(&u)
	s.log.WithField("user_id", u.ID).Info("registered")
	return u, nil
}

// Logout always drops the in-memory session, even when the store write fails.
func (s *Service) Logout(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.logout(ctx)
}

func (s *Service) logout(ctx context.Context) error {
	s.setUser(nil)
	return s.storage.ClearSession(ctx)
}

func (s *Service) ListPending(ctx context.Context) ([]users.User, error) {
	return s.storage.ListPending(ctx)
}

func (s *Service) ListUsers(ctx context.Context) ([]users.User, error) {
	return s.storage.ListUsers(ctx)
}

// ApproveAlumni moves a pending registration into the roster. Unknown ids are
// ignored.
func (s *Service) ApproveAlumni(ctx context.Context, id string) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	pending, err := s.storage.ListPending(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(pending, id)
	if idx == -1 {
		return nil
	}
	approved := pending[idx]
	approved.Role = users.RoleAlumni

	roster, err := s.storage.ListUsers(ctx)
	if err != nil {
		return err
	}
	// a retry after a failed pending write finds the user already rostered
	if i := indexOf(roster, id); i != -1 {
		roster[i] = approved
	} else {
		roster = append(roster, approved)
	}
	if err := s.storage.SaveUsers(ctx, roster); err != nil {
		return err
	}
	if err := s.storage.SavePending(ctx, remove(pending, idx)); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("alumni approved")

	if s.currentID() == id {
		s.mu.Lock()
		s.user.Role = users.RoleAlumni
		u := *s.user
		s.mu.Unlock()
		return s.storage.SaveSession(ctx, u)
	}
	return nil
}

// RejectAlumni drops a pending registration and signs its owner out if they
// hold the session. Unknown ids are ignored.
func (s *Service) RejectAlumni(ctx context.Context, id string) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	pending, err := s.storage.ListPending(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(pending, id)
	if idx == -1 {
		return nil
	}
	if err := s.storage.SavePending(ctx, remove(pending, idx)); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("alumni rejected")

	if s.currentID() == id {
		return s.logout(ctx)
	}
	return nil
}

func indexOf(list []users.User, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func remove(list []users.User, i int) []users.User {
	out := make([]users.User, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func (s *Service) GenerateJWTCookie(userID string, host string) (*fiber.Cookie, error) {
	expirationTime := s.now().Add(s.cfg.Expiration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: expirationTime.Unix(),
		IssuedAt:  s.now().Unix(),
		Subject:   userID,
	})
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &fiber.Cookie{
		Name:     "token",
		Value:    tokenString,
		Path:     "/",
		Domain:   host,
		Expires:  expirationTime,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}, nil
}

// SessionFromToken returns the site session if the token was issued to the
// user who currently holds it, and a guest session otherwise.
func (s *Service) SessionFromToken(cookie string) (users.Session, error) {
	guest := users.Session{}
	if cookie == "" {
		return guest, nil
	}
	subject, err := s.parseToken(cookie)
	if err != nil {
		return guest, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.user.ID != subject {
		return users.Session{Loading: s.loading}, nil
	}
	return s.sessionLocked(), nil
}

func (s *Service) parseToken(cookie string) (string, error) {
	token, err := jwt.ParseWithClaims(cookie, &jwt.StandardClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err == nil && token.Valid {
		claims, ok := token.Claims.(*jwt.StandardClaims)
		if !ok || claims.Subject == "" {
			return "", fmt.Errorf("%w: bad claims", ErrNotAuthorized)
		}
		return claims.Subject, nil
	}
	ve := &jwt.ValidationError{}
	if !errors.As(err, &ve) {
		return "", fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
	switch {
	case ve.Errors&jwt.ValidationErrorMalformed != 0:
		return "", fmt.Errorf("%w: malformed token", ErrNotAuthorized)
	case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
		return "", fmt.Errorf("%w: token expired", ErrNotAuthorized)
	default:
		return "", fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
}

// Authorize checks session against the first rule matching method and path.
// An admin passes wherever alumni are allowed. Paths no rule covers are
// forbidden.
func (s *Service) Authorize(session users.Session, method string, path string) error {
	for _, r := range s.rules {
		if !r.matches(method, path) {
			continue
		}
		if r.allow.Contains(AllowAnyone) {
			return nil
		}
		if !session.Authenticated {
			return ErrNotAuthorized
		}
		role := session.Role()
		if r.allow.Contains(AllowSignedIn) || r.allow.Contains(string(role)) {
			return nil
		}
		if role == users.RoleAdmin && r.allow.Contains(string(users.RoleAlumni)) {
			return nil
		}
		return ErrForbidden
	}
	return ErrForbidden
}
