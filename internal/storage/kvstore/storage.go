package kvstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	authstorage "github.com/hailinhs/alumnisite/auth/storage"
	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/kv"
	"github.com/hailinhs/alumnisite/internal/storage"
)

const (
	KeySession  = "alumni_user"
	KeyUsers    = "alumni_users"
	KeyPending  = "alumni_pending_users"
	KeyNews     = "alumni_news"
	KeyEvents   = "alumni_events"
	KeyMessages = "alumni_contact_messages"
)

type Storage struct {
	store kv.Store
	log   *logrus.Entry
}

var (
	_ authstorage.UserStorage = (*Storage)(nil)
	_ storage.NewsStorage     = (*Storage)(nil)
	_ storage.EventStorage    = (*Storage)(nil)
	_ storage.ContactStorage  = (*Storage)(nil)
)

func New(store kv.Store, l *logrus.Logger) *Storage {
	return &Storage{
		store: store,
		log:   l.WithField("from", "storage"),
	}
}

func (s *Storage) LoadSession(ctx context.Context) (*users.User, error) {
	raw, err := s.store.Get(ctx, KeySession)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var u users.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		s.log.WithError(err).Warn("malformed session record, starting signed out")
		return nil, nil
	}
	u = sanitizeUser(u)
	return &u, nil
}

func (s *Storage) SaveSession(ctx context.Context, user users.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeySession, raw)
}

func (s *Storage) ClearSession(ctx context.Context) error {
	return s.store.Delete(ctx, KeySession)
}

func (s *Storage) ListUsers(ctx context.Context) ([]users.User, error) {
	list, err := load[users.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(list), nil
}

func (s *Storage) SaveUsers(ctx context.Context, list []users.User) error {
	return save(ctx, s, KeyUsers, list)
}

func (s *Storage) SeedUsers(ctx context.Context, list []users.User) (bool, error) {
	_, err := s.store.Get(ctx, KeyUsers)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return false, err
	}
	return true, s.SaveUsers(ctx, list)
}

func (s *Storage) ListPending(ctx context.Context) ([]users.User, error) {
	list, err := load[users.User](ctx, s, KeyPending)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(list), nil
}

func (s *Storage) SavePending(ctx context.Context, list []users.User) error {
	return save(ctx, s, KeyPending, list)
}

func (s *Storage) ListNews(ctx context.Context) ([]domain.News, error) {
	list, err := load[domain.News](ctx, s, KeyNews)
	if err != nil {
		return nil, err
	}
	return sanitizeNews(list), nil
}

func (s *Storage) SaveNews(ctx context.Context, list []domain.News) error {
	return save(ctx, s, KeyNews, list)
}

func (s *Storage) ListEvents(ctx context.Context) ([]domain.Event, error) {
	list, err := load[domain.Event](ctx, s, KeyEvents)
	if err != nil {
		return nil, err
	}
	return sanitizeEvents(list), nil
}

func (s *Storage) SaveEvents(ctx context.Context, list []domain.Event) error {
	return save(ctx, s, KeyEvents, list)
}

func (s *Storage) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	return load[domain.ContactMessage](ctx, s, KeyMessages)
}

func (s *Storage) SaveMessages(ctx context.Context, list []domain.ContactMessage) error {
	return save(ctx, s, KeyMessages, list)
}

// load never fails on bad data: an absent or malformed collection reads as
// empty, and a record that does not decode is skipped on its own.
func load[T any](ctx context.Context, s *Storage, key string) ([]T, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}
	log := s.log.WithField("key", key)
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		log.WithError(err).Warn("malformed collection, treating as empty")
		return []T{}, nil
	}
	items := make([]T, 0, len(records))
	for i, rec := range records {
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			log.WithError(err).WithField("index", i).Warn("malformed record skipped")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func save[T any](ctx context.Context, s *Storage, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, raw)
}
