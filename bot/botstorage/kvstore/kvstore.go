package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/bot/botstorage"
	"github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/kv"
)

const KeyUsers = "alumni_bot_users"

// Storage keeps bot chats as one JSON collection next to the site data.
type Storage struct {
	store kv.Store
	log   *logrus.Entry

	mu sync.Mutex
}

var _ botstorage.BotStorage = (*Storage)(nil)

func New(store kv.Store, l *logrus.Logger) *Storage {
	return &Storage{
		store: store,
		log:   l.WithField("from", "bot-storage"),
	}
}

func (s *Storage) GetUser(ctx context.Context, id int64) (model.User, error) {
	list, err := s.ListUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range list {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, botstorage.ErrNotFound
}

func (s *Storage) SaveUser(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == user.ID {
			list[i] = user
			replaced = true
		}
	}
	if !replaced {
		list = append(list, user)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeyUsers, raw)
}

func (s *Storage) ListUsers(ctx context.Context) ([]model.User, error) {
	raw, err := s.store.Get(ctx, KeyUsers)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []model.User{}, nil
		}
		return nil, err
	}
	var list []model.User
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.WithError(err).Warn("malformed bot users, starting empty")
		return []model.User{}, nil
	}
	return list, nil
}
