package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	botmodel "github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/storage"
)

type Notifier interface {
	Notify(ctx context.Context, kind botmodel.EventType, text string) error
}

type ContactService struct {
	storage  storage.ContactStorage
	notifier Notifier
	opts     options
	log      *logrus.Entry

	mu sync.Mutex
}

func NewContactService(st storage.ContactStorage, n Notifier, l *logrus.Logger, opts ...Option) *ContactService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ContactService{
		storage:  st,
		notifier: n,
		opts:     o,
		log:      l.WithField("from", "contact"),
	}
}

// Submit stores a visitor message. Admins are told about it on a best effort
// basis.
func (s *ContactService) Submit(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListMessages(ctx)
	if err != nil {
		return domain.ContactMessage{}, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.opts.now()
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	if err := s.storage.SaveMessages(ctx, append(list, msg)); err != nil {
		return domain.ContactMessage{}, err
	}
	s.log.WithField("message_id", msg.ID).Info("contact message received")

	if s.notifier != nil {
		text := fmt.Sprintf("新留言：%s\n来自：%s <%s>\n\n%s", msg.Subject, msg.Name, msg.Email, msg.Message)
		if err := s.notifier.Notify(ctx, botmodel.EventContact, text); err != nil {
			s.log.WithError(err).Warn("contact notification failed")
		}
	}
	return msg, nil
}

func (s *ContactService) List(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.storage.ListMessages(ctx)
}
