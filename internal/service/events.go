package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/storage"
)

type EventService struct {
	storage storage.EventStorage
	ids     *idGenerator
	opts    options
	log     *logrus.Entry

	mu sync.Mutex
}

func NewEventService(st storage.EventStorage, l *logrus.Logger, opts ...Option) *EventService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &EventService{
		storage: st,
		ids:     &idGenerator{now: o.now},
		opts:    o,
		log:     l.WithField("from", "events"),
	}
}

func (s *EventService) status(e domain.Event, now time.Time) domain.EventStatus {
	return DeriveStatus(e.Date, e.Time, now, s.opts.loc)
}

// List returns every event with its status derived for the current moment.
// Nothing is written back.
func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	list, err := s.storage.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	now := s.opts.now()
	for i := range list {
		list[i].Status = s.status(list[i], now)
	}
	return list, nil
}

func (s *EventService) Create(ctx context.Context, form domain.EventForm) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListEvents(ctx)
	if err != nil {
		return domain.Event{}, err
	}
	now := s.opts.now()
	e := fromForm(domain.Event{
		ID:        s.ids.next(),
		CreatedAt: now,
	}, form)
	e.UpdatedAt = now
	e.Status = s.status(e, now)
	if err := s.storage.SaveEvents(ctx, append(list, e)); err != nil {
		return domain.Event{}, err
	}
	s.log.WithField("event_id", e.ID).Info("event created")
	return e, nil
}

// Update keeps id, createdAt and the attendee count of the stored event.
func (s *EventService) Update(ctx context.Context, id string, form domain.EventForm) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListEvents(ctx)
	if err != nil {
		return domain.Event{}, err
	}
	idx := eventIndex(list, id)
	if idx == -1 {
		return domain.Event{}, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	now := s.opts.now()
	e := fromForm(list[idx], form)
	e.UpdatedAt = now
	e.Status = s.status(e, now)
	list[idx] = e
	if err := s.storage.SaveEvents(ctx, list); err != nil {
		return domain.Event{}, err
	}
	s.log.WithField("event_id", id).Info("event updated")
	return e, nil
}

// Delete is a no-op for unknown ids.
func (s *EventService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListEvents(ctx)
	if err != nil {
		return err
	}
	idx := eventIndex(list, id)
	if idx == -1 {
		return nil
	}
	rest := make([]domain.Event, 0, len(list)-1)
	rest = append(rest, list[:idx]...)
	rest = append(rest, list[idx+1:]...)
	if err := s.storage.SaveEvents(ctx, rest); err != nil {
		return err
	}
	s.log.WithField("event_id", id).Info("event deleted")
	return nil
}

// Active lists upcoming and ongoing events, optionally of one category.
// Placeholder events stand in only while no event has ever been stored.
func (s *EventService) Active(ctx context.Context, category string) ([]domain.Event, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		list = placeholderEvents()
	}
	out := make([]domain.Event, 0, len(list))
	for _, e := range list {
		if !e.Status.Active() {
			continue
		}
		if category != "" && category != "all" && string(e.Category) != category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RefreshStatuses stores freshly derived statuses and reports how many
// events changed.
func (s *EventService) RefreshStatuses(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	now := s.opts.now()
	var changed int
	for i := range list {
		status := s.status(list[i], now)
		if status != list[i].Status {
			list[i].Status = status
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.storage.SaveEvents(ctx, list); err != nil {
		return 0, err
	}
	s.log.WithField("changed", changed).Info("event statuses refreshed")
	return changed, nil
}

func fromForm(e domain.Event, form domain.EventForm) domain.Event {
	e.Title = form.Title
	e.Description = form.Description
	e.Date = form.Date
	e.Time = form.Time
	e.Location = form.Location
	e.Organizer = form.Organizer
	e.ImageURL = form.ImageURL
	e.Category = form.Category
	e.MaxAttendees = form.MaxAttendees
	e.RegistrationRequired = form.RegistrationRequired
	return e
}

func eventIndex(list []domain.Event, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func placeholderEvents() []domain.Event {
	return []domain.Event{
		{
			ID:                   "1",
			Title:                "2024年度校友大会",
			Description:          "年度校友大会，总结过去一年工作，规划未来发展，欢迎各位校友参加。",
			Date:                 "2024-12-15",
			Time:                 "14:00 - 17:00",
			Location:             "海林市高级中学礼堂",
			Organizer:            "校友会",
			Category:             domain.EventMeeting,
			Status:               domain.EventUpcoming,
			RegistrationRequired: true,
		},
		{
			ID:                   "2",
			Title:                "校友篮球友谊赛",
			Description:          "校友篮球友谊赛，增进校友情谊，重温校园时光。",
			Date:                 "2024-11-20",
			Time:                 "09:00 - 12:00",
			Location:             "海林市体育馆",
			Organizer:            "体育部",
			Category:             domain.EventSports,
			Status:               domain.EventCompleted,
			RegistrationRequired: true,
		},
	}
}
