package service

import (
	"context"

	"github.com/hailinhs/alumnisite/internal/domain"
)

const homeItems = 3

type Home struct {
	News        []domain.News  `json:"news"`
	Events      []domain.Event `json:"events"`
	AlumniCount int            `json:"alumniCount"`
	NewsCount   int            `json:"newsCount"`
	EventCount  int            `json:"eventCount"`
}

type HomeService struct {
	news      *NewsService
	events    *EventService
	directory *DirectoryService
}

func NewHomeService(news *NewsService, events *EventService, directory *DirectoryService) *HomeService {
	return &HomeService{
		news:      news,
		events:    events,
		directory: directory,
	}
}

func (s *HomeService) Get(ctx context.Context) (Home, error) {
	news, err := s.news.Published(ctx, "")
	if err != nil {
		return Home{}, err
	}
	events, err := s.events.Active(ctx, "")
	if err != nil {
		return Home{}, err
	}
	h := Home{
		NewsCount:   len(news),
		EventCount:  len(events),
		AlumniCount: s.directory.Count(),
	}
	h.News = news[:min(homeItems, len(news))]
	h.Events = events[:min(homeItems, len(events))]
	return h, nil
}
