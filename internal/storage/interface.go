package storage

import (
	"context"
	"errors"

	"github.com/hailinhs/alumnisite/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Every Save* replaces the whole collection.

type NewsStorage interface {
	ListNews(ctx context.Context) ([]domain.News, error)
	SaveNews(ctx context.Context, list []domain.News) error
}

type EventStorage interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	SaveEvents(ctx context.Context, list []domain.Event) error
}

type ContactStorage interface {
	ListMessages(ctx context.Context) ([]domain.ContactMessage, error)
	SaveMessages(ctx context.Context, list []domain.ContactMessage) error
}
