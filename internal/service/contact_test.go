package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	botmodel "github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/kv/mem"
	"github.com/hailinhs/alumnisite/internal/logger"
	"github.com/hailinhs/alumnisite/internal/storage/kvstore"
)

type recordingNotifier struct {
	kinds []botmodel.EventType
	texts []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, kind botmodel.EventType, text string) error {
	r.kinds = append(r.kinds, kind)
	r.texts = append(r.texts, text)
	return r.err
}

func TestContactService_Submit(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := &recordingNotifier{}
	svc := NewContactService(kvstore.New(mem.New(), logger.Discard()), n, logger.Discard(),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	msg, err := svc.Submit(ctx, domain.ContactMessage{
		Name:    " 李雷 ",
		Email:   "li@x.com",
		Subject: "捐赠",
		Message: "想为图书馆捐书",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, now, msg.CreatedAt)
	assert.Equal(t, "李雷", msg.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, msg.ID, list[0].ID)

	require.Len(t, n.kinds, 1)
	assert.Equal(t, botmodel.EventContact, n.kinds[0])
	assert.Contains(t, n.texts[0], "捐赠")
}

func TestContactService_NotifierFailure(t *testing.T) {
	svc := NewContactService(kvstore.New(mem.New(), logger.Discard()), &recordingNotifier{err: errors.New("down")}, logger.Discard())
	_, err := svc.Submit(context.Background(), domain.ContactMessage{Name: "x", Email: "x@x.com", Subject: "s", Message: "m"})
	require.NoError(t, err)
}

func TestHomeService_Get(t *testing.T) {
	ctx := context.Background()
	st := kvstore.New(mem.New(), logger.Discard())
	c := &clock{t: time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)}
	news := NewNewsService(st, nil, logger.Discard(), WithClock(c.now))
	events := NewEventService(st, logger.Discard(), WithClock(c.now), WithLocation(time.UTC))
	home := NewHomeService(news, events, NewDirectoryService(directoryFixture()))

	for i := 0; i < 5; i++ {
		c.advance(time.Minute)
		_, err := news.Create(ctx, sampleNews("n"))
		require.NoError(t, err)
		_, err = events.Create(ctx, eventForm("2024-12-20", ""))
		require.NoError(t, err)
	}

	h, err := home.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, h.News, 3)
	assert.Len(t, h.Events, 3)
	assert.Equal(t, 5, h.NewsCount)
	assert.Equal(t, 5, h.EventCount)
	assert.Equal(t, 4, h.AlumniCount)
	assert.True(t, h.News[0].PublishDate.After(h.News[1].PublishDate))
}
