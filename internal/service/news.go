package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/storage"
)

const defaultAuthor = "管理员"

type NewsService struct {
	storage storage.NewsStorage
	session SessionReader
	ids     *idGenerator
	opts    options
	log     *logrus.Entry

	mu sync.Mutex
}

func NewNewsService(st storage.NewsStorage, session SessionReader, l *logrus.Logger, opts ...Option) *NewsService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &NewsService{
		storage: st,
		session: session,
		ids:     &idGenerator{now: o.now},
		opts:    o,
		log:     l.WithField("from", "news"),
	}
}

func (s *NewsService) List(ctx context.Context) ([]domain.News, error) {
	return s.storage.ListNews(ctx)
}

func (s *NewsService) Get(ctx context.Context, id string) (domain.News, error) {
	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return domain.News{}, err
	}
	for _, n := range list {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.News{}, fmt.Errorf("news %s: %w", id, storage.ErrNotFound)
}

func (s *NewsService) author() string {
	if s.session == nil {
		return defaultAuthor
	}
	session := s.session.Current()
	if !session.Authenticated || strings.TrimSpace(session.User.Name) == "" {
		return defaultAuthor
	}
	return session.User.Name
}

// Create publishes a new item immediately.
func (s *NewsService) Create(ctx context.Context, form domain.NewsForm) (domain.News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return domain.News{}, err
	}
	now := s.opts.now()
	n := domain.News{
		ID:          s.ids.next(),
		Title:       form.Title,
		Content:     form.Content,
		Author:      s.author(),
		PublishDate: now,
		Category:    form.Category,
		ImageURL:    form.ImageURL,
		Status:      domain.NewsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.SaveNews(ctx, append(list, n)); err != nil {
		return domain.News{}, err
	}
	s.log.WithField("news_id", n.ID).Info("news created")
	return n, nil
}

// Update rewrites the item in place. Saving an edit publishes it again with a
// fresh publish date.
func (s *NewsService) Update(ctx context.Context, id string, form domain.NewsForm) (domain.News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return domain.News{}, err
	}
	idx := newsIndex(list, id)
	if idx == -1 {
		return domain.News{}, fmt.Errorf("news %s: %w", id, storage.ErrNotFound)
	}
	now := s.opts.now()
	n := list[idx]
	n.Title = form.Title
	n.Content = form.Content
	n.Category = form.Category
	n.ImageURL = form.ImageURL
	n.Status = domain.NewsPublished
	n.PublishDate = now
	n.UpdatedAt = now
	list[idx] = n
	if err := s.storage.SaveNews(ctx, list); err != nil {
		return domain.News{}, err
	}
	s.log.WithField("news_id", id).Info("news updated")
	return n, nil
}

func (s *NewsService) ToggleStatus(ctx context.Context, id string) (domain.News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return domain.News{}, err
	}
	idx := newsIndex(list, id)
	if idx == -1 {
		return domain.News{}, fmt.Errorf("news %s: %w", id, storage.ErrNotFound)
	}
	if list[idx].Status == domain.NewsPublished {
		list[idx].Status = domain.NewsDraft
	} else {
		list[idx].Status = domain.NewsPublished
	}
	if err := s.storage.SaveNews(ctx, list); err != nil {
		return domain.News{}, err
	}
	return list[idx], nil
}

// Delete is a no-op for unknown ids.
func (s *NewsService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return err
	}
	idx := newsIndex(list, id)
	if idx == -1 {
		return nil
	}
	rest := make([]domain.News, 0, len(list)-1)
	rest = append(rest, list[:idx]...)
	rest = append(rest, list[idx+1:]...)
	if err := s.storage.SaveNews(ctx, rest); err != nil {
		return err
	}
	s.log.WithField("news_id", id).Info("news deleted")
	return nil
}

// Published lists published news, newest first. An empty or "all" category
// matches everything. When nothing matches, placeholder news is returned.
func (s *NewsService) Published(ctx context.Context, category string) ([]domain.News, error) {
	list, err := s.storage.ListNews(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.News, 0, len(list))
	for _, n := range list {
		if n.Status != domain.NewsPublished {
			continue
		}
		if category != "" && category != "all" && string(n.Category) != category {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return placeholderNews(), nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishDate.After(out[j].PublishDate)
	})
	return out, nil
}

func newsIndex(list []domain.News, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func placeholderNews() []domain.News {
	day := func(m time.Month, d int) time.Time {
		return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []domain.News{
		{
			ID:          "1",
			Title:       "2024年度校友大会圆满举行",
			Content:     "来自全国各地的200余名校友齐聚母校，共同庆祝海林市高级中学建校66周年。大会回顾了过去一年的工作成果，并制定了新一年的发展计划。",
			Author:      "校友会秘书处",
			PublishDate: day(time.December, 15),
			Category:    domain.NewsAlumni,
			Status:      domain.NewsPublished,
			CreatedAt:   day(time.December, 15),
			UpdatedAt:   day(time.December, 15),
		},
		{
			ID:          "2",
			Title:       "校友捐赠图书馆改造项目启动",
			Content:     "由85届校友发起，筹集资金200万元用于图书馆现代化改造。项目将全面提升图书馆的硬件设施和数字化水平。",
			Author:      "发展委员会",
			PublishDate: day(time.November, 20),
			Category:    domain.NewsEvent,
			Status:      domain.NewsPublished,
			CreatedAt:   day(time.November, 20),
			UpdatedAt:   day(time.November, 20),
		},
	}
}
