package kvstore

import (
	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/internal/domain"
)

func sanitizeUser(u users.User) users.User {
	switch u.Role {
	case users.RoleAdmin, users.RoleAlumni, users.RolePending:
	default:
		u.Role = users.RolePending
	}
	switch u.Status {
	case users.StatusActive, users.StatusInactive:
	default:
		u.Status = users.StatusActive
	}
	return u
}

func sanitizeUsers(list []users.User) []users.User {
	out := make([]users.User, 0, len(list))
	for _, u := range list {
		if u.ID == "" {
			continue
		}
		out = append(out, sanitizeUser(u))
	}
	return out
}

func sanitizeNews(list []domain.News) []domain.News {
	out := make([]domain.News, 0, len(list))
	for _, n := range list {
		if n.ID == "" {
			continue
		}
		if n.Status != domain.NewsPublished && n.Status != domain.NewsDraft {
			n.Status = domain.NewsDraft
		}
		if !n.Category.Valid() {
			n.Category = domain.NewsGeneral
		}
		out = append(out, n)
	}
	return out
}

func sanitizeEvents(list []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(list))
	for _, e := range list {
		if e.ID == "" {
			continue
		}
		if e.CurrentAttendees < 0 {
			e.CurrentAttendees = 0
		}
		if !e.Category.Valid() {
			e.Category = ""
		}
		out = append(out, e)
	}
	return out
}
