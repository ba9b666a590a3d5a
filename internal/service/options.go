package service

import (
	"strconv"
	"sync"
	"time"

	"github.com/hailinhs/alumnisite/auth/users"
)

// SessionReader exposes the signed-in user to content services.
type SessionReader interface {
	Current() users.Session
}

type Option func(*options)

type options struct {
	now func() time.Time
	loc *time.Location
}

func defaultOptions() options {
	return options{
		now: time.Now,
		loc: time.Local,
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation sets the zone event dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// idGenerator hands out unix-millisecond ids that never repeat within the
// process, even when the clock stalls or goes back.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return strconv.FormatInt(id, 10)
}
