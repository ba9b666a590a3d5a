package tgbot

import (
	"context"
	"sync"

	botmodel "github.com/hailinhs/alumnisite/bot/model"
)

// Notifier tells site admins about things that need their attention.
type Notifier interface {
	Notify(ctx context.Context, kind botmodel.EventType, text string) error
}

// Nop is used when the Telegram bot is disabled.
type Nop struct{}

func (Nop) Notify(context.Context, botmodel.EventType, string) error {
	return nil
}

// Relay forwards to a notifier attached after construction. The bot needs the
// auth service to answer /pending, and the auth service needs a notifier, so
// one of them has to be wired late. Until Attach is called Relay drops
// messages.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
}

func (r *Relay) Attach(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = n
}

func (r *Relay) Notify(ctx context.Context, kind botmodel.EventType, text string) error {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return nil
	}
	return target.Notify(ctx, kind, text)
}
