package model

import "time"

type EventType string

const (
	EventRegistration EventType = "registration"
	EventContact      EventType = "contact"
)

var EventTypes = []EventType{EventRegistration, EventContact}

func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type UserRole int

const (
	RoleAdmin UserRole = iota + 1
	RoleGuest
)

// User is a Telegram chat talking to the bot.
type User struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	Username  string      `json:"username"`
	CreatedAt time.Time   `json:"createdAt"`
	Role      UserRole    `json:"-"`
	Subs      []EventType `json:"subscriptions"`
}
