package domain

import "time"

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	// EventCancelled is part of the enumeration but nothing sets it.
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Active() bool {
	return s == EventUpcoming || s == EventOngoing
}

type EventCategory string

const (
	EventMeeting  EventCategory = "meeting"
	EventSports   EventCategory = "sports"
	EventVisit    EventCategory = "visit"
	EventCeremony EventCategory = "ceremony"
	EventLecture  EventCategory = "lecture"
	EventSocial   EventCategory = "social"
)

var EventCategories = []EventCategory{EventMeeting, EventSports, EventVisit, EventCeremony, EventLecture, EventSocial}

func (c EventCategory) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range EventCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Event struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Date                 string        `json:"date"`
	Time                 string        `json:"time"`
	Location             string        `json:"location"`
	Organizer            string        `json:"organizer"`
	ImageURL             string        `json:"imageUrl,omitempty"`
	Category             EventCategory `json:"category,omitempty"`
	MaxAttendees         *int          `json:"maxAttendees,omitempty"`
	CurrentAttendees     int           `json:"currentAttendees"`
	Status               EventStatus   `json:"status"`
	RegistrationRequired bool          `json:"registrationRequired"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

type EventForm struct {
	Title                string
	Description          string
	Date                 string
	Time                 string
	Location             string
	Organizer            string
	ImageURL             string
	Category             EventCategory
	MaxAttendees         *int
	RegistrationRequired bool
}
