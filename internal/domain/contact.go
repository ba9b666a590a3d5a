package domain

import "time"

type ContactMessage struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
