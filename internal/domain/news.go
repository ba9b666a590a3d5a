package domain

import "time"

type NewsStatus string

const (
	NewsPublished NewsStatus = "published"
	NewsDraft     NewsStatus = "draft"
)

type NewsCategory string

const (
	NewsGeneral NewsCategory = "general"
	NewsAlumni  NewsCategory = "alumni"
	NewsSchool  NewsCategory = "school"
	NewsEvent   NewsCategory = "event"
)

var NewsCategories = []NewsCategory{NewsGeneral, NewsAlumni, NewsSchool, NewsEvent}

func (c NewsCategory) Valid() bool {
	for _, known := range NewsCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c NewsCategory) Label() string {
	switch c {
	case NewsGeneral:
		return "一般新闻"
	case NewsAlumni:
		return "校友动态"
	case NewsSchool:
		return "学校新闻"
	case NewsEvent:
		return "活动通知"
	}
	return string(c)
}

type News struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Author      string       `json:"author"`
	PublishDate time.Time    `json:"publishDate"`
	Category    NewsCategory `json:"category"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Status      NewsStatus   `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type NewsForm struct {
	Title    string
	Content  string
	Category NewsCategory
	ImageURL string
}
