package web

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/internal/domain"
)

var (
	ErrPasswordMismatch = errors.New("密码确认不一致！")
	ErrNoGraduationYear = errors.New("请选择毕业年份")
)

// invalidInput carries every problem found in one request.
type invalidInput struct {
	errs []error
}

func (e *invalidInput) Error() string {
	return errors.Join(e.errs...).Error()
}

func (e *invalidInput) Unwrap() []error {
	return e.errs
}

// fieldMessages overrides the generic message for a field and tag.
var fieldMessages = map[string]error{
	"confirmPassword.eqfield": ErrPasswordMismatch,
	"graduationYear.required": ErrNoGraduationYear,
	"graduationYear.gte":      ErrNoGraduationYear,
	"email.email":             errors.New("邮箱格式不正确"),
	"date.datetime":           errors.New("日期格式应为 YYYY-MM-DD"),
	"category.oneof":          errors.New("分类无效"),
	"imageUrl.url":            errors.New("图片地址无效"),
	"maxAttendees.gte":        errors.New("人数上限必须大于0"),
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validate(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &invalidInput{}
	seen := make(map[string]bool)
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Errorf("字段 %s 无效（%s）", fe.Field(), fe.Tag())
		}
		if seen[msg.Error()] {
			continue
		}
		seen[msg.Error()] = true
		out.errs = append(out.errs, msg)
	}
	return out
}

type signInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type signUpRequest struct {
	Name            string `json:"name" form:"name" validate:"required,max=64"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"eqfield=Password"`
	GraduationYear  int    `json:"graduationYear" form:"graduationYear" validate:"required,gte=1900,lte=2100"`
	Phone           string `json:"phone" form:"phone" validate:"omitempty,max=32"`
}

func (r signUpRequest) toRegisterData() users.RegisterData {
	return users.RegisterData{
		Name:           r.Name,
		Email:          r.Email,
		Password:       r.Password,
		GraduationYear: r.GraduationYear,
		Phone:          r.Phone,
	}
}

type newsRequest struct {
	Title    string `json:"title" form:"title" validate:"required,max=200"`
	Content  string `json:"content" form:"content" validate:"required"`
	Category string `json:"category" form:"category" validate:"required,oneof=general alumni school event"`
	ImageURL string `json:"imageUrl" form:"imageUrl" validate:"omitempty,url"`
}

func (r newsRequest) toForm() domain.NewsForm {
	return domain.NewsForm{
		Title:    r.Title,
		Content:  r.Content,
		Category: domain.NewsCategory(r.Category),
		ImageURL: r.ImageURL,
	}
}

type eventRequest struct {
	Title                string `json:"title" form:"title" validate:"required,max=200"`
	Description          string `json:"description" form:"description"`
	Date                 string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Time                 string `json:"time" form:"time" validate:"required"`
	Location             string `json:"location" form:"location" validate:"required"`
	Organizer            string `json:"organizer" form:"organizer"`
	ImageURL             string `json:"imageUrl" form:"imageUrl" validate:"omitempty,url"`
	Category             string `json:"category" form:"category" validate:"omitempty,oneof=meeting sports visit ceremony lecture social"`
	MaxAttendees         *int   `json:"maxAttendees" form:"maxAttendees" validate:"omitempty,gte=1"`
	RegistrationRequired bool   `json:"registrationRequired" form:"registrationRequired"`
}

func (r eventRequest) toForm() domain.EventForm {
	return domain.EventForm{
		Title:                r.Title,
		Description:          r.Description,
		Date:                 r.Date,
		Time:                 r.Time,
		Location:             r.Location,
		Organizer:            r.Organizer,
		ImageURL:             r.ImageURL,
		Category:             domain.EventCategory(r.Category),
		MaxAttendees:         r.MaxAttendees,
		RegistrationRequired: r.RegistrationRequired,
	}
}

type contactRequest struct {
	Name           string `json:"name" form:"name" validate:"required,max=64"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	Phone          string `json:"phone" form:"phone" validate:"omitempty,max=32"`
	Subject        string `json:"subject" form:"subject" validate:"required,max=200"`
	Message        string `json:"message" form:"message" validate:"required"`
	GraduationYear int    `json:"graduationYear" form:"graduationYear" validate:"omitempty,gte=1900,lte=2100"`
}

func (r contactRequest) toMessage() domain.ContactMessage {
	return domain.ContactMessage{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Subject:        r.Subject,
		Message:        r.Message,
		GraduationYear: r.GraduationYear,
	}
}
