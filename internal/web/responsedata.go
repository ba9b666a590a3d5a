package web

import (
	"errors"

	"github.com/hailinhs/alumnisite/auth/users"
)

type data struct {
	Session *users.Session `json:"session,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func newData() data {
	return data{
		Data: make(map[string]any),
	}
}

func (m data) WithSession(session users.Session) data {
	m.Session = &session
	return m
}

func (m data) With(key string, value any) data {
	if m.Data == nil {
		m.Data = make(map[string]any)
	}
	m.Data[key] = value
	return m
}

type multierr interface {
	Unwrap() []error
}

func unwrap(err error) []error {
	var merr multierr
	if errors.As(err, &merr) {
		var errs []error
		for _, err := range merr.Unwrap() {
			errs = append(errs, unwrap(err)...)
		}
		return errs
	}
	return []error{err}
}

func (m data) WithErrors(err error) data {
	for _, err := range unwrap(err) {
		m.Errors = append(m.Errors, err.Error())
	}
	return m
}
