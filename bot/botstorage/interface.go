package botstorage

import (
	"context"
	"errors"

	"github.com/hailinhs/alumnisite/bot/model"
)

var ErrNotFound = errors.New("bot user not found")

type BotStorage interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	SaveUser(ctx context.Context, user model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
}
