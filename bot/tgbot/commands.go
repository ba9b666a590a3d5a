package tgbot

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hailinhs/alumnisite/auth/users"
	"github.com/hailinhs/alumnisite/bot/botstorage"
	"github.com/hailinhs/alumnisite/bot/model"
)

type Command interface {
	Run(ctx context.Context, user model.User, args string, resp *tgbotapi.MessageConfig) error
	Help() string
	Permission() mapset.Set[model.UserRole]
	Visibility() mapset.Set[model.UserRole]
}

type PendingLister interface {
	ListPending(ctx context.Context) ([]users.User, error)
}

type Commands struct {
	list map[string]Command
}

func NewCommands(bs botstorage.BotStorage, subs *subscriptions, pending PendingLister) *Commands {
	hc := &HelpCommand{}
	uc := Commands{
		list: map[string]Command{
			"help":  hc,
			"start": hc,
			"sub": &SubCommand{
				botStorage: bs,
				subs:       subs,
			},
			"unsub": &UnsubCommand{
				botStorage: bs,
				subs:       subs,
			},
			"pending": &PendingCommand{
				pending: pending,
			},
		},
	}
	hc.commands = uc.list
	return &uc
}

func (uc *Commands) RunCommand(ctx context.Context, user model.User, cmd string, args string, resp *tgbotapi.MessageConfig) error {
	command, ok := uc.list[cmd]
	if !ok || !command.Permission().Contains(user.Role) {
		return ErrBadRequest
	}
	return command.Run(ctx, user, args, resp)
}

func sortedNames(list map[string]Command) []string {
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func everyone() mapset.Set[model.UserRole] {
	return mapset.NewSet[model.UserRole](model.RoleAdmin, model.RoleGuest)
}

func adminsOnly() mapset.Set[model.UserRole] {
	return mapset.NewSet[model.UserRole](model.RoleAdmin)
}
