package tgbot

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hailinhs/alumnisite/bot/botstorage"
	"github.com/hailinhs/alumnisite/bot/model"
)

// parseTypes reads "/sub registration contact"; no arguments means every type.
func parseTypes(args string) ([]model.EventType, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return model.EventTypes, nil
	}
	out := make([]model.EventType, 0, len(fields))
	for _, f := range fields {
		t, ok := model.ParseEventType(strings.ToLower(f))
		if !ok {
			return nil, fmt.Errorf("未知的通知类型：%s", f)
		}
		out = append(out, t)
	}
	return out, nil
}

func typeNames(types []model.EventType) string {
	if len(types) == 0 {
		return "无"
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

type SubCommand struct {
	botStorage botstorage.BotStorage
	subs       *subscriptions
}

func (c *SubCommand) Run(ctx context.Context, user model.User, args string, resp *tgbotapi.MessageConfig) error {
	types, err := parseTypes(args)
	if err != nil {
		return err
	}
	for _, t := range types {
		c.subs.Add(t, user.ID)
	}
	user.Subs = c.subs.Of(user.ID)
	if err := c.botStorage.SaveUser(ctx, user); err != nil {
		return err
	}
	resp.Text = "已订阅：" + typeNames(user.Subs) + "\n取消订阅：/unsub"
	return nil
}

func (c *SubCommand) Help() string {
	return "订阅通知：/sub [registration|contact]，不带参数订阅全部"
}

func (c *SubCommand) Permission() mapset.Set[model.UserRole] {
	return adminsOnly()
}

func (c *SubCommand) Visibility() mapset.Set[model.UserRole] {
	return adminsOnly()
}

type UnsubCommand struct {
	botStorage botstorage.BotStorage
	subs       *subscriptions
}

func (c *UnsubCommand) Run(ctx context.Context, user model.User, args string, resp *tgbotapi.MessageConfig) error {
	types, err := parseTypes(args)
	if err != nil {
		return err
	}
	for _, t := range types {
		c.subs.Remove(t, user.ID)
	}
	user.Subs = c.subs.Of(user.ID)
	if err := c.botStorage.SaveUser(ctx, user); err != nil {
		return err
	}
	resp.Text = "当前订阅：" + typeNames(user.Subs) + "\n重新订阅：/sub"
	return nil
}

func (c *UnsubCommand) Help() string {
	return "取消订阅：/unsub [registration|contact]，不带参数取消全部"
}

func (c *UnsubCommand) Permission() mapset.Set[model.UserRole] {
	return adminsOnly()
}

func (c *UnsubCommand) Visibility() mapset.Set[model.UserRole] {
	return adminsOnly()
}
