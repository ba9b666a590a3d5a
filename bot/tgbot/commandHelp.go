package tgbot

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hailinhs/alumnisite/bot/model"
)

type HelpCommand struct {
	commands map[string]Command
}

func (c *HelpCommand) Run(_ context.Context, user model.User, args string, resp *tgbotapi.MessageConfig) error {
	args = strings.TrimPrefix(strings.TrimSpace(args), "/")
	if command, ok := c.commands[args]; ok && command.Visibility().Contains(user.Role) {
		resp.Text = command.Help()
		return nil
	}
	var b strings.Builder
	b.WriteString("可用命令：\n")
	for _, name := range sortedNames(c.commands) {
		if name == "start" || !c.commands[name].Visibility().Contains(user.Role) {
			continue
		}
		b.WriteString("/")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("查看命令说明：/help 命令名")
	resp.Text = b.String()
	return nil
}

func (c *HelpCommand) Help() string {
	return "列出可用命令"
}

func (c *HelpCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *HelpCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}
