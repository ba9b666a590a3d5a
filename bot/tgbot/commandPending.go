package tgbot

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hailinhs/alumnisite/bot/model"
)

type PendingCommand struct {
	pending PendingLister
}

func (c *PendingCommand) Run(ctx context.Context, _ model.User, _ string, resp *tgbotapi.MessageConfig) error {
	list, err := c.pending.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		resp.Text = "暂无待审核的校友申请"
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "待审核校友申请（%d）：\n", len(list))
	for _, u := range list {
		fmt.Fprintf(&b, "%s %s %d届 %s\n", u.Name, u.Email, u.GraduationYear, u.CreatedAt.Format("2006-01-02"))
	}
	resp.Text = strings.TrimRight(b.String(), "\n")
	return nil
}

func (c *PendingCommand) Help() string {
	return "查看待审核的校友申请"
}

func (c *PendingCommand) Permission() mapset.Set[model.UserRole] {
	return adminsOnly()
}

func (c *PendingCommand) Visibility() mapset.Set[model.UserRole] {
	return adminsOnly()
}
