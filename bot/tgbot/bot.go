package tgbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/bot/botstorage"
	botmodel "github.com/hailinhs/alumnisite/bot/model"
	"github.com/hailinhs/alumnisite/internal/config"
)

var ErrBadRequest = errors.New("未知命令，发送 /help 查看可用命令")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender

	botStorage botstorage.BotStorage
	log        *logrus.Entry
	admins     mapset.Set[int64]
	subs       *subscriptions
	commands   *Commands

	// cancel func to stop the bot
	mu     sync.Mutex
	cancel func()
}

var _ Notifier = (*Bot)(nil)

func New(ctx context.Context, cfg config.Config, bs botstorage.BotStorage, pending PendingLister, l *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TgBot.TelegramApiToken)
	if err != nil {
		return nil, fmt.Errorf("telegram api token: %w", err)
	}
	api.Debug = cfg.Server.Debug
	b, err := newBot(ctx, api, cfg.TgBot.AdminChatIDs, bs, pending, l)
	if err != nil {
		return nil, err
	}
	b.api = api
	b.log.WithField("bot", api.Self.UserName).Info("telegram bot authorized")
	return b, nil
}

// newBot restores subscriptions. Admin chats the bot has never seen start
// subscribed to everything.
func newBot(ctx context.Context, s sender, adminIDs []int64, bs botstorage.BotStorage, pending PendingLister, l *logrus.Logger) (*Bot, error) {
	b := &Bot{
		sender:     s,
		botStorage: bs,
		log:        l.WithField("from", "tg_bot"),
		admins:     mapset.NewSet[int64](adminIDs...),
		subs:       newSubs(),
	}
	for _, id := range adminIDs {
		_, err := bs.GetUser(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, botstorage.ErrNotFound) {
			return nil, err
		}
		err = bs.SaveUser(ctx, botmodel.User{
			ID:        id,
			CreatedAt: time.Now(),
			Subs:      botmodel.EventTypes,
		})
		if err != nil {
			return nil, err
		}
	}
	list, err := bs.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		// only admins receive site notifications
		if !b.admins.Contains(list[i].ID) {
			continue
		}
		for _, t := range list[i].Subs {
			b.subs.Add(t, list[i].ID)
		}
	}
	b.commands = NewCommands(bs, b.subs, pending)
	return b, nil
}

// Run polls Telegram until ctx is done or Stop is called.
func (b *Bot) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleMessage(ctx, update)
		}
	}
}

func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bot) role(chatID int64) botmodel.UserRole {
	if b.admins.Contains(chatID) {
		return botmodel.RoleAdmin
	}
	return botmodel.RoleGuest
}

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	tgUser := update.SentFrom()
	if tgUser == nil {
		return
	}
	log := b.log.WithFields(logrus.Fields{
		"user_id": tgUser.ID,
		"text":    update.Message.Text,
	})
	user, err := b.botStorage.GetUser(ctx, tgUser.ID)
	if err != nil {
		user = botmodel.User{
			ID:        tgUser.ID,
			FirstName: tgUser.FirstName,
			Username:  tgUser.UserName,
			CreatedAt: time.Now(),
		}
		if err := b.botStorage.SaveUser(ctx, user); err != nil {
			log.WithError(err).Error("unable to save bot user")
			return
		}
	}
	user.Role = b.role(user.ID)

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	err = b.commands.RunCommand(ctx, user, update.Message.Command(), update.Message.CommandArguments(), &msg)
	if err != nil {
		msg.Text = err.Error()
	}
	if _, err := b.sender.Send(msg); err != nil {
		log.WithError(err).Error("send error")
	}
}

// Notify sends text to every admin chat subscribed to kind.
func (b *Bot) Notify(_ context.Context, kind botmodel.EventType, text string) error {
	var errs error
	for _, chatID := range b.subs.GetChatIDs(kind) {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := b.sender.Send(msg); err != nil {
			errs = errors.Join(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errs
}
