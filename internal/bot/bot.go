// internal/bot/bot.go
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zinin/hh-job-bot/internal/telegram"
)

const msgAccessDenied = "Доступ запрещён"

// API is the subset of tgbotapi.BotAPI the polling loop needs
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the main Telegram bot struct with DI
type Bot struct {
	api    API
	auth   *Auth
	router *Router
	sender telegram.MessageSender
	serial *serializer
	// pollTimeout is the long-polling timeout in seconds
	pollTimeout int
}

// Option configures the Bot.
type Option func(*Bot)

// WithAllowedUsers restricts the bot to the given usernames.
func WithAllowedUsers(users []string) Option {
	return func(b *Bot) {
		b.auth = NewAuth(users)
	}
}

// WithPollTimeout overrides the long-polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(b *Bot) {
		b.pollTimeout = seconds
	}
}

// New creates a Bot. Without WithAllowedUsers the bot is public.
func New(api API, sender telegram.MessageSender, misc MiscRouterHandler, wizard WizardRouterHandler, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		auth:        NewAuth(nil),
		router:      NewRouter(misc, wizard, sender),
		sender:      sender,
		serial:      newSerializer(),
		pollTimeout: 60,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterCommands registers bot commands with Telegram
func (b *Bot) RegisterCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу и авторизоваться"},
		{Command: "search", Description: "Новый поиск вакансий"},
		{Command: "cancel", Description: "Прервать текущий поиск"},
		{Command: "help", Description: "Помощь"},
		{Command: "version", Description: "Версия бота"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}

	slog.Info("Registered bot commands", "count", len(commands))
	return nil
}

// Run processes updates until ctx is cancelled, then waits for in-flight handlers.
// Events of one user are handled in arrival order; users proceed independently.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	// Handlers outlive ctx so a started search is delivered on shutdown
	handlerCtx := context.WithoutCancel(ctx)

	slog.Info("Bot started, waiting for messages", "public", b.auth.Public())

	defer func() {
		b.serial.Wait()
		slog.Info("All handlers finished")
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				slog.Warn("Updates channel closed, stopping bot")
				return
			}
			b.handleUpdate(handlerCtx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if msg := update.Message; msg != nil {
		if msg.Chat == nil {
			return
		}
		var userID int64
		var username string
		if msg.From != nil {
			userID = msg.From.ID
			username = msg.From.UserName
		} else if !b.auth.Public() {
			// Channel posts and service messages on a restricted bot
			return
		}
		if !b.auth.IsAuthorized(username) {
			slog.Warn("Unauthorized access attempt", "username", username, "user_id", userID)
			b.sender.SendPlain(msg.Chat.ID, msgAccessDenied)
			return
		}
		slog.Info("Message received", "user_id", userID, "username", username, "content", sanitizeLogMessage(msg))
		b.serial.Submit(userID, func() { b.router.RouteMessage(ctx, msg) })
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil {
			b.sender.AckCallback(cb.ID, "")
			return
		}
		username := cb.From.UserName
		if !b.auth.IsAuthorized(username) {
			slog.Warn("Unauthorized callback", "username", username, "user_id", cb.From.ID)
			b.sender.AckCallback(cb.ID, msgAccessDenied)
			return
		}
		slog.Info("Callback received", "user_id", cb.From.ID, "username", username, "data", cb.Data)
		b.serial.Submit(cb.From.ID, func() { b.router.RouteCallback(ctx, cb) })
	}
}

// sanitizeLogMessage returns a safe-to-log representation of the message.
// Free text (keywords, cover letters) is reduced to its length.
func sanitizeLogMessage(msg *tgbotapi.Message) string {
	if msg.IsCommand() {
		return "/" + msg.Command()
	}
	return fmt.Sprintf("[text, %d chars]", len([]rune(msg.Text)))
}

// Sender returns the message sender.
func (b *Bot) Sender() telegram.MessageSender {
	return b.sender
}
