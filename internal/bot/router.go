// internal/bot/router.go
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zinin/hh-job-bot/internal/wizard"
)

// CallbackStartSearch is sent by the button offered after authorization.
const CallbackStartSearch = "start_search"

const msgAuthConfirmed = "✅ Авторизация подтверждена. Начинаем подбор вакансий..."

// MiscRouterHandler defines methods for informational commands
type MiscRouterHandler interface {
	HandleStart(msg *tgbotapi.Message)
	HandleHelp(msg *tgbotapi.Message)
	HandleVersion(msg *tgbotapi.Message)
}

// WizardRouterHandler receives everything addressed to the search wizard
type WizardRouterHandler interface {
	HandleEvent(ctx context.Context, ev wizard.Event)
}

// Replier answers callbacks the wizard does not own
type Replier interface {
	AckCallback(callbackID, text string) error
	SendPlain(chatID int64, text string) error
}

// Router routes messages and callbacks to appropriate handlers
type Router struct {
	misc   MiscRouterHandler
	wizard WizardRouterHandler
	reply  Replier
}

// NewRouter creates a new Router with all handlers
func NewRouter(misc MiscRouterHandler, wizard WizardRouterHandler, reply Replier) *Router {
	return &Router{misc: misc, wizard: wizard, reply: reply}
}

// RouteMessage routes a message to the appropriate handler based on command
func (r *Router) RouteMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		r.misc.HandleStart(msg)
	case "help":
		r.misc.HandleHelp(msg)
	case "version":
		r.misc.HandleVersion(msg)
	case "search":
		r.wizard.HandleEvent(ctx, messageEvent(msg, wizard.EventCommand, wizard.CommandEnter))
	case "cancel":
		r.wizard.HandleEvent(ctx, messageEvent(msg, wizard.EventCommand, wizard.CommandCancel))
	default:
		// Non-command messages go to the wizard as free text
		r.wizard.HandleEvent(ctx, messageEvent(msg, wizard.EventText, wizard.CommandNone))
	}
}

// RouteCallback routes a callback query to the appropriate handler
func (r *Router) RouteCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	ev := wizard.Event{
		UserID:     callbackUserID(cb),
		ChatID:     callbackChatID(cb),
		Kind:       wizard.EventSelection,
		Data:       cb.Data,
		CallbackID: cb.ID,
	}

	if cb.Data == CallbackStartSearch {
		if r.reply != nil {
			r.reply.AckCallback(cb.ID, "")
			r.reply.SendPlain(ev.ChatID, msgAuthConfirmed)
		}
		ev.Kind = wizard.EventCommand
		ev.Command = wizard.CommandRestart
		ev.Data = ""
		ev.CallbackID = ""
	}
	r.wizard.HandleEvent(ctx, ev)
}

func messageEvent(msg *tgbotapi.Message, kind wizard.EventKind, cmd wizard.Command) wizard.Event {
	ev := wizard.Event{
		ChatID:  msg.Chat.ID,
		Kind:    kind,
		Command: cmd,
		Text:    msg.Text,
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
	}
	return ev
}

func callbackUserID(cb *tgbotapi.CallbackQuery) int64 {
	if cb.From == nil {
		return 0
	}
	return cb.From.ID
}

// callbackChatID falls back to the user id: private chats share it.
// cb.Message is nil for inline-mode callbacks.
func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	return callbackUserID(cb)
}
