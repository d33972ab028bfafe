// internal/handler/misc.go
package handler

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zinin/hh-job-bot/internal/telegram"
)

const (
	defaultFirstName = "друг"
	authButtonText   = "🚀 Авторизоваться на hh.ru"
)

const helpText = `🤖 *Помощь по боту:*

/start \- Начать работу с ботом
/search \- Начать новый поиск вакансий
/cancel \- Прервать текущий поиск
/help \- Показать это сообщение
/version \- Версия бота

После авторизации вы сможете искать вакансии по вашему резюме с HH\.ru\.`

// MiscHandler handles miscellaneous commands
type MiscHandler struct {
	deps *Deps
}

// NewMiscHandler creates a new MiscHandler
func NewMiscHandler(deps *Deps) *MiscHandler {
	return &MiscHandler{deps: deps}
}

// HandleStart greets the user and offers the hh.ru authorization link
func (h *MiscHandler) HandleStart(msg *tgbotapi.Message) {
	firstName := defaultFirstName
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
		if msg.From.FirstName != "" {
			firstName = msg.From.FirstName
		}
	}

	text := "👋 *Привет, " + telegram.EscapeMarkdownV2(firstName) + "\\!*\n\n" +
		"Для начала работы — авторизуйся через hh\\.ru:"

	if userID == 0 || h.deps.AuthURL == nil {
		slog.Warn("Cannot build auth link", "chat_id", msg.Chat.ID)
		h.deps.Sender.Send(msg.Chat.ID, text)
		return
	}

	kb := telegram.NewKeyboard().URLButton(authButtonText, h.deps.AuthURL(userID)).Build()
	h.deps.Sender.SendWithKeyboard(msg.Chat.ID, text, kb)
}

// HandleHelp handles /help command
func (h *MiscHandler) HandleHelp(msg *tgbotapi.Message) {
	h.deps.Sender.Send(msg.Chat.ID, helpText)
}

// HandleVersion handles /version command
func (h *MiscHandler) HandleVersion(msg *tgbotapi.Message) {
	h.deps.Sender.Send(msg.Chat.ID, telegram.EscapeMarkdownV2(h.versionString()))
}

func (h *MiscHandler) versionString() string {
	v := h.deps.VersionFull
	if v == "" {
		v = h.deps.Version
	}
	if v == "" {
		v = "dev"
	}
	switch {
	case h.deps.Commit != "" && h.deps.BuildDate != "":
		v += " (" + h.deps.Commit + ", " + h.deps.BuildDate + ")"
	case h.deps.Commit != "":
		v += " (" + h.deps.Commit + ")"
	}
	return v
}
