package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zinin/hh-job-bot/internal/menu"
)

// BotAPI is the interface for Telegram bot API operations
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageSender defines the interface for sending Telegram messages
type MessageSender interface {
	Send(chatID int64, text string) error
	SendPlain(chatID int64, text string) error
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendMenu(chatID int64, text string, m menu.Menu) error
	SendWithLink(chatID int64, text, label, url string) error
	AckCallback(callbackID, text string) error
}

// Sender implements MessageSender using Telegram Bot API
type Sender struct {
	api BotAPI
}

var _ MessageSender = (*Sender)(nil)

// NewSender creates a new Sender
func NewSender(api BotAPI) *Sender {
	return &Sender{api: api}
}

// Send sends a MarkdownV2 formatted message
func (s *Sender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
	return err
}

// SendPlain sends a plain text message without formatting
func (s *Sender) SendPlain(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
	return err
}

// SendWithKeyboard sends a MarkdownV2 message with inline keyboard
func (s *Sender) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = keyboard
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send message with keyboard", "chat_id", chatID, "error", err)
	}
	return err
}

// SendMenu sends a plain text prompt with the menu as inline keyboard
func (s *Sender) SendMenu(chatID int64, text string, m menu.Menu) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if m.Len() > 0 {
		msg.ReplyMarkup = FromMenu(m)
	}
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send menu", "chat_id", chatID, "buttons", m.Len(), "error", err)
	}
	return err
}

// SendWithLink sends a MarkdownV2 message with a single URL button
func (s *Sender) SendWithLink(chatID int64, text, label, url string) error {
	return s.SendWithKeyboard(chatID, text, NewKeyboard().URLButton(label, url).Build())
}

// AckCallback acknowledges a callback query, optionally showing text as a toast
func (s *Sender) AckCallback(callbackID, text string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(callbackID, text))
	if err != nil {
		slog.Error("Failed to acknowledge callback", "error", err)
	}
	return err
}
