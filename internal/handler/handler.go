// internal/handler/handler.go
package handler

import "github.com/zinin/hh-job-bot/internal/telegram"

// Deps holds dependencies for all handlers
type Deps struct {
	Sender telegram.MessageSender
	// AuthURL returns the hh.ru OAuth entry point for a Telegram user.
	AuthURL     func(userID int64) string
	Version     string // Clean version (v1.2.0)
	VersionFull string // Full git describe output (v1.2.0-5-gabc1234)
	Commit      string // Git commit hash
	BuildDate   string // Build date
}
