// Package dispatch turns a completed wizard session into a search and delivers the results.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"github.com/zinin/hh-job-bot/internal/backend"
	"github.com/zinin/hh-job-bot/internal/session"
)

const (
	DefaultLimit = 10
	DefaultDelay = 300 * time.Millisecond
)

// User-facing texts.
const (
	MsgSearching   = "🔍 Ищем подходящие вакансии..."
	MsgNoResults   = "😔 К сожалению, по вашим критериям вакансий не найдено."
	MsgFailed      = "😞 Произошла ошибка при поиске вакансий. Попробуйте позже."
	MsgItemFailed  = "Не удалось отправить информацию о вакансии"
	openButtonText = "🔗 Открыть вакансию"
)

// Searcher runs a vacancy search.
type Searcher interface {
	Search(ctx context.Context, criteria backend.Criteria) ([]backend.Vacancy, error)
}

// Messenger delivers result messages.
type Messenger interface {
	Send(chatID int64, text string) error
	SendPlain(chatID int64, text string) error
	SendWithLink(chatID int64, text, label, url string) error
}

// Dispatcher sends search criteria to the backend and streams the results.
type Dispatcher struct {
	searcher  Searcher
	messenger Messenger
	limit     int
	delay     time.Duration
	printer   *message.Printer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLimit caps the number of result messages.
func WithLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// WithDelay sets the gap between result messages. Callers outside tests pass
// config.ResultsDelay, which enforces the floor; zero disables pacing.
func WithDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		d.delay = delay
	}
}

// WithLocale selects the locale used for thousand separators.
func WithLocale(tag language.Tag) Option {
	return func(d *Dispatcher) {
		d.printer = message.NewPrinter(tag)
	}
}

// New creates a Dispatcher.
func New(searcher Searcher, messenger Messenger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		searcher:  searcher,
		messenger: messenger,
		limit:     DefaultLimit,
		delay:     DefaultDelay,
		printer:   message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewCriteria builds the search request from a session.
// A chosen subregion narrows the region.
func NewCriteria(s session.Session) backend.Criteria {
	region := s.Region
	if s.Subregion != "" {
		region = s.Subregion
	}
	return backend.Criteria{
		TelegramID:       s.UserID,
		ResumeID:         s.SelectedResumeID,
		Region:           region,
		WorkSchedule:     s.WorkSchedule,
		EmploymentType:   s.EmploymentType,
		ProfessionalArea: s.ProfessionalArea,
		Keywords:         s.Keywords,
		CoverLetter:      s.CoverLetter,
	}
}

// Dispatch performs the search for sess and sends the results to chatID.
// The returned error is informational: the user has already been told.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64, sess session.Session) error {
	d.messenger.SendPlain(chatID, MsgSearching)

	criteria := NewCriteria(sess)
	vacancies, err := d.searcher.Search(ctx, criteria)
	if err != nil {
		d.messenger.SendPlain(chatID, MsgFailed)
		return fmt.Errorf("search: %w", err)
	}

	slog.Info("Search completed", "user_id", sess.UserID, "results", len(vacancies))

	if len(vacancies) == 0 {
		d.messenger.SendPlain(chatID, MsgNoResults)
		return nil
	}

	shown := vacancies
	if len(shown) > d.limit {
		shown = shown[:d.limit]
	}
	d.messenger.SendPlain(chatID, fmt.Sprintf("✅ Найдено %d вакансий. Показываю первые %d:", len(vacancies), len(shown)))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(d.delay), 1)
	}

	for _, v := range shown {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := d.sendVacancy(chatID, v); err != nil {
			slog.Warn("Failed to send vacancy", "chat_id", chatID, "vacancy_id", v.ID, "error", err)
			d.messenger.SendPlain(chatID, MsgItemFailed)
		}
	}
	return nil
}

func (d *Dispatcher) sendVacancy(chatID int64, v backend.Vacancy) error {
	text := FormatVacancy(d.printer, v)
	if link := v.Link(); link != "" {
		return d.messenger.SendWithLink(chatID, text, openButtonText, link)
	}
	return d.messenger.Send(chatID, text)
}
