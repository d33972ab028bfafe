package dispatch

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/zinin/hh-job-bot/internal/backend"
	"github.com/zinin/hh-job-bot/internal/telegram"
)

const (
	salaryUnknown = "Не указана"
	dateUnknown   = "Неизвестно"
	dateLayout    = "02.01.2006"
	// hhTimeLayout is the published_at format used by hh.ru, e.g. 2024-03-01T10:00:00+0300.
	hhTimeLayout = "2006-01-02T15:04:05-0700"
)

// FormatSalary renders a salary range like "1,000-2,000 RUR (на руки)".
// A missing bound is shown as "?". A nil salary or one with no bounds is "Не указана".
func FormatSalary(p *message.Printer, s *backend.Salary) string {
	if s == nil || (!hasAmount(s.From) && !hasAmount(s.To)) {
		return salaryUnknown
	}

	var b strings.Builder
	b.WriteString(amount(p, s.From))
	b.WriteByte('-')
	b.WriteString(amount(p, s.To))
	if s.Currency != "" {
		b.WriteByte(' ')
		b.WriteString(s.Currency)
	}
	if s.Gross {
		b.WriteString(" (до вычета налогов)")
	} else {
		b.WriteString(" (на руки)")
	}
	return b.String()
}

func hasAmount(v *float64) bool {
	return v != nil && *v != 0
}

func amount(p *message.Printer, v *float64) string {
	if !hasAmount(v) {
		return "?"
	}
	return p.Sprintf("%d", int64(math.Round(*v)))
}

// FormatDate renders a published_at timestamp as DD.MM.YYYY.
func FormatDate(published string) string {
	if published == "" {
		return dateUnknown
	}
	for _, layout := range []string{hhTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, published); err == nil {
			return t.Format(dateLayout)
		}
	}
	return dateUnknown
}

// FormatVacancy renders one result as a MarkdownV2 message body.
func FormatVacancy(p *message.Printer, v backend.Vacancy) string {
	employer := v.EmployerName()
	if employer == "" {
		employer = "Не указано"
	}
	area := v.AreaName()
	if area == "" {
		area = "Не указан"
	}

	var b strings.Builder
	b.WriteString("*" + telegram.EscapeMarkdownV2(v.Name) + "*\n")
	b.WriteString(telegram.EscapeMarkdownV2("🏢 Компания: "+employer) + "\n")
	b.WriteString(telegram.EscapeMarkdownV2("💰 Зарплата: "+FormatSalary(p, v.Salary)) + "\n")
	b.WriteString(telegram.EscapeMarkdownV2("📍 Регион: "+area) + "\n")
	b.WriteString(telegram.EscapeMarkdownV2("📅 Опубликовано: " + FormatDate(v.PublishedAt)))
	return b.String()
}
