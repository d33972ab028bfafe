package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zinin/hh-job-bot/internal/backend"
	"github.com/zinin/hh-job-bot/internal/session"
)

type fakeSearcher struct {
	vacancies []backend.Vacancy
	err       error
	got       []backend.Criteria
}

func (f *fakeSearcher) Search(ctx context.Context, c backend.Criteria) ([]backend.Vacancy, error) {
	f.got = append(f.got, c)
	return f.vacancies, f.err
}

type sent struct {
	kind string
	text string
	url  string
	at   time.Time
}

type trackingMessenger struct {
	sent     []sent
	failLink map[string]bool
}

func (m *trackingMessenger) Send(chatID int64, text string) error {
	m.sent = append(m.sent, sent{kind: "md", text: text, at: time.Now()})
	return nil
}

func (m *trackingMessenger) SendPlain(chatID int64, text string) error {
	m.sent = append(m.sent, sent{kind: "plain", text: text, at: time.Now()})
	return nil
}

func (m *trackingMessenger) SendWithLink(chatID int64, text, label, url string) error {
	if m.failLink[url] {
		return errors.New("bad request")
	}
	m.sent = append(m.sent, sent{kind: "link", text: text, url: url, at: time.Now()})
	return nil
}

func (m *trackingMessenger) texts() []string {
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.text)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func vacancies(n int) []backend.Vacancy {
	out := make([]backend.Vacancy, n)
	for i := range out {
		out[i] = backend.Vacancy{
			ID:           fmt.Sprint(i),
			Name:         fmt.Sprintf("Vacancy %d", i),
			AlternateURL: fmt.Sprintf("https://hh.ru/vacancy/%d", i),
		}
	}
	return out
}

func TestNewCriteria(t *testing.T) {
	t.Run("subregion narrows region and absent fields are omitted", func(t *testing.T) {
		s := session.New(77)
		s.SelectedResumeID = "R1"
		s.Region = "113"
		s.Subregion = "Moscow-id"
		s.WorkSchedule = "remote"
		s.Keywords = "backend developer"

		data, err := json.Marshal(NewCriteria(s))
		if err != nil {
			t.Fatal(err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{
			"telegramId":   float64(77),
			"resumeId":     "R1",
			"region":       "Moscow-id",
			"workSchedule": "remote",
			"keywords":     "backend developer",
		}
		if len(got) != len(want) {
			t.Errorf("got keys %v, want %v", got, want)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("%s = %v, want %v", k, got[k], v)
			}
		}
	})

	t.Run("region used when subregion skipped", func(t *testing.T) {
		s := session.New(1)
		s.Region = "74"
		if c := NewCriteria(s); c.Region != "74" {
			t.Errorf("region = %q", c.Region)
		}
	})
}

func TestFormatSalary(t *testing.T) {
	p := message.NewPrinter(language.English)

	tests := []struct {
		name   string
		salary *backend.Salary
		want   string
	}{
		{"net range", &backend.Salary{From: ptr(1000), To: ptr(2000), Currency: "RUR"}, "1,000-2,000 RUR (на руки)"},
		{"gross", &backend.Salary{From: ptr(150000), To: ptr(250000), Currency: "RUR", Gross: true}, "150,000-250,000 RUR (до вычета налогов)"},
		{"missing upper", &backend.Salary{From: ptr(1000), Currency: "USD"}, "1,000-? USD (на руки)"},
		{"missing lower", &backend.Salary{To: ptr(3000), Currency: "EUR"}, "?-3,000 EUR (на руки)"},
		{"rounding", &backend.Salary{From: ptr(999.6), To: ptr(1234.4), Currency: "RUR"}, "1,000-1,234 RUR (на руки)"},
		{"no currency", &backend.Salary{From: ptr(1000), To: ptr(2000)}, "1,000-2,000 (на руки)"},
		{"empty", &backend.Salary{}, "Не указана"},
		{"nil", nil, "Не указана"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSalary(p, tt.salary); got != tt.want {
				t.Errorf("FormatSalary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSalary_Locale(t *testing.T) {
	p := message.NewPrinter(language.German)
	got := FormatSalary(p, &backend.Salary{From: ptr(1000), To: ptr(2000), Currency: "EUR"})
	if got != "1.000-2.000 EUR (на руки)" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-01T10:00:00+0300", "01.03.2024"},
		{"2024-12-31T23:59:59Z", "31.12.2024"},
		{"", "Неизвестно"},
		{"yesterday", "Неизвестно"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatDate(tt.in); got != tt.want {
				t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatVacancy(t *testing.T) {
	p := message.NewPrinter(language.English)
	v := backend.Vacancy{
		Name:        "Go developer (senior)",
		Salary:      &backend.Salary{From: ptr(1000), To: ptr(2000), Currency: "RUR"},
		PublishedAt: "2024-03-01T10:00:00+0300",
	}

	got := FormatVacancy(p, v)

	for _, part := range []string{
		"*Go developer \\(senior\\)*",
		"🏢 Компания: Не указано",
		"💰 Зарплата: 1,000\\-2,000 RUR \\(на руки\\)",
		"📍 Регион: Не указан",
		"📅 Опубликовано: 01\\.03\\.2024",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("missing %q in:\n%s", part, got)
		}
	}
}

func TestDispatch_SendsSummaryAndFirstResults(t *testing.T) {
	searcher := &fakeSearcher{vacancies: vacancies(12)}
	messenger := &trackingMessenger{}
	d := New(searcher, messenger, WithDelay(0))

	s := session.New(5)
	s.Keywords = "go"
	if err := d.Dispatch(context.Background(), 500, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	texts := messenger.texts()
	if texts[0] != MsgSearching {
		t.Errorf("first message = %q", texts[0])
	}
	if texts[1] != "✅ Найдено 12 вакансий. Показываю первые 10:" {
		t.Errorf("summary = %q", texts[1])
	}
	if len(messenger.sent) != 2+DefaultLimit {
		t.Fatalf("expected %d messages, got %d", 2+DefaultLimit, len(messenger.sent))
	}
	for i, m := range messenger.sent[2:] {
		if m.kind != "link" || m.url != fmt.Sprintf("https://hh.ru/vacancy/%d", i) {
			t.Errorf("result %d out of order or without link: %+v", i, m)
		}
	}
	if len(searcher.got) != 1 || searcher.got[0].TelegramID != 5 || searcher.got[0].Keywords != "go" {
		t.Errorf("criteria = %+v", searcher.got)
	}
}

func TestDispatch_NoResults(t *testing.T) {
	messenger := &trackingMessenger{}
	d := New(&fakeSearcher{}, messenger, WithDelay(0))

	if err := d.Dispatch(context.Background(), 1, session.New(1)); err != nil {
		t.Fatal(err)
	}

	texts := messenger.texts()
	if len(texts) != 2 || texts[1] != MsgNoResults {
		t.Errorf("messages = %v", texts)
	}
}

func TestDispatch_SearchFailure(t *testing.T) {
	messenger := &trackingMessenger{}
	d := New(&fakeSearcher{err: backend.ErrUnavailable}, messenger, WithDelay(0))

	err := d.Dispatch(context.Background(), 1, session.New(1))
	if !errors.Is(err, backend.ErrUnavailable) {
		t.Errorf("expected wrapped ErrUnavailable, got %v", err)
	}

	texts := messenger.texts()
	if len(texts) != 2 || texts[1] != MsgFailed {
		t.Errorf("messages = %v", texts)
	}
}

func TestDispatch_ItemFailureContinues(t *testing.T) {
	messenger := &trackingMessenger{failLink: map[string]bool{"https://hh.ru/vacancy/1": true}}
	d := New(&fakeSearcher{vacancies: vacancies(3)}, messenger, WithDelay(0))

	if err := d.Dispatch(context.Background(), 1, session.New(1)); err != nil {
		t.Fatal(err)
	}

	texts := messenger.texts()
	// searching, summary, v0, item failure, v2
	if len(texts) != 5 {
		t.Fatalf("messages = %v", texts)
	}
	if texts[3] != MsgItemFailed {
		t.Errorf("expected per-item failure, got %q", texts[3])
	}
	if !strings.Contains(texts[4], "Vacancy 2") {
		t.Errorf("delivery stopped after failure: %q", texts[4])
	}
}

func TestDispatch_NoLinkFallsBackToPlainMarkdown(t *testing.T) {
	messenger := &trackingMessenger{}
	d := New(&fakeSearcher{vacancies: []backend.Vacancy{{Name: "X"}}}, messenger, WithDelay(0))

	d.Dispatch(context.Background(), 1, session.New(1))

	if last := messenger.sent[len(messenger.sent)-1]; last.kind != "md" {
		t.Errorf("expected markdown message without link, got %+v", last)
	}
}

func TestDispatch_PacesResults(t *testing.T) {
	messenger := &trackingMessenger{}
	delay := 30 * time.Millisecond
	d := New(&fakeSearcher{vacancies: vacancies(3)}, messenger, WithDelay(delay), WithLimit(3))

	if err := d.Dispatch(context.Background(), 1, session.New(1)); err != nil {
		t.Fatal(err)
	}

	results := messenger.sent[2:]
	for i := 1; i < len(results); i++ {
		gap := results[i].at.Sub(results[i-1].at)
		if gap < delay-5*time.Millisecond {
			t.Errorf("gap between result %d and %d = %v, want >= %v", i-1, i, gap, delay)
		}
	}
}

func TestDispatch_CancelledContextStopsDelivery(t *testing.T) {
	messenger := &trackingMessenger{}
	d := New(&fakeSearcher{vacancies: vacancies(5)}, messenger, WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Dispatch(ctx, 1, session.New(1))
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(messenger.sent) != 2 {
		t.Errorf("expected only searching and summary messages, got %d", len(messenger.sent))
	}
}
