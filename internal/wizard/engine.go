// internal/wizard/engine.go

// Package wizard drives the step-by-step job search questionnaire.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zinin/hh-job-bot/internal/menu"
	"github.com/zinin/hh-job-bot/internal/session"
)

// EventKind distinguishes the three shapes of user input.
type EventKind int

const (
	EventCommand EventKind = iota
	EventSelection
	EventText
)

// Command is a wizard-level control command.
type Command int

const (
	CommandNone Command = iota
	// CommandEnter starts the wizard from scratch (/search).
	CommandEnter
	// CommandRestart starts over after authorization (start_search button).
	CommandRestart
	// CommandCancel aborts the wizard (/cancel).
	CommandCancel
)

// Event is one user action addressed to the wizard.
type Event struct {
	UserID     int64
	ChatID     int64
	Kind       EventKind
	Command    Command
	Data       string
	Text       string
	CallbackID string
}

// User-facing texts not owned by a single step.
const (
	MsgIdentityMissing = "Не удалось определить ваш Telegram ID."
	MsgNoResumes       = "Резюме не найдено. Пожалуйста, авторизуйтесь через /start."
	MsgCancelled       = "Поиск отменён. Чтобы начать заново, отправьте /search."
	MsgFailure         = "Что-то пошло не так. Попробуйте позже."
)

// Messenger delivers wizard output to the user.
type Messenger interface {
	SendPlain(chatID int64, text string) error
	SendMenu(chatID int64, text string, m menu.Menu) error
	AckCallback(callbackID, text string) error
}

// Dispatcher runs the search once every answer is collected.
type Dispatcher interface {
	Dispatch(ctx context.Context, chatID int64, sess session.Session) error
}

// errStepMoved aborts an update when the session advanced under us.
var errStepMoved = errors.New("session step moved")

// Engine applies events to sessions using a fixed step table.
type Engine struct {
	store      session.Store
	messenger  Messenger
	dispatcher Dispatcher
	steps      []Step
}

// NewEngine creates an Engine. steps must not be empty.
func NewEngine(store session.Store, messenger Messenger, dispatcher Dispatcher, steps []Step) *Engine {
	return &Engine{
		store:      store,
		messenger:  messenger,
		dispatcher: dispatcher,
		steps:      steps,
	}
}

// HandleEvent processes one event. Events of one user must not be handled concurrently.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) {
	a := &acker{messenger: e.messenger, id: ev.CallbackID, pending: ev.Kind == EventSelection && ev.CallbackID != ""}
	defer a.ack("")

	if ev.UserID == 0 {
		e.messenger.SendPlain(ev.ChatID, MsgIdentityMissing)
		return
	}

	if ev.Kind == EventCommand {
		switch ev.Command {
		case CommandEnter, CommandRestart:
			e.start(ctx, ev)
		case CommandCancel:
			e.cancel(ctx, ev)
		default:
			slog.Warn("Unknown wizard command", "user_id", ev.UserID, "command", ev.Command)
		}
		return
	}

	sess, err := e.store.Get(ctx, ev.UserID)
	if errors.Is(err, session.ErrNotFound) {
		e.start(ctx, ev)
		return
	}
	if err != nil {
		slog.Error("Failed to load session", "user_id", ev.UserID, "error", err)
		e.messenger.SendPlain(ev.ChatID, MsgFailure)
		return
	}

	if sess.Step < 0 || sess.Step >= len(e.steps) {
		slog.Warn("Session step out of range, restarting", "user_id", ev.UserID, "step", sess.Step)
		e.start(ctx, ev)
		return
	}

	step := e.steps[sess.Step]
	if step.Kind == PromptThenWait && !sess.Entered {
		e.enter(ctx, ev, sess.Step)
		return
	}

	in, ok := match(step, sess.Step, ev)
	if !ok {
		e.messenger.SendPlain(ev.ChatID, step.Reprompt)
		return
	}

	out, err := step.OnInput(ctx, sess, in)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			e.messenger.SendPlain(ev.ChatID, inputErr.Message)
			return
		}
		if errors.Is(err, ErrInvalidInput) {
			e.messenger.SendPlain(ev.ChatID, step.Reprompt)
			return
		}
		slog.Error("Step input failed", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, step.Failure)
		return
	}

	if err := e.validate(step, sess.Step, out); err != nil {
		slog.Error("Rejected step outcome", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, MsgFailure)
		return
	}

	done := out.Next == len(e.steps)
	from := sess.Step
	updated, err := e.store.Update(ctx, ev.UserID, func(s *session.Session) error {
		if s.Step != from {
			return errStepMoved
		}
		for _, ans := range out.Answers {
			s.Set(ans.Field, ans.Value)
		}
		if !done {
			s.Step = out.Next
			s.Entered = false
		}
		return nil
	})
	if errors.Is(err, errStepMoved) || errors.Is(err, session.ErrNotFound) {
		slog.Debug("Dropping input for a session that moved", "user_id", ev.UserID, "step", step.Name)
		return
	}
	if err != nil {
		slog.Error("Failed to update session", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, MsgFailure)
		return
	}

	a.ack(out.Ack)
	if out.Notice != "" {
		e.messenger.SendPlain(ev.ChatID, out.Notice)
	}

	if done {
		slog.Info("Wizard completed", "user_id", ev.UserID)
		if err := e.dispatcher.Dispatch(ctx, ev.ChatID, updated); err != nil {
			slog.Error("Search dispatch failed", "user_id", ev.UserID, "error", err)
		}
		if err := e.store.Clear(ctx, ev.UserID); err != nil {
			slog.Error("Failed to clear session", "user_id", ev.UserID, "error", err)
		}
		return
	}

	e.enter(ctx, ev, out.Next)
}

// start resets the user's session to the first step and renders it.
func (e *Engine) start(ctx context.Context, ev Event) {
	if _, err := e.store.GetOrCreate(ctx, ev.UserID); err != nil {
		slog.Error("Failed to create session", "user_id", ev.UserID, "error", err)
		e.messenger.SendPlain(ev.ChatID, MsgFailure)
		return
	}
	_, err := e.store.Update(ctx, ev.UserID, func(s *session.Session) error {
		s.Reset()
		return nil
	})
	if err != nil {
		slog.Error("Failed to reset session", "user_id", ev.UserID, "error", err)
		e.messenger.SendPlain(ev.ChatID, MsgFailure)
		return
	}
	slog.Info("Wizard started", "user_id", ev.UserID)
	e.enter(ctx, ev, 0)
}

func (e *Engine) cancel(ctx context.Context, ev Event) {
	if err := e.store.Clear(ctx, ev.UserID); err != nil {
		slog.Error("Failed to clear session", "user_id", ev.UserID, "error", err)
	}
	e.messenger.SendPlain(ev.ChatID, MsgCancelled)
}

// enter runs OnEnter of step idx and marks it rendered.
func (e *Engine) enter(ctx context.Context, ev Event, idx int) {
	step := e.steps[idx]

	sess, err := e.store.Get(ctx, ev.UserID)
	if err != nil {
		slog.Error("Failed to load session", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, MsgFailure)
		return
	}

	prompt, err := step.OnEnter(ctx, sess)
	if errors.Is(err, ErrNoResumes) {
		e.clear(ctx, ev.UserID)
		e.messenger.SendPlain(ev.ChatID, MsgNoResumes)
		return
	}
	if err != nil {
		slog.Error("Step entry failed", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, step.Failure)
		return
	}

	if step.Kind == PromptThenWait {
		m := menu.Build(prompt.Items, menu.Tag{Step: idx, Field: string(step.Field)}, step.Columns, step.Sentinels)
		err = e.messenger.SendMenu(ev.ChatID, prompt.Text, m)
	} else {
		err = e.messenger.SendPlain(ev.ChatID, prompt.Text)
	}
	if err != nil {
		// The user has nothing to answer; waiting here would strand them
		slog.Error("Failed to send step prompt", "user_id", ev.UserID, "step", step.Name, "error", err)
		e.fail(ctx, ev, step.Failure)
		return
	}

	_, err = e.store.Update(ctx, ev.UserID, func(s *session.Session) error {
		if s.Step != idx {
			return errStepMoved
		}
		s.Entered = true
		return nil
	})
	if err != nil {
		slog.Error("Failed to mark step entered", "user_id", ev.UserID, "step", step.Name, "error", err)
		return
	}
	slog.Debug("Wizard step entered", "user_id", ev.UserID, "step", step.Name)
}

// fail tears the session down and reports one failure message.
func (e *Engine) fail(ctx context.Context, ev Event, text string) {
	e.clear(ctx, ev.UserID)
	if text == "" {
		text = MsgFailure
	}
	e.messenger.SendPlain(ev.ChatID, text)
}

func (e *Engine) clear(ctx context.Context, userID int64) {
	if err := e.store.Clear(ctx, userID); err != nil {
		slog.Error("Failed to clear session", "user_id", userID, "error", err)
	}
}

func (e *Engine) validate(step Step, idx int, out Outcome) error {
	for _, ans := range out.Answers {
		if !step.owns(ans.Field) {
			return fmt.Errorf("step %s does not own field %s", step.Name, ans.Field)
		}
	}
	if out.Next <= idx || out.Next > len(e.steps) {
		return fmt.Errorf("step %s returned next index %d", step.Name, out.Next)
	}
	return nil
}

// match checks the event against what step idx expects.
func match(step Step, idx int, ev Event) (Input, bool) {
	switch step.Expects {
	case ExpectSelection:
		if ev.Kind != EventSelection {
			return Input{}, false
		}
		tok, err := menu.ParseToken(ev.Data)
		if err != nil {
			return Input{}, false
		}
		if tok.Step != idx || tok.Field != string(step.Field) || !step.allows(tok.Sentinel) {
			return Input{}, false
		}
		return Input{Token: tok}, true
	case ExpectText:
		if ev.Kind != EventText {
			return Input{}, false
		}
		text := normalizeText(ev.Text)
		if text == "" {
			return Input{}, false
		}
		return Input{Text: text}, true
	}
	return Input{}, false
}

// acker answers a callback query at most once.
type acker struct {
	messenger Messenger
	id        string
	pending   bool
}

func (a *acker) ack(text string) {
	if !a.pending {
		return
	}
	a.pending = false
	a.messenger.AckCallback(a.id, text)
}
