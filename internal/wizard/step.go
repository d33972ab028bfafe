// internal/wizard/step.go
package wizard

import (
	"context"
	"errors"

	"github.com/zinin/hh-job-bot/internal/menu"
	"github.com/zinin/hh-job-bot/internal/session"
)

var (
	// ErrInvalidInput marks input that matched the step shape but was rejected by OnInput.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoResumes is returned by the resume step when the user has nothing to choose from.
	ErrNoResumes = errors.New("no resumes")
)

// InputError rejects input with a step-specific message instead of the default re-prompt.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return "invalid input: " + e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Kind says whether a step renders a menu before waiting.
type Kind int

const (
	// PromptThenWait steps render a menu on entry and then wait for a selection.
	PromptThenWait Kind = iota
	// WaitOnly steps send a plain prompt and wait for free text.
	WaitOnly
)

// Expect is the event shape a step accepts.
type Expect int

const (
	ExpectSelection Expect = iota
	ExpectText
)

// Prompt is what a step shows on entry. Items are ignored for WaitOnly steps.
type Prompt struct {
	Text  string
	Items []menu.Item
}

// Input is the matched event handed to OnInput.
type Input struct {
	Token menu.Token
	Text  string
}

// Outcome is the result of accepted input.
// Next is the index of the step to run next; len(steps) means the wizard is done.
type Outcome struct {
	Answers []session.Answer
	Next    int
	Ack     string
	Notice  string
}

// Step is one question of the wizard. Its index in the step slice is its identity.
type Step struct {
	Name    string
	Kind    Kind
	Expects Expect
	// Field is carried in menu tokens so stale buttons can be told apart.
	Field session.Field
	// Owns lists the only fields this step may write.
	Owns      []session.Field
	Sentinels []menu.Sentinel
	Columns   int
	Reprompt  string
	Failure   string

	OnEnter func(ctx context.Context, sess session.Session) (Prompt, error)
	OnInput func(ctx context.Context, sess session.Session, in Input) (Outcome, error)
}

func (s Step) owns(f session.Field) bool {
	for _, o := range s.Owns {
		if o == f {
			return true
		}
	}
	return false
}

func (s Step) allows(kind menu.SentinelKind) bool {
	if kind == menu.SentinelNone {
		return true
	}
	for _, sn := range s.Sentinels {
		if sn.Kind == kind {
			return true
		}
	}
	return false
}
