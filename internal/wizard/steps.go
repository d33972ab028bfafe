package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zinin/hh-job-bot/internal/backend"
	"github.com/zinin/hh-job-bot/internal/catalog"
	"github.com/zinin/hh-job-bot/internal/menu"
	"github.com/zinin/hh-job-bot/internal/session"
)

// Step indexes of the job search wizard.
const (
	StepResume = iota
	StepRegion
	StepSubregion
	StepSchedule
	StepEmployment
	StepProfArea
	StepKeywords
	StepCoverLetter
	stepCount
)

const skipText = "-"

var (
	sentinelAll = menu.Sentinel{Label: "🌍 Все регионы", Kind: menu.SentinelAll}
	sentinelAny = menu.Sentinel{Label: "❌ Не важно", Kind: menu.SentinelAny}
)

// OptionSource supplies catalog entries for menu steps.
type OptionSource interface {
	FetchOptions(ctx context.Context, kind catalog.Kind, parentID string) ([]catalog.Option, error)
	FindRegion(ctx context.Context, id string) (catalog.Option, error)
}

// ResumeSource lists the resumes a user can search with.
type ResumeSource interface {
	ListResumes(ctx context.Context, userID int64) ([]backend.Resume, error)
}

// DefaultSteps returns the job search questionnaire in order.
func DefaultSteps(options OptionSource, resumes ResumeSource) []Step {
	return []Step{
		{
			Name:     "resume",
			Kind:     PromptThenWait,
			Expects:  ExpectSelection,
			Field:    session.FieldResume,
			Owns:     []session.Field{session.FieldResume},
			Columns:  2,
			Reprompt: "Пожалуйста, выберите резюме нажатием на кнопку.",
			Failure:  "Ошибка при получении резюме. Попробуйте позже.",
			OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
				list, err := resumes.ListResumes(ctx, sess.UserID)
				if err != nil {
					return Prompt{}, err
				}
				if len(list) == 0 {
					return Prompt{}, ErrNoResumes
				}
				items := make([]menu.Item, 0, len(list))
				for _, r := range list {
					label := r.Title
					if label == "" {
						label = "ID: " + r.ID
					}
					items = append(items, menu.Item{ID: r.ID, Label: label})
				}
				return Prompt{Text: "Выберите резюме:", Items: items}, nil
			},
			OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
				return Outcome{
					Answers: []session.Answer{{Field: session.FieldResume, Value: in.Token.ID}},
					Next:    StepRegion,
				}, nil
			},
		},
		{
			Name:     "region",
			Kind:     PromptThenWait,
			Expects:  ExpectSelection,
			Field:    session.FieldRegion,
			Owns:     []session.Field{session.FieldRegion},
			Columns:  3,
			Reprompt: "Пожалуйста, выберите регион нажатием на кнопку.",
			Failure:  "Ошибка при получении регионов. Попробуйте позже.",
			OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
				opts, err := options.FetchOptions(ctx, catalog.KindRegion, "")
				if err != nil {
					return Prompt{}, err
				}
				return Prompt{Text: "Выберите страну / регион:", Items: toItems(opts)}, nil
			},
			OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
				region, err := options.FindRegion(ctx, in.Token.ID)
				if errors.Is(err, catalog.ErrNotFound) {
					return Outcome{}, &InputError{Message: "Регион не найден. Пожалуйста, попробуйте снова."}
				}
				if err != nil {
					return Outcome{}, err
				}

				out := Outcome{
					Answers: []session.Answer{{Field: session.FieldRegion, Value: region.ID}},
					Next:    StepSubregion,
				}
				if len(region.Children) == 0 {
					out.Next = StepSchedule
					out.Notice = fmt.Sprintf("Регион \"%s\" выбран. Теперь выберите график работы.", region.Label)
				}
				return out, nil
			},
		},
		{
			Name:      "subregion",
			Kind:      PromptThenWait,
			Expects:   ExpectSelection,
			Field:     session.FieldSubregion,
			Owns:      []session.Field{session.FieldSubregion},
			Sentinels: []menu.Sentinel{sentinelAll},
			Columns:   2,
			Reprompt:  "Пожалуйста, выберите область нажатием на кнопку.",
			Failure:   "Ошибка при получении областей. Попробуйте позже.",
			OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
				region, err := options.FindRegion(ctx, sess.Region)
				if err != nil {
					return Prompt{}, err
				}
				text := fmt.Sprintf("Вы выбрали: %s\n\nХотите выбрать конкретную область или искать по всем регионам?", region.Label)
				return Prompt{Text: text, Items: toItems(region.Children)}, nil
			},
			OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
				if in.Token.Sentinel == menu.SentinelAll {
					return Outcome{
						Answers: []session.Answer{{Field: session.FieldSubregion}},
						Next:    StepSchedule,
						Ack:     "Выбраны все регионы",
						Notice:  "✅ Выбраны все регионы. Теперь выберите график работы.",
					}, nil
				}
				return Outcome{
					Answers: []session.Answer{{Field: session.FieldSubregion, Value: in.Token.ID}},
					Next:    StepSchedule,
					Notice:  "Область выбрана. Теперь выберите график работы.",
				}, nil
			},
		},
		dictionaryStep(options, dictionaryConfig{
			name:     "schedule",
			kind:     catalog.KindSchedule,
			field:    session.FieldWorkSchedule,
			columns:  2,
			next:     StepEmployment,
			prompt:   "Выберите желаемый график работы:",
			reprompt: "Пожалуйста, выберите график работы нажатием на кнопку.",
			failure:  "Ошибка при получении графиков работы. Попробуйте позже.",
			chosen:   "✅ График выбран. Теперь выберите тип занятости.",
			dontCare: "✅ График работы: не важно. Теперь выберите тип занятости.",
		}),
		dictionaryStep(options, dictionaryConfig{
			name:     "employment",
			kind:     catalog.KindEmployment,
			field:    session.FieldEmploymentType,
			columns:  2,
			next:     StepProfArea,
			prompt:   "Выберите тип занятости:",
			reprompt: "Пожалуйста, выберите тип занятости нажатием на кнопку.",
			failure:  "Ошибка при получении типов занятости. Попробуйте позже.",
			chosen:   "✅ Тип занятости выбран. Теперь выберите профессиональную область.",
			dontCare: "✅ Тип занятости: не важно. Теперь выберите профессиональную область.",
		}),
		dictionaryStep(options, dictionaryConfig{
			name:     "profarea",
			kind:     catalog.KindProfessionalArea,
			field:    session.FieldProfessionalArea,
			columns:  1,
			next:     StepKeywords,
			prompt:   "Выберите профессиональную область:",
			reprompt: "Пожалуйста, выберите профессиональную область нажатием на кнопку.",
			failure:  "Ошибка при получении профессиональных областей. Попробуйте позже.",
			chosen:   "✅ Профессиональная область выбрана.",
			dontCare: "✅ Профессиональная область: не важно.",
		}),
		{
			Name:     "keywords",
			Kind:     WaitOnly,
			Expects:  ExpectText,
			Field:    session.FieldKeywords,
			Owns:     []session.Field{session.FieldKeywords},
			Reprompt: "Пожалуйста, введите ключевые слова.",
			OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
				return Prompt{Text: "Введите ключевые слова для поиска (через пробел или запятую):"}, nil
			},
			OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
				return Outcome{
					Answers: []session.Answer{{Field: session.FieldKeywords, Value: in.Text}},
					Next:    StepCoverLetter,
				}, nil
			},
		},
		{
			Name:     "coverletter",
			Kind:     WaitOnly,
			Expects:  ExpectText,
			Field:    session.FieldCoverLetter,
			Owns:     []session.Field{session.FieldCoverLetter},
			Reprompt: "Пожалуйста, введите сопроводительное письмо или отправьте '-'.",
			OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
				return Prompt{Text: "Введите сопроводительное письмо (или отправьте '-' чтобы пропустить):"}, nil
			},
			OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
				letter := in.Text
				if letter == skipText {
					letter = ""
				}
				return Outcome{
					Answers: []session.Answer{{Field: session.FieldCoverLetter, Value: letter}},
					Next:    stepCount,
				}, nil
			},
		},
	}
}

type dictionaryConfig struct {
	name     string
	kind     catalog.Kind
	field    session.Field
	columns  int
	next     int
	prompt   string
	reprompt string
	failure  string
	chosen   string
	dontCare string
}

// dictionaryStep builds a flat catalog menu step with a "does not matter" choice.
func dictionaryStep(options OptionSource, cfg dictionaryConfig) Step {
	return Step{
		Name:      cfg.name,
		Kind:      PromptThenWait,
		Expects:   ExpectSelection,
		Field:     cfg.field,
		Owns:      []session.Field{cfg.field},
		Sentinels: []menu.Sentinel{sentinelAny},
		Columns:   cfg.columns,
		Reprompt:  cfg.reprompt,
		Failure:   cfg.failure,
		OnEnter: func(ctx context.Context, sess session.Session) (Prompt, error) {
			opts, err := options.FetchOptions(ctx, cfg.kind, "")
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: cfg.prompt, Items: toItems(opts)}, nil
		},
		OnInput: func(ctx context.Context, sess session.Session, in Input) (Outcome, error) {
			if in.Token.Sentinel == menu.SentinelAny {
				return Outcome{
					Answers: []session.Answer{{Field: cfg.field}},
					Next:    cfg.next,
					Notice:  cfg.dontCare,
				}, nil
			}
			return Outcome{
				Answers: []session.Answer{{Field: cfg.field, Value: in.Token.ID}},
				Next:    cfg.next,
				Notice:  cfg.chosen,
			}, nil
		},
	}
}

func toItems(opts []catalog.Option) []menu.Item {
	items := make([]menu.Item, 0, len(opts))
	for _, o := range opts {
		items = append(items, menu.Item{ID: o.ID, Label: o.Label})
	}
	return items
}

// normalizeText trims user text; an empty result does not match a text step.
func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
