// Package session keeps the per-user wizard accumulator.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session exists for the user.
var ErrNotFound = errors.New("session not found")

// Field names one answer slot. Values double as menu token field tags, so they stay short.
type Field string

const (
	FieldResume           Field = "res"
	FieldRegion           Field = "reg"
	FieldSubregion        Field = "sub"
	FieldWorkSchedule     Field = "sch"
	FieldEmploymentType   Field = "emp"
	FieldProfessionalArea Field = "prof"
	FieldKeywords         Field = "kw"
	FieldCoverLetter      Field = "cl"
)

// Answer sets one field. An empty Value records an explicit absence.
type Answer struct {
	Field Field
	Value string
}

// Session is the answers collected so far. Empty strings mean "not set".
type Session struct {
	UserID           int64     `json:"user_id"`
	Step             int       `json:"step"`
	Entered          bool      `json:"entered"`
	SelectedResumeID string    `json:"selected_resume_id,omitempty"`
	Region           string    `json:"region,omitempty"`
	Subregion        string    `json:"subregion,omitempty"`
	WorkSchedule     string    `json:"work_schedule,omitempty"`
	EmploymentType   string    `json:"employment_type,omitempty"`
	ProfessionalArea string    `json:"professional_area,omitempty"`
	Keywords         string    `json:"keywords,omitempty"`
	CoverLetter      string    `json:"cover_letter,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// New returns an empty session positioned at the first step.
func New(userID int64) Session {
	return Session{UserID: userID, UpdatedAt: time.Now()}
}

// Reset clears every answer and moves back to the first step.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, UpdatedAt: time.Now()}
}

// Set stores value in field. It reports false for an unknown field.
func (s *Session) Set(field Field, value string) bool {
	switch field {
	case FieldResume:
		s.SelectedResumeID = value
	case FieldRegion:
		s.Region = value
	case FieldSubregion:
		s.Subregion = value
	case FieldWorkSchedule:
		s.WorkSchedule = value
	case FieldEmploymentType:
		s.EmploymentType = value
	case FieldProfessionalArea:
		s.ProfessionalArea = value
	case FieldKeywords:
		s.Keywords = value
	case FieldCoverLetter:
		s.CoverLetter = value
	default:
		return false
	}
	return true
}

// Get returns the value stored in field.
func (s Session) Get(field Field) string {
	switch field {
	case FieldResume:
		return s.SelectedResumeID
	case FieldRegion:
		return s.Region
	case FieldSubregion:
		return s.Subregion
	case FieldWorkSchedule:
		return s.WorkSchedule
	case FieldEmploymentType:
		return s.EmploymentType
	case FieldProfessionalArea:
		return s.ProfessionalArea
	case FieldKeywords:
		return s.Keywords
	case FieldCoverLetter:
		return s.CoverLetter
	}
	return ""
}

// Store persists sessions keyed by user id.
// Update is the only mutation path and is atomic for a single user.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	GetOrCreate(ctx context.Context, userID int64) (Session, error)
	Update(ctx context.Context, userID int64, fn func(*Session) error) (Session, error)
	Clear(ctx context.Context, userID int64) error
	Close() error
}
