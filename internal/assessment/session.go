// Package assessment owns a working session: the requirement model, the
// candidates assessed against it and the staleness of their results.
package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/recommendation"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrNoResult          = errors.New("candidate has no result")
	ErrEmptyCandidate    = errors.New("candidate text is empty")
)

var newID = uuid.NewString

// CandidateStatus is the processing state of a candidate.
type CandidateStatus string

const (
	StatusPending  CandidateStatus = "pending"
	StatusAssessed CandidateStatus = "assessed"
	StatusError    CandidateStatus = "error"
)

// Profile is pre-parsed candidate data. When present it wins over whatever
// the judge extracts.
type Profile struct {
	Name            string `json:"name,omitempty" validate:"max=200"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	TotalExperience string `json:"totalExperience,omitempty" validate:"max=100"`
}

var validate = validator.New()

// Validate checks the pre-parsed fields before they are trusted verbatim.
func (p *Profile) Validate() error {
	if p == nil {
		return nil
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid candidate profile: %w", err)
	}
	return nil
}

// Result is one complete assessment of a candidate. It is always replaced as
// a whole.
type Result struct {
	alignment.Totals
	Recommendation   recommendation.Tier         `json:"recommendation"`
	AlignmentDetails []alignment.ScoredAlignment `json:"alignmentDetails"`
	IsStale          bool                        `json:"isStale"`
	IsEdited         bool                        `json:"isEdited"`

	CandidateName   string   `json:"candidateName,omitempty"`
	CandidateEmail  string   `json:"candidateEmail,omitempty"`
	TotalExperience string   `json:"totalExperience,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	InterviewProbes []string `json:"interviewProbes,omitempty"`

	// ProcessingTime is the wall time of the assessment in seconds.
	ProcessingTime float64   `json:"processingTime"`
	AssessedAt     time.Time `json:"assessedAt"`
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.AlignmentDetails = append([]alignment.ScoredAlignment(nil), r.AlignmentDetails...)
	out.Strengths = append([]string(nil), r.Strengths...)
	out.Weaknesses = append([]string(nil), r.Weaknesses...)
	out.InterviewProbes = append([]string(nil), r.InterviewProbes...)
	return &out
}

type Candidate struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Text      string          `json:"text"`
	Profile   *Profile        `json:"profile,omitempty"`
	Result    *Result         `json:"result,omitempty"`
	Status    CandidateStatus `json:"status"`
	LastError string          `json:"lastError,omitempty"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Session is the unit of persistence.
type Session struct {
	ID          string              `json:"id"`
	JobTitle    string              `json:"jobTitle"`
	PostingText string              `json:"postingText,omitempty"`
	Model       *requirements.Model `json:"model"`
	Candidates  []*Candidate        `json:"candidates"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// NewSession starts a session over an already structured model.
func NewSession(jobTitle, postingText string, model *requirements.Model) (*Session, error) {
	if model == nil {
		return nil, errors.New("requirement model is required")
	}
	model.Prepare()
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid requirement model: %w", err)
	}

	if jobTitle = strings.TrimSpace(jobTitle); jobTitle == "" {
		jobTitle = model.JobTitle
	}

	now := time.Now().UTC()
	return &Session{
		ID:          newID(),
		JobTitle:    jobTitle,
		PostingText: postingText,
		Model:       model,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddCandidate registers a candidate in pending state.
func (s *Session) AddCandidate(name, text string, profile *Profile) (*Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCandidate
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" && profile != nil {
		name = strings.TrimSpace(profile.Name)
	}

	c := &Candidate{
		ID:      newID(),
		Name:    name,
		Text:    text,
		Profile: profile,
		Status:  StatusPending,
		AddedAt: time.Now().UTC(),
	}
	s.Candidates = append(s.Candidates, c)
	s.touch()
	return c, nil
}

// Candidate finds a candidate by id, falling back to a case-insensitive name match.
func (s *Session) Candidate(ref string) (*Candidate, error) {
	ref = strings.TrimSpace(ref)
	for _, c := range s.Candidates {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range s.Candidates {
		if ref != "" && strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, ref)
}

// StaleCount reports how many results need re-assessment.
func (s *Session) StaleCount() int {
	n := 0
	for _, c := range s.Candidates {
		if c.Result != nil && c.Result.IsStale {
			n++
		}
	}
	return n
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// invalidate marks every existing result stale.
func (s *Session) invalidate(requirements.Mutation) {
	for _, c := range s.Candidates {
		if c.Result != nil {
			c.Result.IsStale = true
		}
	}
	s.touch()
}

// AddRequirement adds a user requirement and invalidates every result.
func (s *Session) AddRequirement(description string, priority requirements.Priority, score int) (requirements.Requirement, error) {
	r, m, err := s.Model.AddRequirement(description, priority, score)
	if err != nil {
		return requirements.Requirement{}, err
	}
	s.invalidate(m)
	return r, nil
}

func (s *Session) ChangePriority(id string, priority requirements.Priority) error {
	m, err := s.Model.ChangePriority(id, priority)
	if err != nil {
		return err
	}
	s.invalidate(m)
	return nil
}

func (s *Session) ChangeScore(id string, score int) error {
	m, err := s.Model.ChangeScore(id, score)
	if err != nil {
		return err
	}
	s.invalidate(m)
	return nil
}

func (s *Session) DeleteRequirement(id string) error {
	m, err := s.Model.DeleteRequirement(id)
	if err != nil {
		return err
	}
	s.invalidate(m)
	return nil
}

// ManualEdit overrides rows of a candidate's result and recomputes the totals
// and tier locally. The judge is not contacted.
func (s *Session) ManualEdit(candidateID string, edits []alignment.RowEdit) (*Result, error) {
	c, err := s.Candidate(candidateID)
	if err != nil {
		return nil, err
	}
	if c.Result == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, c.ID)
	}

	details, err := alignment.ApplyEdits(c.Result.AlignmentDetails, edits)
	if err != nil {
		return nil, err
	}

	next := c.Result.clone()
	next.AlignmentDetails = details
	next.Totals = alignment.Aggregate(details)
	next.Recommendation = recommendation.Classify(details, next.AlignmentScore)
	next.IsEdited = true
	next.IsStale = false

	c.Result = next
	s.touch()
	return next, nil
}
