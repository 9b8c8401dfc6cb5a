// Package judge defines the contract of the external service that gives a
// qualitative verdict on every requirement for one candidate.
package judge

import (
	"context"

	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
)

// Request is everything the judge sees for one candidate. Requirements carry
// canonical ids so verdicts can be matched exactly.
type Request struct {
	JobTitle      string
	Requirements  []requirements.Canonical
	CandidateText string
}

// Response is the judge's structured answer.
type Response struct {
	CandidateName    string              `json:"candidateName"`
	CandidateEmail   string              `json:"candidateEmail"`
	TotalExperience  string              `json:"totalExperience"`
	Summary          string              `json:"summary"`
	Strengths        []string            `json:"strengths"`
	Weaknesses       []string            `json:"weaknesses"`
	InterviewProbes  []string            `json:"interviewProbes"`
	AlignmentDetails []alignment.Verdict `json:"alignmentDetails"`
	Raw              string              `json:"-"`
}

// Judge assesses one candidate against the requirements.
type Judge interface {
	Assess(ctx context.Context, req Request) (*Response, error)
}

// Extractor structures a raw posting into a requirement model.
type Extractor interface {
	Extract(ctx context.Context, postingText string) (*requirements.Model, error)
}
