package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/judge"
	"github.com/malik-zulfi/Jiggar-sub000/internal/logger"
	"github.com/malik-zulfi/Jiggar-sub000/internal/recommendation"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
	"github.com/malik-zulfi/Jiggar-sub000/internal/utils"
	"go.uber.org/zap"
)

// Assessor produces fresh results by consulting the judge through the retry
// policy and reconciling its verdicts.
type Assessor struct {
	judge      judge.Judge
	reconciler *alignment.Reconciler
	retrier    *retry.Retrier
	logger     *zap.Logger
	now        func() time.Time
}

func NewAssessor(j judge.Judge, retrier *retry.Retrier, log *zap.Logger) *Assessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assessor{
		judge:      j,
		reconciler: alignment.NewReconciler(log),
		retrier:    retrier,
		logger:     log,
		now:        time.Now,
	}
}

// Evaluate computes a result for one candidate text without touching any session.
func (a *Assessor) Evaluate(ctx context.Context, jobTitle string, model *requirements.Model, text string, profile *Profile) (*Result, error) {
	if a.judge == nil {
		return nil, errors.New("judge is not configured")
	}
	if model == nil {
		return nil, errors.New("requirement model is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCandidate
	}

	started := a.now()

	req := judge.Request{
		JobTitle:      jobTitle,
		Requirements:  model.Canonical(),
		CandidateText: text,
	}
	resp, err := retry.Do(ctx, a.retrier, "assess candidate", func(ctx context.Context) (*judge.Response, error) {
		return a.judge.Assess(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	outcome, err := a.reconciler.Reconcile(model, resp.AlignmentDetails)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Totals:           outcome.Totals,
		Recommendation:   recommendation.Classify(outcome.Details, outcome.AlignmentScore),
		AlignmentDetails: outcome.Details,
		CandidateName:    resp.CandidateName,
		CandidateEmail:   resp.CandidateEmail,
		TotalExperience:  resp.TotalExperience,
		Summary:          resp.Summary,
		Strengths:        resp.Strengths,
		Weaknesses:       resp.Weaknesses,
		InterviewProbes:  resp.InterviewProbes,
	}
	applyProfile(result, profile)

	finished := a.now()
	result.ProcessingTime = utils.Round2(finished.Sub(started).Seconds())
	result.AssessedAt = finished.UTC()
	return result, nil
}

func applyProfile(r *Result, p *Profile) {
	if p == nil {
		return
	}
	if v := strings.TrimSpace(p.Name); v != "" {
		r.CandidateName = v
	}
	if v := strings.TrimSpace(p.Email); v != "" {
		r.CandidateEmail = v
	}
	if v := strings.TrimSpace(p.TotalExperience); v != "" {
		r.TotalExperience = v
	}
}

// AssessCandidate re-assesses one candidate of the session. On success the
// result is replaced; on failure the previous result is kept and the
// candidate is marked as errored.
func (a *Assessor) AssessCandidate(ctx context.Context, s *Session, ref string) (*Result, error) {
	c, err := s.Candidate(ref)
	if err != nil {
		return nil, err
	}

	log := logger.WithCandidate(a.logger, c.ID, c.Name).With(zap.String(logger.FieldSessionID, s.ID))
	log.Info("assessing candidate")

	result, err := a.Evaluate(ctx, s.JobTitle, s.Model, c.Text, c.Profile)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("candidate assessment interrupted", zap.Error(err))
			return nil, err
		}
		c.Status = StatusError
		c.LastError = err.Error()
		s.touch()
		log.Warn("candidate assessment failed", zap.Error(err))
		return nil, err
	}

	c.Result = result
	c.Status = StatusAssessed
	c.LastError = ""
	if c.Name == "" {
		c.Name = result.CandidateName
	}
	s.touch()

	log.Info("candidate assessed",
		zap.Float64("alignment_score", result.AlignmentScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Float64("processing_time", result.ProcessingTime),
	)
	return result, nil
}

// Failure describes one candidate a batch could not assess.
type Failure struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

// BatchReport summarises a batch run.
type BatchReport struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// AssessBatch works through the referenced candidates one at a time, in
// order. A failed candidate does not stop the batch; a cancelled context does,
// and the candidates not yet reached are left as they were.
func (a *Assessor) AssessBatch(ctx context.Context, s *Session, refs []string) (*BatchReport, error) {
	queue := make([]*Candidate, 0, len(refs))
	for _, ref := range refs {
		c, err := s.Candidate(ref)
		if err != nil {
			return nil, err
		}
		queue = append(queue, c)
	}

	report := &BatchReport{}
	for i, c := range queue {
		if err := ctx.Err(); err != nil {
			a.logger.Warn("batch interrupted",
				zap.Int("done", i),
				zap.Int("remaining", len(queue)-i),
				zap.Error(err),
			)
			return report, err
		}

		if _, err := a.AssessCandidate(ctx, s, c.ID); err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			report.Failed = append(report.Failed, Failure{CandidateID: c.ID, Name: c.Name, Reason: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, c.ID)
	}

	a.logger.Info("batch finished",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// String renders the report for the CLI.
func (r *BatchReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "assessed %d candidate(s)", len(r.Succeeded))
	if len(r.Failed) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, ", %d failed:", len(r.Failed))
	for _, f := range r.Failed {
		name := f.Name
		if name == "" {
			name = f.CandidateID
		}
		fmt.Fprintf(&b, "\n  - %s: %s", name, f.Reason)
	}
	return b.String()
}
