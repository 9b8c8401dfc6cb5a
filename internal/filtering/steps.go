package filtering

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type staleFilter struct {
	toggle
}

// NewStale creates a filter that keeps candidates whose result is missing,
// stale or failed.
func NewStale() Filter {
	return &staleFilter{}
}

func (f *staleFilter) Name() string { return "stale" }

func (f *staleFilter) Validate() error { return nil }

func (f *staleFilter) Apply(_ context.Context, deps Deps, c []*assessment.Candidate) ([]*assessment.Candidate, Step, error) {
	initial := len(c)
	kept, dropped := keep(c, needsAssessment)
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("skipping candidates with up-to-date results",
			zap.Strings("skipped_candidates", dropped),
			zap.Int("candidates_left", len(kept)),
		)
	}
	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *staleFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

func needsAssessment(c *assessment.Candidate) bool {
	return c.Result == nil || c.Result.IsStale || c.Status == assessment.StatusError
}

type namesFilter struct {
	toggle
	refs []string
}

// NewNames creates a filter that keeps candidates matching one of refs by id
// or by case-insensitive name. An empty list keeps everyone.
func NewNames(refs []string) Filter {
	var cleaned []string
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	return &namesFilter{refs: cleaned}
}

func (f *namesFilter) Name() string { return "names" }

func (f *namesFilter) Validate() error { return nil }

func (f *namesFilter) Apply(_ context.Context, deps Deps, c []*assessment.Candidate) ([]*assessment.Candidate, Step, error) {
	initial := len(c)
	if len(f.refs) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	matched := make(map[string]bool, len(f.refs))
	kept, dropped := keep(c, func(candidate *assessment.Candidate) bool {
		for _, ref := range f.refs {
			if candidate.ID == ref || strings.EqualFold(candidate.Name, ref) {
				matched[ref] = true
				return true
			}
		}
		return false
	})

	var unknown []string
	for _, ref := range f.refs {
		if !matched[ref] {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		return nil, Step{}, errors.New("unknown candidates: " + strings.Join(unknown, ", "))
	}

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("candidates not selected",
			zap.Strings("skipped_candidates", dropped),
			zap.Int("candidates_left", len(kept)),
		)
	}
	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *namesFilter) Status() Status {
	details := map[string]string{}
	if len(f.refs) > 0 {
		details["names"] = strings.Join(f.refs, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type erroredFilter struct {
	toggle
}

// NewErrored creates a filter that keeps only candidates whose last
// assessment failed.
func NewErrored() Filter {
	return &erroredFilter{}
}

func (f *erroredFilter) Name() string { return "errored" }

func (f *erroredFilter) Validate() error { return nil }

func (f *erroredFilter) Apply(_ context.Context, deps Deps, c []*assessment.Candidate) ([]*assessment.Candidate, Step, error) {
	initial := len(c)
	kept, dropped := keep(c, func(candidate *assessment.Candidate) bool {
		return candidate.Status == assessment.StatusError
	})
	if deps.Logger != nil && len(kept) > 0 {
		deps.Logger.Info("retrying failed candidates", zap.Int("candidates", len(kept)))
	}
	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *erroredFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
