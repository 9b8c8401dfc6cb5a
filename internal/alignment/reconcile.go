package alignment

import (
	"fmt"
	"strings"

	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"go.uber.org/zap"
)

// Reconciler turns verdicts plus the canonical model into scored rows.
type Reconciler struct {
	logger *zap.Logger
}

func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

type index struct {
	canonical []requirements.Canonical
	byID      map[string]int
	byExact   map[string][]int
	byNorm    map[string][]int
	used      []bool
}

func newIndex(model *requirements.Model) *index {
	canonical := model.Canonical()
	idx := &index{
		canonical: canonical,
		byID:      make(map[string]int, len(canonical)),
		byExact:   make(map[string][]int, len(canonical)),
		byNorm:    make(map[string][]int, len(canonical)),
		used:      make([]bool, len(canonical)),
	}
	for i, c := range canonical {
		idx.byID[c.ID] = i
		idx.byExact[c.Description] = append(idx.byExact[c.Description], i)
		norm := normalize(c.Description)
		idx.byNorm[norm] = append(idx.byNorm[norm], i)
	}
	return idx
}

// lookup returns the canonical position for v, or -1. duplicate is true when
// v matched only requirements that were already scored.
func (idx *index) lookup(v Verdict) (pos int, kind MatchKind, duplicate bool) {
	if id := strings.TrimSpace(v.RequirementID); id != "" {
		if i, ok := idx.byID[id]; ok {
			if idx.used[i] {
				return -1, MatchID, true
			}
			return i, MatchID, false
		}
	}

	if candidates, ok := idx.byExact[strings.TrimSpace(v.Requirement)]; ok {
		if i := idx.firstFree(candidates); i >= 0 {
			return i, MatchDescription, false
		}
		return -1, MatchDescription, true
	}

	if candidates, ok := idx.byNorm[normalize(v.Requirement)]; ok {
		if i := idx.firstFree(candidates); i >= 0 {
			return i, MatchNormalized, false
		}
		return -1, MatchNormalized, true
	}

	return -1, MatchDefault, false
}

func (idx *index) firstFree(positions []int) int {
	for _, i := range positions {
		if !idx.used[i] {
			return i
		}
	}
	return -1
}

// normalize lowercases and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Reconcile scores every verdict against the model. Rows keep the judge's order.
// Matching tries the canonical id, then the exact description, then the
// normalized description; anything else is scored with the default point value
// of its stated priority.
func (r *Reconciler) Reconcile(model *requirements.Model, verdicts []Verdict) (*Outcome, error) {
	if model == nil {
		return nil, fmt.Errorf("requirement model is required")
	}
	if len(verdicts) == 0 {
		return nil, ErrNoAlignmentDetails
	}

	idx := newIndex(model)
	out := &Outcome{Details: make([]ScoredAlignment, 0, len(verdicts))}
	unmatchedSeen := make(map[string]bool)

	for n, v := range verdicts {
		status, ok := ParseStatus(v.Status)
		if !ok {
			return nil, fmt.Errorf("verdict %d (%q): unknown status %q", n, v.Requirement, v.Status)
		}

		row := ScoredAlignment{
			Requirement:   strings.TrimSpace(v.Requirement),
			Status:        status,
			Justification: strings.TrimSpace(v.Justification),
		}

		pos, kind, duplicate := idx.lookup(v)
		switch {
		case duplicate:
			r.logger.Warn("dropping duplicate verdict",
				zap.String("requirement", row.Requirement),
				zap.String("requirement_id", v.RequirementID),
				zap.String("match", string(kind)),
			)
			out.Dropped++
			continue

		case pos >= 0:
			c := idx.canonical[pos]
			idx.used[pos] = true
			row.RequirementID = c.ID
			row.Category = c.Category
			row.Priority = c.Priority
			row.PointValue = c.PointValue
			row.Match = kind
			if row.Requirement == "" {
				row.Requirement = c.Description
			}
			if kind != MatchID {
				r.logger.Warn("verdict matched by description instead of id",
					zap.String("requirement", row.Requirement),
					zap.String("requirement_id", c.ID),
					zap.String("match", string(kind)),
				)
			}

		default:
			key := normalize(v.Requirement)
			if unmatchedSeen[key] {
				r.logger.Warn("dropping duplicate unmatched verdict", zap.String("requirement", row.Requirement))
				out.Dropped++
				continue
			}
			unmatchedSeen[key] = true

			priority, ok := requirements.ParsePriority(v.Priority)
			if !ok {
				priority = requirements.NiceToHave
			}
			category, ok := requirements.ParseCategory(v.Category)
			if !ok {
				category = requirements.Category(strings.TrimSpace(v.Category))
			}
			row.Category = category
			row.Priority = priority
			row.PointValue = priority.DefaultScore()
			row.Match = MatchDefault
			out.Unmatched++

			r.logger.Warn("verdict did not match any requirement, using default point value",
				zap.String("requirement", row.Requirement),
				zap.String("requirement_id", v.RequirementID),
				zap.String("priority", string(priority)),
				zap.Int("point_value", row.PointValue),
			)
		}

		row.rescore()
		out.Details = append(out.Details, row)
	}

	if len(out.Details) == 0 {
		return nil, ErrNoAlignmentDetails
	}

	out.Totals = Aggregate(out.Details)

	r.logger.Debug("reconciled verdicts",
		zap.Int("verdicts", len(verdicts)),
		zap.Int("rows", len(out.Details)),
		zap.Int("unmatched", out.Unmatched),
		zap.Int("dropped", out.Dropped),
		zap.Int("candidate_score", out.CandidateScore),
		zap.Int("max_score", out.MaxScore),
		zap.Float64("alignment_score", out.AlignmentScore),
	)

	return out, nil
}
