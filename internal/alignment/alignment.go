// Package alignment reconciles the judge's per-requirement verdicts with the
// canonical requirement model and computes candidate scores.
package alignment

import (
	"errors"
	"strings"

	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"github.com/malik-zulfi/Jiggar-sub000/internal/utils"
)

// ErrNoAlignmentDetails is returned when the judge produced no verdicts at all.
// It is never turned into a zero score.
var ErrNoAlignmentDetails = errors.New("judge response contains no alignment details")

// Status is the judge's qualitative opinion on one requirement.
type Status string

const (
	Aligned          Status = "Aligned"
	PartiallyAligned Status = "Partially Aligned"
	NotAligned       Status = "Not Aligned"
	NotMentioned     Status = "Not Mentioned"
)

// Statuses lists every known status.
var Statuses = []Status{Aligned, PartiallyAligned, NotAligned, NotMentioned}

// ParseStatus accepts the canonical spellings as well as case, underscore and
// hyphen variations ("partially_aligned", "NOT-MENTIONED").
func ParseStatus(s string) (Status, bool) {
	key := statusKey(s)
	for _, st := range Statuses {
		if statusKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

func statusKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// Award returns the points earned for a requirement worth pointValue.
func (s Status) Award(pointValue int) int {
	switch s {
	case Aligned:
		return pointValue
	case PartiallyAligned:
		return (pointValue + 1) / 2
	default:
		return 0
	}
}

// Counts reports whether a row with this status belongs in the denominator.
func (s Status) Counts() bool {
	return s != NotMentioned
}

// Verdict is the judge's raw opinion on one requirement.
type Verdict struct {
	RequirementID string `json:"requirementId,omitempty"`
	Category      string `json:"category"`
	Requirement   string `json:"requirement"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	Justification string `json:"justification"`
}

// MatchKind records how a verdict was tied to a canonical requirement.
type MatchKind string

const (
	MatchID          MatchKind = "id"
	MatchDescription MatchKind = "description"
	MatchNormalized  MatchKind = "normalized-description"
	MatchDefault     MatchKind = "default"
)

// ScoredAlignment is a verdict after reconciliation.
type ScoredAlignment struct {
	RequirementID string                `json:"requirementId,omitempty"`
	Category      requirements.Category `json:"category"`
	Requirement   string                `json:"requirement"`
	Priority      requirements.Priority `json:"priority"`
	Status        Status                `json:"status"`
	Justification string                `json:"justification"`
	Score         int                   `json:"score"`
	// MaxScore is the row's contribution to the denominator.
	MaxScore   int       `json:"maxScore"`
	PointValue int       `json:"pointValue"`
	Match      MatchKind `json:"match"`
	IsEdited   bool      `json:"isEdited"`
}

// rescore derives Score and MaxScore from Status and PointValue.
func (a *ScoredAlignment) rescore() {
	a.Score = a.Status.Award(a.PointValue)
	a.refreshMax()
}

func (a *ScoredAlignment) refreshMax() {
	if a.Status.Counts() {
		a.MaxScore = a.PointValue
	} else {
		a.MaxScore = 0
	}
}

// Totals are the aggregate numbers of a result.
type Totals struct {
	CandidateScore int     `json:"candidateScore"`
	MaxScore       int     `json:"maxScore"`
	AlignmentScore float64 `json:"alignmentScore"`
}

// Aggregate sums the rows and derives the 0-100 alignment score.
func Aggregate(details []ScoredAlignment) Totals {
	var t Totals
	for _, d := range details {
		t.CandidateScore += d.Score
		t.MaxScore += d.MaxScore
	}
	if t.CandidateScore > 0 && t.MaxScore > 0 {
		t.AlignmentScore = utils.Round2(float64(t.CandidateScore) / float64(t.MaxScore) * 100)
	}
	if t.AlignmentScore > 100 {
		t.AlignmentScore = 100
	}
	return t
}

// Outcome is the product of one reconciliation pass.
type Outcome struct {
	Totals
	Details []ScoredAlignment
	// Unmatched counts verdicts scored with a default point value.
	Unmatched int
	// Dropped counts duplicate verdicts that were ignored.
	Dropped int
}
