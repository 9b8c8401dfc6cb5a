package alignment

import (
	"errors"
	"fmt"
)

var (
	ErrRowNotFound     = errors.New("alignment row not found")
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyEdit       = errors.New("edit sets neither status nor score")
)

// RowEdit is a manual override of one row. The row is addressed by
// RequirementID when set, otherwise by its zero-based position.
type RowEdit struct {
	RequirementID string
	Row           *int
	Status        *Status
	Score         *int
}

// ApplyEdits returns a copy of details with the edits applied. When only a
// status is given the score follows from it. The input is never modified; on
// error nothing is applied.
func ApplyEdits(details []ScoredAlignment, edits []RowEdit) ([]ScoredAlignment, error) {
	out := make([]ScoredAlignment, len(details))
	copy(out, details)

	for n, e := range edits {
		pos, err := findRow(out, e)
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", n, err)
		}
		if e.Status == nil && e.Score == nil {
			return nil, fmt.Errorf("edit %d: %w", n, ErrEmptyEdit)
		}

		row := out[pos]
		before := row

		if e.Status != nil {
			status, ok := ParseStatus(string(*e.Status))
			if !ok {
				return nil, fmt.Errorf("edit %d: %w: %q", n, ErrInvalidStatus, *e.Status)
			}
			row.Status = status
			row.Score = status.Award(row.PointValue)
		}
		if e.Score != nil {
			limit := row.PointValue
			if !row.Status.Counts() {
				limit = 0
			}
			if *e.Score < 0 || *e.Score > limit {
				return nil, fmt.Errorf("edit %d (%s): %w: %d not in [0, %d]", n, row.Requirement, ErrScoreOutOfRange, *e.Score, limit)
			}
			row.Score = *e.Score
		}
		row.refreshMax()

		if row.Status != before.Status || row.Score != before.Score {
			row.IsEdited = true
		}
		out[pos] = row
	}

	return out, nil
}

func findRow(details []ScoredAlignment, e RowEdit) (int, error) {
	if e.RequirementID != "" {
		for i, d := range details {
			if d.RequirementID == e.RequirementID {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: requirement %q", ErrRowNotFound, e.RequirementID)
	}
	if e.Row != nil && *e.Row >= 0 && *e.Row < len(details) {
		return *e.Row, nil
	}
	return -1, ErrRowNotFound
}
