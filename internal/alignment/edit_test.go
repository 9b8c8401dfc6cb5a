package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func editableRows() []ScoredAlignment {
	rows := []ScoredAlignment{
		{RequirementID: "java", Requirement: "5 years Java", Status: Aligned, PointValue: 10},
		{RequirementID: "aws", Requirement: "AWS", Status: NotMentioned, PointValue: 5},
		{Requirement: "Paraphrased", Status: NotAligned, PointValue: 10, Match: MatchDefault},
	}
	for i := range rows {
		rows[i].rescore()
	}
	return rows
}

func TestApplyEditsStatusDerivesScore(t *testing.T) {
	rows := editableRows()

	got, err := ApplyEdits(rows, []RowEdit{{RequirementID: "aws", Status: ptr(PartiallyAligned)}})
	require.NoError(t, err)

	assert.Equal(t, 3, got[1].Score)
	assert.Equal(t, 5, got[1].MaxScore)
	assert.True(t, got[1].IsEdited)
	assert.False(t, got[0].IsEdited)

	assert.Equal(t, NotMentioned, rows[1].Status, "input must not be modified")
	assert.Equal(t, 0, rows[1].MaxScore)
}

func TestApplyEditsExplicitScoreByRow(t *testing.T) {
	got, err := ApplyEdits(editableRows(), []RowEdit{{Row: ptr(2), Score: ptr(4)}})
	require.NoError(t, err)

	assert.Equal(t, 4, got[2].Score)
	assert.Equal(t, NotAligned, got[2].Status)
	assert.True(t, got[2].IsEdited)

	totals := Aggregate(got)
	assert.Equal(t, 14, totals.CandidateScore)
	assert.Equal(t, 20, totals.MaxScore)
	assert.Equal(t, 70.0, totals.AlignmentScore)
}

func TestApplyEditsUnchangedRowIsNotFlagged(t *testing.T) {
	got, err := ApplyEdits(editableRows(), []RowEdit{{RequirementID: "java", Status: ptr(Aligned), Score: ptr(10)}})
	require.NoError(t, err)
	assert.False(t, got[0].IsEdited)
}

func TestApplyEditsRejectsInvalidEdits(t *testing.T) {
	rows := editableRows()

	cases := []struct {
		name string
		edit RowEdit
		want error
	}{
		{name: "unknown requirement", edit: RowEdit{RequirementID: "rust", Status: ptr(Aligned)}, want: ErrRowNotFound},
		{name: "row out of range", edit: RowEdit{Row: ptr(9), Status: ptr(Aligned)}, want: ErrRowNotFound},
		{name: "empty", edit: RowEdit{RequirementID: "java"}, want: ErrEmptyEdit},
		{name: "bad status", edit: RowEdit{RequirementID: "java", Status: ptr(Status("Great"))}, want: ErrInvalidStatus},
		{name: "above point value", edit: RowEdit{RequirementID: "java", Score: ptr(11)}, want: ErrScoreOutOfRange},
		{name: "negative", edit: RowEdit{RequirementID: "java", Score: ptr(-1)}, want: ErrScoreOutOfRange},
		{name: "points for not mentioned", edit: RowEdit{RequirementID: "aws", Score: ptr(2)}, want: ErrScoreOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyEdits(rows, []RowEdit{tc.edit})
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, got)
		})
	}
	assert.Equal(t, editableRows(), rows)
}
