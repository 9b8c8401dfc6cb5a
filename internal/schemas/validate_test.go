package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJudgeResponse(t *testing.T) {
	valid := `{
		"candidateName": "Ada",
		"strengths": ["Go"],
		"alignmentDetails": [
			{"requirementId": "r1", "category": "Technical Skills", "requirement": "Go", "priority": "MUST_HAVE", "status": "Aligned", "justification": "5 years"}
		]
	}`
	assert.NoError(t, Validate(JudgeResponse, valid))

	// An empty list is schema-valid; rejecting it is up to reconciliation.
	assert.NoError(t, Validate(JudgeResponse, `{"alignmentDetails": []}`))
}

func TestValidateJudgeResponseFieldErrors(t *testing.T) {
	err := Validate(JudgeResponse, `{"alignmentDetails": [{"requirement": "Go"}], "strengths": "Go"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	assert.GreaterOrEqual(t, len(validationErr.Errors), 2)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateMalformedDocument(t *testing.T) {
	err := Validate(JudgeResponse, `{ invalid json }`)
	require.Error(t, err)

	var docErr *DocumentError
	assert.True(t, errors.As(err, &docErr), "expected DocumentError, got %T", err)
}

func TestValidateRequirementModel(t *testing.T) {
	valid := `{
		"jobTitle": "Backend Engineer",
		"technicalSkills": {"MUST_HAVE": [{"requirement": {"description": "Go", "score": 10}}]},
		"education": {"MUST_HAVE": [{"group": {"groupType": "ANY", "requirements": [{"description": "BSc", "score": 10}]}}]},
		"experience": {"minimumYears": 5, "fields": ["Go"], "priority": "MUST_HAVE", "score": 10}
	}`
	assert.NoError(t, Validate(RequirementModel, valid))

	emptyGroup := `{"education": {"MUST_HAVE": [{"group": {"groupType": "ANY", "requirements": []}}]}}`
	assert.Error(t, Validate(RequirementModel, emptyGroup))

	nested := `{"education": {"MUST_HAVE": [{"requirement": {"description": "BSc"}, "group": {"groupType": "ALL", "requirements": [{"description": "MSc"}]}}]}}`
	assert.Error(t, Validate(RequirementModel, nested))

	badBucket := `{"softSkills": {"OPTIONAL": []}}`
	assert.Error(t, Validate(RequirementModel, badBucket))
}

func TestUnknownSchemaIsLoadError(t *testing.T) {
	err := Validate("missing", `{}`)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing", loadErr.Path)
}

func TestValidateJSONStringBrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr), "expected SchemaLoadError, got %v", err)
}
