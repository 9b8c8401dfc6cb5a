package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/judge"
	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
	"github.com/malik-zulfi/Jiggar-sub000/internal/schemas"
	"github.com/malik-zulfi/Jiggar-sub000/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 600
	maxFocusRunes           = 200
)

// PromptOverrides are optional hiring-manager preferences rendered into the
// system prompt.
type PromptOverrides struct {
	Focus            string
	UserInstructions string
}

// Judge asks Gemini for per-requirement verdicts.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

var _ judge.Judge = (*Judge)(nil)

func NewJudge(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (j *Judge) SetPromptOverrides(overrides PromptOverrides) {
	j.overrides = overrides
}

// Assess makes a single judge call. Malformed or schema-invalid output is
// returned as a transient error so the caller's retry policy applies.
func (j *Judge) Assess(ctx context.Context, req judge.Request) (*judge.Response, error) {
	if len(req.Requirements) == 0 {
		return nil, errors.New("at least one requirement is required")
	}
	if strings.TrimSpace(req.CandidateText) == "" {
		return nil, errors.New("candidate text is required")
	}

	system := buildSystemPrompt(j.overrides)
	message, err := buildMessage(req)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("gemini judge request",
		zap.Int("requirements", len(req.Requirements)),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("gemini judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	resp, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return resp, nil
}

type requirementPayload struct {
	RequirementID string `json:"requirementId"`
	Category      string `json:"category"`
	Requirement   string `json:"requirement"`
	Priority      string `json:"priority"`
	Group         string `json:"group,omitempty"`
}

func buildMessage(req judge.Request) (string, error) {
	payload := make([]requirementPayload, 0, len(req.Requirements))
	for _, c := range req.Requirements {
		payload = append(payload, requirementPayload{
			RequirementID: c.ID,
			Category:      string(c.Category),
			Requirement:   c.Description,
			Priority:      string(c.Priority),
			Group:         string(c.GroupType),
		})
	}

	requirementsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal requirements payload: %w", err)
	}

	title := strings.TrimSpace(req.JobTitle)
	if title == "" {
		title = "(untitled position)"
	}

	var b strings.Builder
	b.WriteString("[Inputs]\n")
	b.WriteString("Job title: " + title + "\n\n")
	b.WriteString("Requirements:\n")
	b.Write(requirementsJSON)
	b.WriteString("\n\nResume:\n")
	b.WriteString(strings.TrimSpace(req.CandidateText))
	return b.String(), nil
}

func buildSystemPrompt(overrides PromptOverrides) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Judge every requirement.\nFocus: {{FOCUS}}\nInstructions:\n{{USER_INSTRUCTIONS}}\nJSON Response:"
	}

	focus := sanitizeSingleLine(overrides.Focus, maxFocusRunes)
	if focus == "" {
		focus = "none"
	}

	prompt := strings.ReplaceAll(template, "{{FOCUS}}", focus)
	prompt = strings.ReplaceAll(prompt, "{{USER_INSTRUCTIONS}}", sanitizeInstructions(overrides.UserInstructions))
	return prompt
}

// sanitizeSingleLine collapses whitespace and neutralises section markers.
func sanitizeSingleLine(s string, limit int) string {
	s = neutralizeMarkers(strings.Join(strings.Fields(s), " "))
	return truncateRunes(s, limit)
}

// sanitizeInstructions renders free text as an indented bullet list, one line
// per non-empty input line.
func sanitizeInstructions(s string) string {
	s = truncateRunes(strings.TrimSpace(s), maxUserInstructionRunes)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = neutralizeMarkers(strings.Join(strings.Fields(line), " "))
		if line == "" {
			continue
		}
		lines = append(lines, "  - "+line)
	}
	if len(lines) == 0 {
		return "  - none"
	}
	return strings.Join(lines, "\n")
}

func neutralizeMarkers(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

type rawResponse struct {
	CandidateName    string              `json:"candidateName"`
	CandidateEmail   string              `json:"candidateEmail"`
	TotalExperience  any                 `json:"totalExperience"`
	Summary          string              `json:"summary"`
	Strengths        []string            `json:"strengths"`
	Weaknesses       []string            `json:"weaknesses"`
	InterviewProbes  []string            `json:"interviewProbes"`
	AlignmentDetails []alignment.Verdict `json:"alignmentDetails"`
}

func parseResponse(raw string) (*judge.Response, error) {
	cleaned := extractJSON(raw)

	if err := schemas.Validate(schemas.JudgeResponse, cleaned); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, retry.NewTransientError(fmt.Errorf("judge response rejected: %w", err))
	}

	var data rawResponse
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, retry.NewTransientError(fmt.Errorf("parse gemini response: %w", err))
	}

	resp := &judge.Response{
		CandidateName:   strings.TrimSpace(data.CandidateName),
		CandidateEmail:  strings.TrimSpace(data.CandidateEmail),
		TotalExperience: coerceString(data.TotalExperience),
		Summary:         strings.TrimSpace(data.Summary),
		Strengths:       cleanList(data.Strengths),
		Weaknesses:      cleanList(data.Weaknesses),
		InterviewProbes: cleanList(data.InterviewProbes),
	}
	for n, v := range data.AlignmentDetails {
		status, ok := alignment.ParseStatus(v.Status)
		if !ok {
			return nil, retry.NewTransientError(fmt.Errorf("judge response rejected: verdict %d (%q) has unknown status %q", n, v.Requirement, v.Status))
		}
		v.RequirementID = strings.TrimSpace(v.RequirementID)
		v.Status = string(status)
		resp.AlignmentDetails = append(resp.AlignmentDetails, v)
	}
	return resp, nil
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64) + " years"
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
