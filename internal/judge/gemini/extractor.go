package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/malik-zulfi/Jiggar-sub000/internal/judge"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
	"github.com/malik-zulfi/Jiggar-sub000/internal/schemas"
	"github.com/malik-zulfi/Jiggar-sub000/internal/utils"
	"go.uber.org/zap"
)

//go:embed extract_prompt.md
var extractPrompt string

// Extractor structures a raw posting into a requirement model with Gemini.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ judge.Extractor = (*Extractor)(nil)

func NewExtractor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

// Extract makes a single extraction call and returns a validated model with
// fresh ids and creation snapshots.
func (e *Extractor) Extract(ctx context.Context, postingText string) (*requirements.Model, error) {
	postingText = strings.TrimSpace(postingText)
	if postingText == "" {
		return nil, errors.New("posting text is required")
	}

	message := "[Posting]\n" + postingText

	e.logger.Debug("gemini extract request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(postingText, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, extractPrompt, message)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini extract response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseModel(raw)
}

func parseModel(raw string) (*requirements.Model, error) {
	cleaned := extractJSON(raw)

	if err := schemas.Validate(schemas.RequirementModel, cleaned); err != nil {
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, retry.NewTransientError(fmt.Errorf("extracted model rejected: %w", err))
	}

	var model requirements.Model
	if err := json.Unmarshal([]byte(cleaned), &model); err != nil {
		return nil, retry.NewTransientError(fmt.Errorf("parse extracted model: %w", err))
	}

	for _, c := range requirements.Categories {
		if section := model.Section(c); section != nil {
			defaultScores(section.MustHave, requirements.MustHave)
			defaultScores(section.NiceToHave, requirements.NiceToHave)
		}
	}
	if exp := model.Experience; exp != nil {
		if !exp.Priority.Valid() {
			exp.Priority = requirements.MustHave
		}
		if exp.Score == 0 {
			exp.Score = exp.Priority.DefaultScore()
		}
	}
	model.Prepare()

	if err := model.Validate(); err != nil {
		return nil, retry.NewTransientError(fmt.Errorf("extracted model is inconsistent: %w", err))
	}
	return &model, nil
}

// defaultScores gives unscored requirements the default of their bucket.
func defaultScores(entries []requirements.Entry, bucket requirements.Priority) {
	for _, e := range entries {
		if e.Requirement != nil && e.Requirement.Score == 0 {
			e.Requirement.Score = bucket.DefaultScore()
		}
		if e.Group == nil {
			continue
		}
		for i := range e.Group.Requirements {
			if e.Group.Requirements[i].Score == 0 {
				e.Group.Requirements[i].Score = bucket.DefaultScore()
			}
		}
	}
}
