package services

import (
	"context"
	"fmt"

	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/textmatch"
)

// AgentSectionExtractor tags the prompt template the extractor renders.
const AgentSectionExtractor = "section_extractor"

// ExtractionService pulls narrative sections out of parsed document text.
// Every candidate the model proposes is checked against the source text; a
// candidate the model invented is dropped, not an error. An empty list is a
// valid outcome.
type ExtractionService interface {
	ExtractSections(ctx context.Context, text string) ([]string, error)
}

type extractionService struct {
	log     *logger.Logger
	llm     openai.Client
	prompts repos.PromptTemplateRepo
	retry   RetryPolicy
}

func NewExtractionService(baseLog *logger.Logger, llm openai.Client, prompts repos.PromptTemplateRepo) ExtractionService {
	return &extractionService{
		log:     baseLog.With("service", "ExtractionService"),
		llm:     llm,
		prompts: prompts,
		retry:   DefaultRetryPolicy(),
	}
}

var narrativesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"narratives": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required":             []string{"narratives"},
	"additionalProperties": false,
}

func (s *extractionService) ExtractSections(ctx context.Context, text string) ([]string, error) {
	tpl, err := s.prompts.GetLatestBy(dbctx.New(ctx), AgentSectionExtractor, "", "")
	if err != nil {
		return nil, fmt.Errorf("no prompt template found for agent %q: %w", AgentSectionExtractor, err)
	}

	prompt := RenderTemplate(tpl.Template, map[string]string{"contextText": text})

	var candidates []string
	err = s.retry.Execute(ctx, func(ctx context.Context) error {
		obj, llmErr := s.llm.GenerateJSON(ctx, "", prompt, "section_narratives", narrativesSchema)
		if llmErr != nil {
			return llmErr
		}
		candidates = asStringList(obj["narratives"])
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		s.log.Warn("no sections extracted from document")
		return []string{}, nil
	}
	s.log.Debug("sections extracted", "count", len(candidates))

	sections := make([]string, 0, len(candidates))
	for idx, candidate := range candidates {
		if !textmatch.IsValidSubset(text, candidate) {
			s.log.Warn("extracted section failed subset validation; skipping", "index", idx)
			continue
		}
		sections = append(sections, candidate)
	}
	return sections, nil
}
