package services

import (
	"context"
	"fmt"

	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// AgentRedactor tags the prompt template the redactor renders.
const AgentRedactor = "redactor"

// RedactionService strips personally identifiable information from section
// text before it is stored on the row. The full unredacted text still lives
// in the content store; only the inline copy is redacted.
type RedactionService interface {
	Redact(ctx context.Context, content string) (string, error)
}

type redactionService struct {
	log     *logger.Logger
	llm     openai.Client
	prompts repos.PromptTemplateRepo
	retry   RetryPolicy
}

func NewRedactionService(baseLog *logger.Logger, llm openai.Client, prompts repos.PromptTemplateRepo) RedactionService {
	return &redactionService{
		log:     baseLog.With("service", "RedactionService"),
		llm:     llm,
		prompts: prompts,
		retry:   DefaultRetryPolicy(),
	}
}

var redactedSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"redacted_text": map[string]any{"type": "string"},
	},
	"required":             []string{"redacted_text"},
	"additionalProperties": false,
}

func (s *redactionService) Redact(ctx context.Context, content string) (string, error) {
	tpl, err := s.prompts.GetLatestBy(dbctx.New(ctx), AgentRedactor, "", "")
	if err != nil {
		return "", fmt.Errorf("no prompt template found for agent %q: %w", AgentRedactor, err)
	}

	prompt := RenderTemplate(tpl.Template, map[string]string{"contextText": content})

	var redacted string
	err = s.retry.Execute(ctx, func(ctx context.Context) error {
		obj, llmErr := s.llm.GenerateJSON(ctx, "", prompt, "redacted_content", redactedSchema)
		if llmErr != nil {
			return llmErr
		}
		text, ok := obj["redacted_text"].(string)
		if !ok {
			return fmt.Errorf("redactor response missing redacted_text")
		}
		redacted = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return redacted, nil
}
