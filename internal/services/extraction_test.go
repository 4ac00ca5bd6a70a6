package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

func newExtractionService(llm *fakeLLM, prompts *fakePromptRepo) ExtractionService {
	return &extractionService{
		log:     logger.NewNop(),
		llm:     llm,
		prompts: prompts,
		retry:   RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	}
}

func TestExtractSectionsDropsInventedCandidates(t *testing.T) {
	text := "The officer attended the scene at 9pm. The defendant stated that he was at home before midnight."

	prompts := newFakePromptRepo()
	prompts.seed(AgentSectionExtractor, "", "", "List narratives in {{contextText}}")

	llm := &fakeLLM{jsonFn: func(prompt, schemaName string) (map[string]any, error) {
		if schemaName != "section_narratives" {
			t.Fatalf("schema name: want=section_narratives got=%s", schemaName)
		}
		return map[string]any{"narratives": []any{
			"The officer attended the scene at 9pm.",
			"a fabricated passage that appears nowhere in the document",
			"defendant stated that he was at home",
		}}, nil
	}}

	svc := newExtractionService(llm, prompts)
	sections, err := svc.ExtractSections(context.Background(), text)
	if err != nil {
		t.Fatalf("ExtractSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("sections: want=2 got=%v", sections)
	}
	if sections[0] != "The officer attended the scene at 9pm." {
		t.Fatalf("first section: got %q", sections[0])
	}

	// The rendered prompt carries the document text, not the placeholder.
	if llm.promptCount(func(p string) bool { return strings.Contains(p, "List narratives in The officer") }) != 1 {
		t.Fatalf("prompt not rendered from template: %v", llm.prompts)
	}
}

func TestExtractSectionsEmptyListIsValid(t *testing.T) {
	prompts := newFakePromptRepo()
	prompts.seed(AgentSectionExtractor, "", "", "{{contextText}}")

	llm := &fakeLLM{jsonFn: func(string, string) (map[string]any, error) {
		return map[string]any{"narratives": []any{}}, nil
	}}

	svc := newExtractionService(llm, prompts)
	sections, err := svc.ExtractSections(context.Background(), "some parsed text")
	if err != nil {
		t.Fatalf("ExtractSections: %v", err)
	}
	if sections == nil || len(sections) != 0 {
		t.Fatalf("sections: want empty slice got=%v", sections)
	}
}

func TestExtractSectionsMissingTemplateFails(t *testing.T) {
	llm := &fakeLLM{}
	svc := newExtractionService(llm, newFakePromptRepo())

	if _, err := svc.ExtractSections(context.Background(), "text"); err == nil {
		t.Fatalf("expected error without a section_extractor template")
	} else if !strings.Contains(err.Error(), AgentSectionExtractor) {
		t.Fatalf("error should name the agent: %v", err)
	}
	if llm.jsonCalls != 0 {
		t.Fatalf("llm must not be called without a template, got %d calls", llm.jsonCalls)
	}
}

func TestExtractSectionsRetriesThenSucceeds(t *testing.T) {
	text := "The property was recovered from the vehicle."

	prompts := newFakePromptRepo()
	prompts.seed(AgentSectionExtractor, "", "", "{{contextText}}")

	calls := 0
	llm := &fakeLLM{jsonFn: func(string, string) (map[string]any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("upstream flake")
		}
		return map[string]any{"narratives": []any{"recovered from the vehicle"}}, nil
	}}

	svc := newExtractionService(llm, prompts)
	sections, err := svc.ExtractSections(context.Background(), text)
	if err != nil {
		t.Fatalf("ExtractSections: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("sections: want=1 got=%v", sections)
	}
	if calls != 3 {
		t.Fatalf("llm calls: want=3 got=%d", calls)
	}
}

func TestExtractSectionsExhaustionSurfacesError(t *testing.T) {
	prompts := newFakePromptRepo()
	prompts.seed(AgentSectionExtractor, "", "", "{{contextText}}")

	llm := &fakeLLM{jsonFn: func(string, string) (map[string]any, error) {
		return nil, errors.New("hard down")
	}}

	svc := newExtractionService(llm, prompts)
	_, err := svc.ExtractSections(context.Background(), "text")
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error type: want RetryExhaustedError got %T (%v)", err, err)
	}
	if llm.jsonCalls != 3 {
		t.Fatalf("llm calls: want=3 got=%d", llm.jsonCalls)
	}
}
