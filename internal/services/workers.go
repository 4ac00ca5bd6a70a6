package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/data/repos"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// Worker runs one analysis pass over section text and returns the rows it
// produced. Workers never persist; the orchestrator owns saving.
type Worker interface {
	Analyze(ctx context.Context, text, experimentID string, sectionID, analysisJobID int64) ([]*types.AnalysisResult, error)
}

// WorkerConfig carries per-task knobs. LLM workers read theme_id and
// pattern_id from it; the echo worker reads its canned fields.
type WorkerConfig map[string]any

func (c WorkerConfig) str(key string) string {
	return asString(c[key])
}

func (c WorkerConfig) float(key string) float64 {
	return asFloat(c[key])
}

// WorkerDeps is the full dependency set a factory may draw from, so the task
// registry can hold a single constructor signature for every worker kind.
type WorkerDeps struct {
	Log     *logger.Logger
	LLM     openai.Client
	Prompts repos.PromptTemplateRepo
}

// WorkerFactory builds a fresh worker for one task invocation. The context
// covers any construction-time template lookups.
type WorkerFactory func(ctx context.Context, deps WorkerDeps, config WorkerConfig) (Worker, error)

// NewEchoWorker returns a worker that reflects its config back as a single
// result row. It exercises the job pipeline without spending an LLM call.
func NewEchoWorker(_ context.Context, deps WorkerDeps, config WorkerConfig) (Worker, error) {
	return &echoWorker{
		log:    deps.Log.With("worker", "EchoWorker"),
		config: config,
	}, nil
}

type echoWorker struct {
	log    *logger.Logger
	config WorkerConfig
}

func (w *echoWorker) Analyze(_ context.Context, _ string, experimentID string, sectionID, analysisJobID int64) ([]*types.AnalysisResult, error) {
	w.log.Info("echoing configured result", "section_id", sectionID, "analysis_job_id", analysisJobID)
	return []*types.AnalysisResult{{
		ExperimentID:   experimentID,
		AnalysisJobID:  analysisJobID,
		Content:        w.config.str("content"),
		Justification:  w.config.str("justification"),
		SelfConfidence: floatPtr(w.config.float("self_confidence")),
	}}, nil
}

// NewSimpleLLMWorker returns a worker that renders a template carried in its
// own config, with no prompt repository behind it. One-off experiments use it
// to trial a prompt before the template is seeded.
func NewSimpleLLMWorker(_ context.Context, deps WorkerDeps, config WorkerConfig) (Worker, error) {
	return &simpleLLMWorker{
		log:       deps.Log.With("worker", "SimpleLLMWorker"),
		llm:       deps.LLM,
		template:  config.str("prompt_template"),
		themeID:   config.str("theme_id"),
		patternID: config.str("pattern_id"),
	}, nil
}

type simpleLLMWorker struct {
	log       *logger.Logger
	llm       openai.Client
	template  string
	themeID   string
	patternID string
}

func (w *simpleLLMWorker) Analyze(ctx context.Context, text, experimentID string, sectionID, analysisJobID int64) ([]*types.AnalysisResult, error) {
	if w.template == "" {
		return nil, fmt.Errorf("prompt template is not provided")
	}
	w.log.Info("analyzing section", "section_id", sectionID, "analysis_job_id", analysisJobID)

	prompt := RenderTemplate(w.template, map[string]string{"contextText": text})
	raw, err := w.llm.GenerateText(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	findings, err := parseAnalysisResults(raw)
	if err != nil {
		w.log.Warn("unparseable model response", "section_id", sectionID, "error", err)
		findings = nil
	}
	rows := w.buildRows(findings, experimentID, analysisJobID)
	w.log.Info("analysis finished", "section_id", sectionID, "results", len(rows))
	return rows, nil
}

func (w *simpleLLMWorker) buildRows(findings []map[string]any, experimentID string, analysisJobID int64) []*types.AnalysisResult {
	rows := make([]*types.AnalysisResult, 0, len(findings))
	for _, finding := range findings {
		rows = append(rows, &types.AnalysisResult{
			ExperimentID:   experimentID,
			AnalysisJobID:  analysisJobID,
			ThemeID:        w.themeID,
			PatternID:      w.patternID,
			Content:        asString(finding["content"]),
			Justification:  asString(finding["justification"]),
			CategoryID:     strings.Join(asStringList(finding["categories"]), ", "),
			SelfConfidence: floatPtr(asFloat(finding["self_confidence"])),
		})
	}
	return rows
}

// NewLLMWorker returns the repository-backed single-prompt worker: the latest
// template for (theme_id, pattern_id) is rendered against the section text
// and the response's analysis_results become rows.
func NewLLMWorker(_ context.Context, deps WorkerDeps, config WorkerConfig) (Worker, error) {
	return &llmWorker{
		log:       deps.Log.With("worker", "LLMWorker"),
		llm:       deps.LLM,
		prompts:   deps.Prompts,
		themeID:   config.str("theme_id"),
		patternID: config.str("pattern_id"),
		retry:     DefaultRetryPolicy(),
	}, nil
}

type llmWorker struct {
	log       *logger.Logger
	llm       openai.Client
	prompts   repos.PromptTemplateRepo
	themeID   string
	patternID string
	retry     RetryPolicy
}

func (w *llmWorker) Analyze(ctx context.Context, text, experimentID string, sectionID, analysisJobID int64) ([]*types.AnalysisResult, error) {
	w.log.Info("analyzing section", "section_id", sectionID, "analysis_job_id", analysisJobID,
		"theme_id", w.themeID, "pattern_id", w.patternID)

	tpl, err := w.prompts.GetLatestBy(dbctx.New(ctx), "", w.themeID, w.patternID)
	if err != nil {
		return nil, fmt.Errorf("no prompt template found for theme %q pattern %q: %w", w.themeID, w.patternID, err)
	}
	prompt := RenderTemplate(tpl.Template, map[string]string{"contextText": text})

	// A response that arrives but fails to parse counts as an empty finding
	// list, so only transport errors are retried.
	var findings []map[string]any
	err = w.retry.Execute(ctx, func(ctx context.Context) error {
		raw, llmErr := w.llm.GenerateText(ctx, "", prompt)
		if llmErr != nil {
			return llmErr
		}
		findings, llmErr = parseAnalysisResults(raw)
		if llmErr != nil {
			w.log.Warn("unparseable model response", "section_id", sectionID, "error", llmErr)
			findings = nil
		}
		return nil
	})
	if err != nil {
		w.log.Error("analysis failed", "section_id", sectionID, "error", err)
		return nil, err
	}

	rows := make([]*types.AnalysisResult, 0, len(findings))
	for _, finding := range findings {
		rows = append(rows, &types.AnalysisResult{
			ExperimentID:     experimentID,
			AnalysisJobID:    analysisJobID,
			PromptTemplateID: &tpl.ID,
			ThemeID:          w.themeID,
			PatternID:        w.patternID,
			Content:          asString(finding["content"]),
			Justification:    asString(finding["justification"]),
			CategoryID:       strings.Join(asStringList(finding["categories"]), ", "),
			SelfConfidence:   floatPtr(asFloat(finding["self_confidence"])),
		})
	}
	w.log.Info("analysis finished", "section_id", sectionID, "results", len(rows))
	return rows, nil
}

// parseAnalysisResults pulls the analysis_results list out of a raw model
// response. The response may wrap the object in prose, so parsing starts at
// the first '{' and ends at the last '}'.
func parseAnalysisResults(raw string) ([]map[string]any, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var payload struct {
		AnalysisResults []map[string]any `json:"analysis_results"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode analysis_results: %w", err)
	}
	return payload.AnalysisResults, nil
}

func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// asFloat coerces the loosely typed confidence scores models emit. Anything
// unusable is 0.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(t)))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
