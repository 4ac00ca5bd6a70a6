package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/caselens/caselens-backend/internal/clients/openai"
	"github.com/caselens/caselens-backend/internal/data/repos"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// Agents of the critic graph. The critic and defence prompts are keyed per
// (theme, pattern); the branch prompts are shared across all tasks.
const (
	AgentCritic    = "critic"
	AgentIsWitness = "is_witness"
	AgentRewrite   = "rewrite"
	AgentDefence   = "defence"
	AgentReviewer  = "reviewer"
)

// emptyFindingsSentinel is checked against the raw critic response before any
// parsing, so a clean report short-circuits the graph even when the rest of
// the response is not valid JSON.
const emptyFindingsSentinel = `"analysis_results": []`

// NewCriticGraphWorker builds the multi-agent worker behind every registry
// task. A critic pass finds biased phrases; each finding then fans out to an
// is_witness check, a rewrite, and a defence argument that a reviewer rules
// on; the branch outputs are merged back onto the finding by content hash.
//
// All five templates are resolved here so a missing prompt fails the task
// before any model call is made.
func NewCriticGraphWorker(ctx context.Context, deps WorkerDeps, config WorkerConfig) (Worker, error) {
	w := &criticGraphWorker{
		log:       deps.Log.With("worker", "CriticGraphWorker"),
		llm:       deps.LLM,
		themeID:   config.str("theme_id"),
		patternID: config.str("pattern_id"),
		retry:     DefaultRetryPolicy(),
	}

	dbc := dbctx.New(ctx)
	lookups := []struct {
		dst            **types.PromptTemplate
		agent          string
		theme, pattern string
	}{
		{&w.criticTpl, AgentCritic, w.themeID, w.patternID},
		{&w.witnessTpl, AgentIsWitness, "", ""},
		{&w.rewriteTpl, AgentRewrite, "", ""},
		{&w.defenceTpl, AgentDefence, w.themeID, w.patternID},
		{&w.reviewerTpl, AgentReviewer, "", ""},
	}
	for _, l := range lookups {
		tpl, err := deps.Prompts.GetLatestBy(dbc, l.agent, l.theme, l.pattern)
		if err != nil {
			return nil, fmt.Errorf("no prompt template found for agent %q theme %q pattern %q: %w",
				l.agent, l.theme, l.pattern, err)
		}
		*l.dst = tpl
	}
	return w, nil
}

type criticGraphWorker struct {
	log       *logger.Logger
	llm       openai.Client
	themeID   string
	patternID string

	criticTpl   *types.PromptTemplate
	witnessTpl  *types.PromptTemplate
	rewriteTpl  *types.PromptTemplate
	defenceTpl  *types.PromptTemplate
	reviewerTpl *types.PromptTemplate

	retry RetryPolicy
}

// graphOutcome is one complete run of the graph: the critic's findings plus
// the branch fragments keyed by finding hash.
type graphOutcome struct {
	findings []map[string]any
	witness  map[string]*bool
	rewrites map[string]rewriteFragment
	reviews  map[string]reviewFragment
}

type rewriteFragment struct {
	phrase      string
	explanation string
}

type reviewFragment struct {
	defenceVerdict  string
	defencePattern  string
	defenceArgument string
	finalVerdict    string
	confidence      float64
	reasoning       string
}

func (w *criticGraphWorker) Analyze(ctx context.Context, text, experimentID string, sectionID, analysisJobID int64) ([]*types.AnalysisResult, error) {
	w.log.Info("analyzing section", "section_id", sectionID, "analysis_job_id", analysisJobID,
		"theme_id", w.themeID, "pattern_id", w.patternID)

	// A branch that exhausts its own retries fails the whole run, and the
	// run itself is retried from the critic pass.
	var outcome *graphOutcome
	err := w.retry.Execute(ctx, func(ctx context.Context) error {
		var runErr error
		outcome, runErr = w.runGraph(ctx, text)
		return runErr
	})
	if err != nil {
		w.log.Error("analysis failed", "section_id", sectionID, "error", err)
		return nil, err
	}

	rows := w.buildRows(outcome, experimentID, analysisJobID)
	w.log.Info("analysis finished", "section_id", sectionID, "results", len(rows))
	return rows, nil
}

func (w *criticGraphWorker) runGraph(ctx context.Context, text string) (*graphOutcome, error) {
	var findings []map[string]any
	err := w.retry.Execute(ctx, func(ctx context.Context) error {
		var stageErr error
		findings, stageErr = w.runCritic(ctx, text)
		return stageErr
	})
	if err != nil {
		return nil, fmt.Errorf("critic: %w", err)
	}

	outcome := &graphOutcome{
		findings: findings,
		witness:  make(map[string]*bool, len(findings)),
		rewrites: make(map[string]rewriteFragment, len(findings)),
		reviews:  make(map[string]reviewFragment, len(findings)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, finding := range findings {
		hashID := asString(finding["hash_id"])
		content := asString(finding["content"])
		justification := asString(finding["justification"])

		g.Go(func() error {
			var isWit *bool
			err := w.retry.Execute(gctx, func(ctx context.Context) error {
				v, stageErr := w.runIsWitness(ctx, text, content)
				if stageErr != nil {
					return stageErr
				}
				isWit = v
				return nil
			})
			if err != nil {
				return fmt.Errorf("is_witness: %w", err)
			}
			mu.Lock()
			outcome.witness[hashID] = isWit
			mu.Unlock()
			return nil
		})

		g.Go(func() error {
			var frag rewriteFragment
			err := w.retry.Execute(gctx, func(ctx context.Context) error {
				var stageErr error
				frag, stageErr = w.runRewrite(ctx, text, content, justification)
				return stageErr
			})
			if err != nil {
				return fmt.Errorf("rewrite: %w", err)
			}
			mu.Lock()
			outcome.rewrites[hashID] = frag
			mu.Unlock()
			return nil
		})

		g.Go(func() error {
			var defence map[string]any
			err := w.retry.Execute(gctx, func(ctx context.Context) error {
				var stageErr error
				defence, stageErr = w.runDefence(ctx, text, content, justification)
				return stageErr
			})
			if err != nil {
				return fmt.Errorf("defence: %w", err)
			}
			// The reviewer rules on one specific defence argument; replaying
			// it against a regenerated argument would judge a different case,
			// so it gets a single shot.
			frag, err := w.runReviewer(gctx, text, content, justification, defence)
			if err != nil {
				return fmt.Errorf("reviewer: %w", err)
			}
			mu.Lock()
			outcome.reviews[hashID] = frag
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcome, nil
}

// runCritic renders the critic prompt over the full section text and returns
// the findings, each keyed with the md5 of its content so branch outputs can
// be joined back later.
func (w *criticGraphWorker) runCritic(ctx context.Context, text string) ([]map[string]any, error) {
	prompt := RenderTemplate(w.criticTpl.Template, map[string]string{"contextText": text})
	raw, err := w.llm.GenerateText(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	if strings.Contains(raw, emptyFindingsSentinel) {
		w.log.Debug("critic found nothing")
		return nil, nil
	}
	obj, err := parseFencedJSON(raw)
	if err != nil {
		return nil, err
	}
	items, ok := obj["analysis_results"].([]any)
	if !ok {
		return nil, fmt.Errorf("critic response missing analysis_results")
	}
	findings := make([]map[string]any, 0, len(items))
	for _, item := range items {
		finding, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("critic finding is not an object")
		}
		content, ok := finding["content"].(string)
		if !ok {
			return nil, fmt.Errorf("critic finding missing content")
		}
		finding["hash_id"] = contentHash(content)
		findings = append(findings, finding)
	}
	w.log.Debug("critic findings", "count", len(findings))
	return findings, nil
}

func (w *criticGraphWorker) runIsWitness(ctx context.Context, text, phrase string) (*bool, error) {
	obj, err := w.invokeAgent(ctx, w.witnessTpl, map[string]string{
		"police_report": text,
		"phrase":        phrase,
	})
	if err != nil {
		return nil, err
	}
	v, ok := obj["response"]
	if !ok {
		return nil, fmt.Errorf("missing %q", "response")
	}
	b, ok := asBool(v)
	if !ok {
		return nil, nil
	}
	return boolPtr(b), nil
}

func (w *criticGraphWorker) runRewrite(ctx context.Context, text, phrase, justification string) (rewriteFragment, error) {
	obj, err := w.invokeAgent(ctx, w.rewriteTpl, map[string]string{
		"police_report": text,
		"phrase":        phrase,
		"justification": justification,
		"pattern":       w.patternID,
	})
	if err != nil {
		return rewriteFragment{}, err
	}
	phraseOut, err := stringField(obj, "rewritten_phrase")
	if err != nil {
		return rewriteFragment{}, err
	}
	explanation, err := stringField(obj, "explanation")
	if err != nil {
		return rewriteFragment{}, err
	}
	return rewriteFragment{phrase: phraseOut, explanation: explanation}, nil
}

func (w *criticGraphWorker) runDefence(ctx context.Context, text, phrase, justification string) (map[string]any, error) {
	return w.invokeAgent(ctx, w.defenceTpl, map[string]string{
		"police_report": text,
		"phrase":        phrase,
		"pattern":       w.patternID,
		"justification": justification,
	})
}

func (w *criticGraphWorker) runReviewer(ctx context.Context, text, phrase, justification string, defence map[string]any) (reviewFragment, error) {
	argument, err := stringField(defence, "argument")
	if err != nil {
		return reviewFragment{}, fmt.Errorf("defence response: %w", err)
	}
	verdict, err := stringField(defence, "verdict")
	if err != nil {
		return reviewFragment{}, fmt.Errorf("defence response: %w", err)
	}
	defencePattern, err := stringField(defence, "pattern")
	if err != nil {
		return reviewFragment{}, fmt.Errorf("defence response: %w", err)
	}

	obj, err := w.invokeAgent(ctx, w.reviewerTpl, map[string]string{
		"police_report":    text,
		"phrase":           phrase,
		"pattern":          w.patternID,
		"justification":    justification,
		"defence_argument": argument,
		"defence_verdict":  verdict,
		"defence_pattern":  defencePattern,
	})
	if err != nil {
		return reviewFragment{}, err
	}
	finalVerdict, err := stringField(obj, "final_verdict")
	if err != nil {
		return reviewFragment{}, err
	}
	confidence, ok := obj["self_confidence_score"]
	if !ok {
		return reviewFragment{}, fmt.Errorf("missing %q", "self_confidence_score")
	}
	reasoning, err := stringField(obj, "reasoning")
	if err != nil {
		return reviewFragment{}, err
	}
	return reviewFragment{
		defenceVerdict:  verdict,
		defencePattern:  defencePattern,
		defenceArgument: argument,
		finalVerdict:    finalVerdict,
		confidence:      asFloat(confidence),
		reasoning:       reasoning,
	}, nil
}

func (w *criticGraphWorker) invokeAgent(ctx context.Context, tpl *types.PromptTemplate, vars map[string]string) (map[string]any, error) {
	prompt := RenderTemplate(tpl.Template, vars)
	raw, err := w.llm.GenerateText(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	return parseFencedJSON(raw)
}

// buildRows joins branch fragments back onto their findings. Field sets are
// disjoint, so a merge never overwrites what the critic produced.
func (w *criticGraphWorker) buildRows(outcome *graphOutcome, experimentID string, analysisJobID int64) []*types.AnalysisResult {
	rows := make([]*types.AnalysisResult, 0, len(outcome.findings))
	for _, finding := range outcome.findings {
		hashID := asString(finding["hash_id"])
		row := &types.AnalysisResult{
			ExperimentID:     experimentID,
			AnalysisJobID:    analysisJobID,
			PromptTemplateID: &w.criticTpl.ID,
			ThemeID:          w.themeID,
			PatternID:        w.patternID,
			Content:          asString(finding["content"]),
			Justification:    asString(finding["justification"]),
			CategoryID:       strings.Join(asStringList(finding["categories"]), ", "),
			SelfConfidence:   floatPtr(asFloat(finding["self_confidence"])),
		}
		if isWit, ok := outcome.witness[hashID]; ok {
			row.IsWitness = isWit
		}
		if frag, ok := outcome.rewrites[hashID]; ok {
			row.RewrittenPhrase = frag.phrase
			row.RewrittenExplanation = frag.explanation
		}
		if frag, ok := outcome.reviews[hashID]; ok {
			row.DefenceVerdict = frag.defenceVerdict
			row.DefencePattern = frag.defencePattern
			row.DefenceArgument = frag.defenceArgument
			row.ReviewerFinalVerdict = frag.finalVerdict
			row.ReviewerConfidenceScore = floatPtr(frag.confidence)
			row.ReviewerReasoning = frag.reasoning
		}
		rows = append(rows, row)
	}
	return rows
}

// parseFencedJSON decodes an agent response that may arrive wrapped in
// markdown code fences.
func parseFencedJSON(raw string) (map[string]any, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))
	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}
	return obj, nil
}

// contentHash keys branch outputs back to their finding.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func stringField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	return asString(v), nil
}
