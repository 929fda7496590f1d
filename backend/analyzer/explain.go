package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/model"
)

const (
	explainClauseLimit  = 400
	minExplanation      = 10
	longClauseThreshold = 200

	explainMarker = "Simple explanation:"
	explainPrompt = "Explain this legal clause in simple terms that anyone can understand. Focus on what it means in practice:\n\n\"%s\"\n\n" + explainMarker

	genericLongExplanation  = "This is a detailed legal provision that sets out specific terms and conditions. Consider reviewing with legal counsel for full understanding."
	genericShortExplanation = "This clause establishes specific terms and obligations under this agreement."
)

type explanationRule struct {
	keywords []*regexp.Regexp
	text     string
}

func newExplanationRule(text string, keywords ...string) explanationRule {
	rule := explanationRule{text: text}
	for _, kw := range keywords {
		// anchored at a word start so "end" does not hit "depend"
		rule.keywords = append(rule.keywords, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)))
	}
	return rule
}

func (r explanationRule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if kw.MatchString(lower) {
			return true
		}
	}
	return false
}

// first matching rule wins
func defaultExplanationRules() []explanationRule {
	return []explanationRule{
		newExplanationRule("This section requires keeping certain information secret and not sharing it with others.",
			"confidential", "non-disclosure", "proprietary"),
		newExplanationRule("This explains how and when the agreement can be ended by either party.",
			"termination", "terminate", "end"),
		newExplanationRule("This defines who is responsible for problems or damages that may occur.",
			"liability", "liable", "responsible", "damages"),
		newExplanationRule("This covers payment terms, amounts, and when payments are due.",
			"payment", "fee", "cost", "money", "compensation"),
		newExplanationRule("This explains what happens if someone doesn't follow the agreement.",
			"breach", "violation", "default"),
		newExplanationRule("This covers situations beyond anyone's control that prevent fulfilling the agreement.",
			"force majeure", "uncontrollable", "acts of god"),
		newExplanationRule("This means one party will protect the other from legal claims or financial losses.",
			"indemnify", "indemnification", "hold harmless"),
		newExplanationRule("This determines which state's or country's laws apply to this agreement.",
			"governing law", "jurisdiction"),
		newExplanationRule("This sets out who owns the ideas, inventions and creative work connected to the agreement.",
			"intellectual property", "copyright", "patent", "trademark"),
		newExplanationRule("This describes promises about quality or performance and what happens if they are not kept.",
			"warranty", "warrant", "guarantee"),
		newExplanationRule("This explains whether a party may hand its rights or duties under the agreement to someone else.",
			"assignment", "assign", "transfer"),
	}
}

// Explanation is the outcome for one clause.
type Explanation struct {
	Text string
	Path model.Path
	Err  error
}

// Explainer produces one plain-language explanation per clause.
type Explainer struct {
	gen       Generator
	available bool
	timeout   time.Duration
	recorder  Recorder
	logger    *slog.Logger
	rules     []explanationRule
}

// NewExplainer uses gen when avail.Explainer is set.
func NewExplainer(avail model.Availability, gen Generator, cfg Config) *Explainer {
	return &Explainer{
		gen:       gen,
		available: avail.Explainer && gen != nil,
		timeout:   callTimeout(gen, cfg.BackendTimeout),
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		rules:     defaultExplanationRules(),
	}
}

// ExplainAll returns exactly one explanation per clause, in order.
func (e *Explainer) ExplainAll(ctx context.Context, clauses []string) []Explanation {
	out := make([]Explanation, len(clauses))
	for i, clause := range clauses {
		out[i] = e.Explain(ctx, clause)
	}
	return out
}

// Explain never returns empty text.
func (e *Explainer) Explain(ctx context.Context, clause string) Explanation {
	if !e.available {
		return Explanation{Text: e.ExplainFallback(clause), Path: model.PathFallback}
	}

	var out string
	err := callBackend(ctx, e.timeout, e.recorder, StageExplain, func(ctx context.Context) error {
		var err error
		out, err = e.gen.Generate(ctx, fmt.Sprintf(explainPrompt, truncate(clause, explainClauseLimit)))
		return err
	})
	if err == nil {
		if text, ok := acceptResponse(out, explainMarker, minExplanation); ok {
			return Explanation{Text: text, Path: model.PathBackend}
		}
		err = ErrShortResponse
	}

	e.logger.Warn("clause explanation failed, using keyword table",
		"stage", StageExplain, "generator", e.gen.Name(), "error", err)
	return Explanation{Text: e.ExplainFallback(clause), Path: model.PathFallback, Err: err}
}

// ExplainFallback matches the clause against the keyword table, then falls
// back to a generic sentence chosen by clause length.
func (e *Explainer) ExplainFallback(clause string) string {
	lower := strings.ToLower(clause)
	for _, rule := range e.rules {
		if rule.matches(lower) {
			return rule.text
		}
	}
	if charLen(clause) > longClauseThreshold {
		return genericLongExplanation
	}
	return genericShortExplanation
}

func explanationTexts(items []Explanation) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text
	}
	return out
}

func explanationPaths(items []Explanation) []model.Path {
	out := make([]model.Path, len(items))
	for i, item := range items {
		out[i] = item.Path
	}
	return out
}
