package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/model"
)

const (
	classifyTextLimit     = 3000
	classifyKeywordLimit  = 10
	classifyConceptsLimit = 5
)

type typeKeywords struct {
	label    string
	keywords []string
}

// keyword sets in declaration order; ties resolve to the earlier entry
var documentKeywords = []typeKeywords{
	{model.DocumentTypeNDA, []string{"confidential", "proprietary", "non-disclosure", "confidentiality", "trade secret", "confidential information"}},
	{model.DocumentTypeEmployment, []string{"employment", "employee", "employer", "salary", "wages", "termination", "job duties", "benefits"}},
	{model.DocumentTypeService, []string{"services", "service provider", "client", "deliverables", "scope of work"}},
	{model.DocumentTypeLease, []string{"lease", "tenant", "landlord", "rent", "premises", "property"}},
	{model.DocumentTypePurchase, []string{"purchase", "buyer", "seller", "sale", "goods", "purchase price"}},
	{model.DocumentTypePartnership, []string{"partnership", "partners", "profit", "loss", "capital contribution"}},
	{model.DocumentTypeLicense, []string{"license", "licensor", "licensee", "intellectual property"}},
}

// Classifier assigns one label from model.DocumentTypes.
type Classifier struct {
	nlu       NLUClient
	available bool
	timeout   time.Duration
	recorder  Recorder
	logger    *slog.Logger
	table     []typeKeywords
}

// NewClassifier builds a classifier that consults nlu when avail.NLU is set.
func NewClassifier(avail model.Availability, nlu NLUClient, cfg Config) *Classifier {
	return &Classifier{
		nlu:       nlu,
		available: avail.NLU && nlu != nil,
		timeout:   cfg.BackendTimeout,
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		table:     documentKeywords,
	}
}

// Classify never returns an empty label.
func (c *Classifier) Classify(ctx context.Context, text string) (string, model.Path) {
	if c.available {
		label, err := c.classifyWithNLU(ctx, text)
		if err == nil {
			return label, model.PathBackend
		}
		c.logger.Warn("classification backend failed, using keyword counts", "stage", StageClassify, "error", err)
	}
	return c.ClassifyFallback(text), model.PathFallback
}

// ClassifyFallback scores each type by keyword occurrence counts.
func (c *Classifier) ClassifyFallback(text string) string {
	lower := strings.ToLower(text)
	return c.argmax(func(keyword string) int {
		return strings.Count(lower, keyword)
	})
}

// presence scoring: a keyword counts once if it overlaps any returned term
func (c *Classifier) classifyWithNLU(ctx context.Context, text string) (string, error) {
	var result *model.NLUResult
	err := callBackend(ctx, c.timeout, c.recorder, StageClassify, func(ctx context.Context) error {
		var err error
		result, err = c.nlu.Analyze(ctx, truncate(text, classifyTextLimit), model.NLUOptions{
			Keywords: classifyKeywordLimit,
			Concepts: classifyConceptsLimit,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	var terms []string
	if result != nil {
		for _, kw := range result.Keywords {
			if t := strings.ToLower(strings.TrimSpace(kw.Text)); t != "" {
				terms = append(terms, t)
			}
		}
		for _, concept := range result.Concepts {
			if t := strings.ToLower(strings.TrimSpace(concept.Text)); t != "" {
				terms = append(terms, t)
			}
		}
	}

	return c.argmax(func(keyword string) int {
		for _, term := range terms {
			if strings.Contains(term, keyword) || strings.Contains(keyword, term) {
				return 1
			}
		}
		return 0
	}), nil
}

func (c *Classifier) argmax(score func(keyword string) int) string {
	best, bestScore := model.DocumentTypeOther, 0
	for _, entry := range c.table {
		total := 0
		for _, kw := range entry.keywords {
			total += score(kw)
		}
		if total > bestScore {
			best, bestScore = entry.label, total
		}
	}
	return best
}
