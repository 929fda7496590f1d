package model

import (
	"slices"
	"time"
)

// Document is normalized text handed to the analysis pipeline. It is never mutated.
type Document struct {
	Text      string `json:"-"`
	WordCount int    `json:"word_count"`
}

// Path records which implementation produced a stage result
type Path string

const (
	PathBackend  Path = "backend"
	PathFallback Path = "fallback"
)

// Tier labels which combination of backends contributed to a result
type Tier string

const (
	TierPremium  Tier = "premium"
	TierEnhanced Tier = "enhanced"
	TierAdvanced Tier = "advanced"
	TierStandard Tier = "standard"
)

// Label is the display form used in summaries
func (t Tier) Label() string {
	switch t {
	case TierPremium:
		return "Premium (Text Analysis + Generative Model)"
	case TierEnhanced:
		return "Enhanced (Text Analysis)"
	case TierAdvanced:
		return "Advanced (Generative Model)"
	default:
		return "Standard (Rule-based)"
	}
}

// Availability is the backend capability snapshot taken when a pipeline is built.
// It is read-only afterwards.
type Availability struct {
	NLU        bool `json:"nlu"`
	Simplifier bool `json:"simplifier"`
	Explainer  bool `json:"explainer"`
}

// Generative reports whether any generative backend is present
func (a Availability) Generative() bool {
	return a.Simplifier || a.Explainer
}

// Tier derives the analysis tier. NLU plus a generative backend is premium,
// NLU alone enhanced, a generative backend alone advanced, nothing standard.
func (a Availability) Tier() Tier {
	switch {
	case a.NLU && a.Generative():
		return TierPremium
	case a.NLU:
		return TierEnhanced
	case a.Generative():
		return TierAdvanced
	default:
		return TierStandard
	}
}

// Document types. The first seven are scored; DocumentTypeOther is returned when nothing scores.
const (
	DocumentTypeNDA         = "NDA (Non-Disclosure Agreement)"
	DocumentTypeEmployment  = "Employment Contract"
	DocumentTypeService     = "Service Agreement"
	DocumentTypeLease       = "Lease Agreement"
	DocumentTypePurchase    = "Purchase Agreement"
	DocumentTypePartnership = "Partnership Agreement"
	DocumentTypeLicense     = "License Agreement"
	DocumentTypeOther       = "Other Legal Document"
)

// DocumentTypes is the closed label set in declaration order
var DocumentTypes = []string{
	DocumentTypeNDA,
	DocumentTypeEmployment,
	DocumentTypeService,
	DocumentTypeLease,
	DocumentTypePurchase,
	DocumentTypePartnership,
	DocumentTypeLicense,
	DocumentTypeOther,
}

// StagePaths records the path taken by each stage of one run
type StagePaths struct {
	Classification Path   `json:"classification"`
	Entities       Path   `json:"entities"`
	Simplification []Path `json:"simplification"` // one entry per processed chunk
	Explanations   []Path `json:"explanations"`   // one entry per clause
}

// Degraded reports whether a stage fell back although avail says its backend
// was present. Such a run reflects a transient failure rather than the tier.
func (p StagePaths) Degraded(avail Availability) bool {
	if avail.NLU && (p.Classification == PathFallback || p.Entities == PathFallback) {
		return true
	}
	if avail.Simplifier && slices.Contains(p.Simplification, PathFallback) {
		return true
	}
	return avail.Explainer && slices.Contains(p.Explanations, PathFallback)
}

// Analysis is the aggregate result of one pipeline run
type Analysis struct {
	Document     Document      `json:"document"`
	Clauses      []string      `json:"clauses"`
	Explanations []string      `json:"explanations"`
	Entities     EntityBag     `json:"entities"`
	DocumentType string        `json:"document_type"`
	Simplified   string        `json:"simplified"`
	Summary      string        `json:"summary"`
	Tier         Tier          `json:"tier"`
	Paths        StagePaths    `json:"paths"`
	Duration     time.Duration `json:"duration_ns"`
	AnalyzedAt   time.Time     `json:"analyzed_at"`
}

// ClausePair pairs a clause with its explanation
type ClausePair struct {
	Clause      string `json:"clause"`
	Explanation string `json:"explanation"`
}

// Pairs returns clause/explanation pairs by index
func (a *Analysis) Pairs() []ClausePair {
	pairs := make([]ClausePair, len(a.Clauses))
	for i, c := range a.Clauses {
		pairs[i] = ClausePair{Clause: c}
		if i < len(a.Explanations) {
			pairs[i].Explanation = a.Explanations[i]
		}
	}
	return pairs
}
