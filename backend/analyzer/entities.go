package analyzer

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AnTengye/clausewise/backend/model"
)

const (
	entityTextLimit      = 4000
	entityRequestLimit   = 25
	keywordRequestLimit  = 20
	obligationMaxLength  = 150
	obligationMaxMatches = 3
	partyMaxWords        = 3
)

var entityCategories = map[string]model.Category{
	"person":       model.CategoryParties,
	"organization": model.CategoryParties,
	"company":      model.CategoryParties,
	"date":         model.CategoryDates,
	"datetime":     model.CategoryDates,
	"time":         model.CategoryDates,
	"money":        model.CategoryMonetaryValues,
	"currency":     model.CategoryMonetaryValues,
	"quantity":     model.CategoryMonetaryValues,
}

var obligationWords = []string{"shall", "must", "agrees", "obligated", "required", "responsible"}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`),
	}
	moneyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\d[\d,]*(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)\bUSD\s*\d[\d,]*(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d{2})?\s*dollars?\b`),
	}
	partyPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)*(?:[ \t]+(?:Inc|LLC|LLP|Corp|Company|Ltd|Co|PLC|GmbH))?\b`)
)

// legalVocabulary is presence-tested and title-cased into legal_terms.
var legalVocabulary = []string{
	"agreement", "contract", "party", "parties", "obligation", "liability",
	"termination", "breach", "confidential", "proprietary", "indemnification",
	"warranty", "governing law", "jurisdiction", "arbitration", "force majeure",
	"intellectual property", "assignment",
}

// corporate markers that absorb a trailing abbreviation period
var dottedMarkers = map[string]bool{"Inc": true, "Corp": true, "Ltd": true, "Co": true}

var corporateMarkers = map[string]bool{
	"Inc": true, "LLC": true, "LLP": true, "Corp": true, "Company": true,
	"Ltd": true, "Co": true, "PLC": true, "GmbH": true,
}

// leading words stripped from party candidates
var partyStopWords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"Each": true, "Either": true, "Neither": true, "Any": true, "All": true,
	"Such": true, "Said": true, "In": true, "If": true, "Upon": true,
	"Whereas": true, "Now": true, "Both": true, "Its": true, "Their": true,
	"Our": true, "Your": true, "No": true, "For": true, "On": true, "By": true,
}

var monthNames = map[string]bool{
	"January": true, "February": true, "March": true, "April": true, "May": true, "June": true,
	"July": true, "August": true, "September": true, "October": true, "November": true, "December": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true,
}

// EntityExtractor fills an EntityBag from the NLU backend or, without one, from patterns.
type EntityExtractor struct {
	nlu        NLUClient
	available  bool
	confidence float64
	relevance  float64
	timeout    time.Duration
	recorder   Recorder
	logger     *slog.Logger
}

// NewEntityExtractor builds an extractor. The backend path is used only when
// avail.NLU is set and nlu is non-nil.
func NewEntityExtractor(avail model.Availability, nlu NLUClient, cfg Config) *EntityExtractor {
	return &EntityExtractor{
		nlu:        nlu,
		available:  avail.NLU && nlu != nil,
		confidence: cfg.EntityConfidence,
		relevance:  cfg.KeywordRelevance,
		timeout:    cfg.BackendTimeout,
		recorder:   nopRecorder{},
		logger:     slog.Default(),
	}
}

// Extract always returns a bag with every category present.
func (e *EntityExtractor) Extract(ctx context.Context, text string) (model.EntityBag, model.Path) {
	if e.available {
		bag, err := e.extractWithNLU(ctx, text)
		if err == nil {
			return bag, model.PathBackend
		}
		e.logger.Warn("entity extraction backend failed, using patterns", "stage", StageEntities, "error", err)
	}
	return e.ExtractFallback(text), model.PathFallback
}

func (e *EntityExtractor) extractWithNLU(ctx context.Context, text string) (model.EntityBag, error) {
	var result *model.NLUResult
	err := callBackend(ctx, e.timeout, e.recorder, StageEntities, func(ctx context.Context) error {
		var err error
		result, err = e.nlu.Analyze(ctx, truncate(text, entityTextLimit), model.NLUOptions{
			Entities: entityRequestLimit,
			Keywords: keywordRequestLimit,
		})
		return err
	})
	if err != nil {
		return model.EntityBag{}, err
	}

	var bag model.EntityBag
	if result != nil {
		for _, ent := range result.Entities {
			if ent.Confidence <= e.confidence {
				continue
			}
			cat, ok := entityCategories[strings.ToLower(ent.Type)]
			if !ok {
				continue
			}
			if err := bag.Add(cat, strings.TrimSpace(ent.Text)); err != nil {
				e.logger.Warn("dropping entity", "stage", StageEntities, "type", ent.Type, "error", err)
			}
		}
		for _, kw := range result.Keywords {
			if kw.Relevance > e.relevance {
				bag.LegalTerms = append(bag.LegalTerms, strings.TrimSpace(kw.Text))
			}
		}
	}
	bag.Obligations = FindObligations(text)
	bag.Finalize()
	return bag, nil
}

// ExtractFallback uses regular expressions and a fixed vocabulary only.
func (e *EntityExtractor) ExtractFallback(text string) model.EntityBag {
	var bag model.EntityBag

	for _, p := range datePatterns {
		bag.Dates = append(bag.Dates, p.FindAllString(text, -1)...)
	}
	for _, p := range moneyPatterns {
		for _, m := range p.FindAllString(text, -1) {
			bag.MonetaryValues = append(bag.MonetaryValues, strings.TrimRight(strings.TrimSpace(m), ","))
		}
	}

	lower := strings.ToLower(text)
	caser := cases.Title(language.English)
	for _, term := range legalVocabulary {
		if strings.Contains(lower, term) {
			bag.LegalTerms = append(bag.LegalTerms, caser.String(term))
		}
	}

	bag.Parties = findParties(text)
	bag.Obligations = FindObligations(text)
	bag.Finalize()
	return bag
}

// FindObligations returns up to three short sentences that impose a duty.
func FindObligations(text string) []string {
	var out []string
	for _, sentence := range SplitSentences(text) {
		if charLen(sentence) >= obligationMaxLength {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, w := range obligationWords {
			if strings.Contains(lower, w) {
				out = append(out, sentence)
				break
			}
		}
		if len(out) >= obligationMaxMatches {
			break
		}
	}
	return out
}

func findParties(text string) []string {
	var out []string
	for _, loc := range partyPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if (start > 0 && text[start-1] == '-') || (end < len(text) && text[end] == '-') {
			continue
		}

		words := strings.Fields(text[start:end])
		for len(words) > 0 && partyStopWords[words[0]] {
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}

		last := words[len(words)-1]
		maxWords := partyMaxWords
		if corporateMarkers[last] && len(words) > 1 {
			maxWords++
			if dottedMarkers[last] && end < len(text) && text[end] == '.' {
				words[len(words)-1] = last + "."
			}
		}
		if len(words) > maxWords {
			continue
		}
		if len(words) == 1 && !plausibleName(words[0]) {
			continue
		}
		out = append(out, strings.Join(words, " "))
	}
	return out
}

func plausibleName(word string) bool {
	if partyStopWords[word] || monthNames[word] || corporateMarkers[word] {
		return false
	}
	lower := strings.ToLower(word)
	for _, term := range legalVocabulary {
		if lower == term {
			return false
		}
	}
	return true
}
