package model

import (
	"errors"
	"fmt"
)

// Category is one of the five fixed entity categories
type Category string

const (
	CategoryParties        Category = "parties"
	CategoryDates          Category = "dates"
	CategoryMonetaryValues Category = "monetary_values"
	CategoryObligations    Category = "obligations"
	CategoryLegalTerms     Category = "legal_terms"
)

// Categories lists every entity category in display order
var Categories = []Category{
	CategoryParties,
	CategoryDates,
	CategoryMonetaryValues,
	CategoryObligations,
	CategoryLegalTerms,
}

// ErrUnknownCategory is returned when a caller asks for a category outside the fixed set
var ErrUnknownCategory = errors.New("unknown entity category")

// Placeholder values substituted when extraction finds nothing at all
const (
	PlaceholderParties    = "Document analysis completed"
	PlaceholderSeeDoc     = "See full document"
	PlaceholderLegalTerms = "Legal document detected"
)

// EntityBag holds the extracted entities. Every category is always present;
// lists are deduplicated, keep first-seen order and hold at most MaxEntitiesPerCategory items.
type EntityBag struct {
	Parties        []string `json:"parties"`
	Dates          []string `json:"dates"`
	MonetaryValues []string `json:"monetary_values"`
	Obligations    []string `json:"obligations"`
	LegalTerms     []string `json:"legal_terms"`
}

// MaxEntitiesPerCategory caps each category list
const MaxEntitiesPerCategory = 5

// PlaceholderBag returns the bag used when every category came back empty
func PlaceholderBag() EntityBag {
	return EntityBag{
		Parties:        []string{PlaceholderParties},
		Dates:          []string{PlaceholderSeeDoc},
		MonetaryValues: []string{PlaceholderSeeDoc},
		Obligations:    []string{PlaceholderSeeDoc},
		LegalTerms:     []string{PlaceholderLegalTerms},
	}
}

// IsPlaceholder reports whether value is one of the placeholder strings
func IsPlaceholder(value string) bool {
	switch value {
	case PlaceholderParties, PlaceholderSeeDoc, PlaceholderLegalTerms:
		return true
	}
	return false
}

// Get returns the list for a category
func (b *EntityBag) Get(c Category) ([]string, error) {
	ptr, err := b.field(c)
	if err != nil {
		return nil, err
	}
	return *ptr, nil
}

// Add appends values to a category without deduplication; call Finalize afterwards
func (b *EntityBag) Add(c Category, values ...string) error {
	ptr, err := b.field(c)
	if err != nil {
		return err
	}
	*ptr = append(*ptr, values...)
	return nil
}

// Empty reports whether no category holds any value
func (b *EntityBag) Empty() bool {
	for _, c := range Categories {
		ptr, _ := b.field(c)
		if len(*ptr) > 0 {
			return false
		}
	}
	return true
}

// Finalize deduplicates and caps every category, replaces nil lists with empty
// ones and substitutes the placeholder bag when nothing was found.
func (b *EntityBag) Finalize() {
	for _, c := range Categories {
		ptr, _ := b.field(c)
		*ptr = dedupe(*ptr, MaxEntitiesPerCategory)
	}
	if b.Empty() {
		*b = PlaceholderBag()
	}
}

func (b *EntityBag) field(c Category) (*[]string, error) {
	switch c {
	case CategoryParties:
		return &b.Parties, nil
	case CategoryDates:
		return &b.Dates, nil
	case CategoryMonetaryValues:
		return &b.MonetaryValues, nil
	case CategoryObligations:
		return &b.Obligations, nil
	case CategoryLegalTerms:
		return &b.LegalTerms, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
}

func dedupe(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, limit)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
