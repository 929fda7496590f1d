package analyzer

import (
	"fmt"
	"strings"

	"github.com/AnTengye/clausewise/backend/model"
)

const (
	summaryParties = 3
	summaryDates   = 2
	summaryMoney   = 2
)

type legalArea struct {
	name     string
	keywords []string
}

var legalAreas = []legalArea{
	{"Confidentiality", []string{"confidential", "proprietary"}},
	{"Liability", []string{"liability", "indemnify"}},
	{"Termination", []string{"termination", "breach"}},
	{"Financial Terms", []string{"payment", "fee", "compensation"}},
	{"Intellectual Property", []string{"intellectual property", "copyright", "patent"}},
}

// SummaryGenerator composes the digest. Section labels are bolded so a
// renderer can find them.
type SummaryGenerator struct {
	tier model.Tier
}

// NewSummaryGenerator fixes the tier line from avail.
func NewSummaryGenerator(avail model.Availability) *SummaryGenerator {
	return &SummaryGenerator{tier: avail.Tier()}
}

// Summarize emits document type, parties, dates, financial terms, length,
// tier and key legal areas, skipping sections with nothing real to show.
func (g *SummaryGenerator) Summarize(text string, entities model.EntityBag, docType string) string {
	sections := []string{section("Document Type", docType)}

	if s := listSection("Key Parties", entities.Parties, summaryParties); s != "" {
		sections = append(sections, s)
	}
	if s := listSection("Important Dates", entities.Dates, summaryDates); s != "" {
		sections = append(sections, s)
	}
	if s := listSection("Financial Terms", entities.MonetaryValues, summaryMoney); s != "" {
		sections = append(sections, s)
	}

	sections = append(sections,
		section("Document Length", fmt.Sprintf("%d words", len(strings.Fields(text)))),
		section("Analysis Tier", g.tier.Label()),
	)

	if areas := KeyLegalAreas(text); len(areas) > 0 {
		sections = append(sections, section("Key Legal Areas", strings.Join(areas, ", ")))
	}
	return strings.Join(sections, "\n\n")
}

// KeyLegalAreas lists the topic groups present in text.
func KeyLegalAreas(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, area := range legalAreas {
		for _, kw := range area.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, area.name)
				break
			}
		}
	}
	return out
}

func section(label, value string) string {
	return "**" + label + ":** " + value
}

func listSection(label string, values []string, n int) string {
	if len(values) == 0 || model.IsPlaceholder(values[0]) {
		return ""
	}
	if len(values) > n {
		values = values[:n]
	}
	return section(label, strings.Join(values, ", "))
}
