package analyzer

import (
	"regexp"
	"strings"
)

// MaxClauses caps the number of clauses kept per document.
const MaxClauses = 10

// Minimum trimmed length (exclusive) a fragment needs for each strategy.
const (
	NumberedMinLength  = 30
	ParagraphMinLength = 50
	EmergencyMinLength = 30
	sentenceBufferSize = 100
)

// Headings tried in order by the numbered strategy.
var numberedHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`),
	regexp.MustCompile(`(?mi)^[ \t]*article[ \t]+\d+[.:]?[ \t]*`),
	regexp.MustCompile(`(?mi)^[ \t]*section[ \t]+\d+[.:]?[ \t]*`),
	regexp.MustCompile(`(?mi)^[ \t]*clause[ \t]+\d+[.:]?[ \t]*`),
}

// segmentStrategy returns candidate clauses, or nothing to let the next strategy try.
type segmentStrategy struct {
	name  string
	split func(text string) []string
}

// Segmenter splits a document into clauses using the first strategy that yields any.
type Segmenter struct {
	strategies []segmentStrategy
	emergency  segmentStrategy
}

// NewSegmenter returns the numbered, paragraph, sentence cascade.
func NewSegmenter() *Segmenter {
	return newSegmenter(
		segmentStrategy{name: "numbered", split: splitNumbered},
		segmentStrategy{name: "paragraph", split: splitParagraphs},
		segmentStrategy{name: "sentence", split: splitAccumulated},
	)
}

func newSegmenter(strategies ...segmentStrategy) *Segmenter {
	return &Segmenter{
		strategies: strategies,
		emergency:  segmentStrategy{name: "emergency", split: splitEmergency},
	}
}

// Segment returns at most MaxClauses clauses in document order.
func (s *Segmenter) Segment(text string) []string {
	clauses, _ := s.SegmentWithStrategy(text)
	return clauses
}

// SegmentWithStrategy also reports which strategy produced the clauses.
// A panic inside a strategy switches to the emergency split.
func (s *Segmenter) SegmentWithStrategy(text string) (clauses []string, strategy string) {
	defer func() {
		if r := recover(); r != nil {
			clauses = limit(s.emergency.split(text), MaxClauses)
			strategy = s.emergency.name
		}
	}()

	for _, st := range s.strategies {
		if out := st.split(text); len(out) > 0 {
			return limit(out, MaxClauses), st.name
		}
	}
	return []string{}, ""
}

func splitNumbered(text string) []string {
	for _, heading := range numberedHeadings {
		parts := heading.Split(text, -1)
		// at least two headings; text before the first one is preamble
		if len(parts) <= 2 {
			continue
		}
		if out := keepLonger(parts[1:], NumberedMinLength); len(out) > 0 {
			return out
		}
	}
	return nil
}

func splitParagraphs(text string) []string {
	return keepLonger(strings.Split(text, "\n\n"), ParagraphMinLength)
}

func splitAccumulated(text string) []string {
	var out []string
	var buf strings.Builder
	for _, sentence := range SplitSentences(text) {
		buf.WriteString(sentence)
		buf.WriteString(" ")
		if charLen(buf.String()) > sentenceBufferSize {
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

func splitEmergency(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ". ") {
		part = strings.TrimSpace(part)
		if charLen(part) <= EmergencyMinLength {
			continue
		}
		if !strings.HasSuffix(part, ".") {
			part += "."
		}
		out = append(out, part)
	}
	return out
}

func keepLonger(parts []string, minLen int) []string {
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if charLen(p) > minLen {
			out = append(out, p)
		}
	}
	return out
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []string{}
	}
	return items
}
