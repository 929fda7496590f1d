package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_Numbered(t *testing.T) {
	text := "Preamble text here.\n" +
		"1. The Supplier shall deliver the goods within thirty days.\n" +
		"2. The Buyer shall pay the purchase price upon delivery of goods.\n" +
		"3. Short."

	clauses, strategy := NewSegmenter().SegmentWithStrategy(text)

	assert.Equal(t, "numbered", strategy)
	assert.Equal(t, []string{
		"The Supplier shall deliver the goods within thirty days.",
		"The Buyer shall pay the purchase price upon delivery of goods.",
	}, clauses)
}

func TestSegment_Article(t *testing.T) {
	text := "Article 1: Definitions apply throughout this whole agreement text.\n" +
		"Article 2: The term of this agreement is five years from signing."

	clauses, strategy := NewSegmenter().SegmentWithStrategy(text)

	assert.Equal(t, "numbered", strategy)
	require.Len(t, clauses, 2)
	assert.Equal(t, "Definitions apply throughout this whole agreement text.", clauses[0])
}

func TestSegment_SingleHeadingFallsThrough(t *testing.T) {
	text := "1. Only one numbered heading is present in this short document.\n\n" +
		"A second paragraph follows which is also long enough to be kept."

	clauses, strategy := NewSegmenter().SegmentWithStrategy(text)

	assert.Equal(t, "paragraph", strategy)
	assert.Len(t, clauses, 2)
}

func TestSegment_Paragraph(t *testing.T) {
	text := "The parties agree to cooperate in good faith on all matters herein.\n\n" +
		"Tiny.\n\n" +
		"Each party shall bear its own costs unless otherwise agreed in writing."

	clauses, strategy := NewSegmenter().SegmentWithStrategy(text)

	assert.Equal(t, "paragraph", strategy)
	assert.Equal(t, []string{
		"The parties agree to cooperate in good faith on all matters herein.",
		"Each party shall bear its own costs unless otherwise agreed in writing.",
	}, clauses)
}

func TestSegment_SentenceAccumulation(t *testing.T) {
	clauses, strategy := NewSegmenter().SegmentWithStrategy("Tiny text. Here.")

	assert.Equal(t, "sentence", strategy)
	assert.Equal(t, []string{"Tiny text. Here."}, clauses)
}

func TestSegment_SentenceAccumulationFlushes(t *testing.T) {
	sentence := "The tenant shall keep the premises clean at all times."
	text := strings.Repeat(sentence+" ", 4)
	text = strings.TrimSpace(text)
	// one long paragraph with no blank lines is above the paragraph threshold,
	// so force the sentence strategy directly
	clauses := splitAccumulated(text)

	require.Len(t, clauses, 2)
	for _, c := range clauses {
		assert.Greater(t, charLen(c), sentenceBufferSize)
	}
}

func TestSegment_DegenerateInput(t *testing.T) {
	clauses := NewSegmenter().Segment("abcde")
	assert.LessOrEqual(t, len(clauses), MaxClauses)
	assert.Equal(t, []string{"abcde"}, clauses)

	empty := NewSegmenter().Segment("")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSegment_CapsAtMaxClauses(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&b, "%d. This numbered clause number %d carries enough words to qualify.\n", i, i)
	}

	clauses := NewSegmenter().Segment(b.String())

	require.Len(t, clauses, MaxClauses)
	assert.Contains(t, clauses[0], "clause number 1 ")
	assert.Contains(t, clauses[9], "clause number 10 ")
}

func TestSegment_PanicUsesEmergencySplit(t *testing.T) {
	s := newSegmenter(segmentStrategy{name: "boom", split: func(string) []string { panic("boom") }})
	text := "This first sentence is long enough to keep. Short one. Another sentence that is long enough here"

	clauses, strategy := s.SegmentWithStrategy(text)

	assert.Equal(t, "emergency", strategy)
	assert.Equal(t, []string{
		"This first sentence is long enough to keep.",
		"Another sentence that is long enough here.",
	}, clauses)
}

func TestSegment_Properties(t *testing.T) {
	inputs := []string{
		"abcde",
		scenarioText,
		"1. First numbered clause that is long enough to count.\n2. Second numbered clause that is long enough to count.",
		strings.Repeat("A paragraph of reasonable length that goes on for a while.\n\n", 20),
		strings.Repeat("Word ", 500),
	}
	seg := NewSegmenter()
	for _, in := range inputs {
		clauses := seg.Segment(Normalize(in).Text)
		assert.GreaterOrEqual(t, len(clauses), 1, in)
		assert.LessOrEqual(t, len(clauses), MaxClauses, in)
		for _, c := range clauses {
			assert.Equal(t, strings.TrimSpace(c), c)
			assert.NotEmpty(t, c)
		}
	}
}
