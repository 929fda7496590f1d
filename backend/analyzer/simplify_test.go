package analyzer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnTengye/clausewise/backend/model"
)

const archaicText = "Whereas the parties agree, the Supplier shall indemnify the Buyer pursuant to Section 4, notwithstanding any force majeure event."

func TestSimplifyFallback(t *testing.T) {
	s := NewSimplifier(model.Availability{}, nil, testConfig())

	res := s.Simplify(context.Background(), archaicText)

	require.Len(t, res.Chunks, 1)
	assert.Equal(t, model.PathFallback, res.Chunks[0].Path)
	assert.True(t, strings.HasPrefix(res.Text, simplifyBanner))
	assert.Contains(t, res.Text, "since the parties agree")
	assert.Contains(t, res.Text, "protect from legal claims")
	assert.Contains(t, res.Text, "according to Section 4")
	assert.Contains(t, res.Text, "despite any unexpected events beyond control event")
	assert.NotContains(t, strings.ToLower(res.Text), "whereas")
}

func TestSimplifyFallback_WholeWordsOnly(t *testing.T) {
	s := NewSimplifier(model.Availability{}, nil, testConfig())

	out := s.SimplifyFallback("Thereforex stays, but THEREFORE goes.")

	assert.Equal(t, simplifyBanner+"Thereforex stays, but so goes.", out)
}

func TestSimplify_BackendStripsPromptEcho(t *testing.T) {
	gen := &fakeGenerator{fallback: "Simplify this...\n\nSimplified version: The supplier protects the buyer from claims, even when unexpected events happen."}
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, testConfig())

	res := s.Simplify(context.Background(), archaicText)

	assert.Equal(t, "The supplier protects the buyer from claims, even when unexpected events happen.", res.Text)
	assert.Equal(t, []model.Path{model.PathBackend}, res.Paths())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], archaicText)
	assert.True(t, strings.HasSuffix(gen.prompts[0], simplifyMarker))
}

func TestSimplify_ChunkLocalFailure(t *testing.T) {
	para := strings.Repeat("The tenant shall pay rent pursuant to the lease. ", 2)
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	good := "A plain summary of this part of the lease agreement."
	gen := &fakeGenerator{
		limit:     120,
		responses: []string{good, "", good},
		errs:      []error{nil, errBackendDown, nil},
	}
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, testConfig())

	res := s.Simplify(context.Background(), text)

	require.Len(t, res.Chunks, 3)
	assert.Equal(t, []model.Path{model.PathBackend, model.PathFallback, model.PathBackend}, res.Paths())
	assert.ErrorIs(t, res.Chunks[1].Err, errBackendDown)
	assert.Contains(t, res.Chunks[1].Text, "according to the lease")
	assert.NotContains(t, res.Chunks[1].Text, simplifyBanner)
	assert.Equal(t, strings.Join([]string{good, res.Chunks[1].Text, good}, "\n\n"), res.Text)
}

func TestSimplify_ShortResponseUsesFallback(t *testing.T) {
	gen := &fakeGenerator{fallback: "Too short."}
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, testConfig())

	res := s.Simplify(context.Background(), archaicText)

	require.Len(t, res.Chunks, 1)
	assert.Equal(t, model.PathFallback, res.Chunks[0].Path)
	assert.ErrorIs(t, res.Chunks[0].Err, ErrShortResponse)
	assert.Contains(t, res.Text, "protect from legal claims")
}

func TestSimplify_ShortJoinedResultUsesWholeDocumentFallback(t *testing.T) {
	gen := &fakeGenerator{fallback: "This answer is just over twenty."}
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, testConfig())

	res := s.Simplify(context.Background(), archaicText)

	assert.Equal(t, s.SimplifyFallback(archaicText), res.Text)
	assert.Equal(t, []model.Path{model.PathFallback}, res.Paths())
}

func TestSimplify_AtMostThreeChunks(t *testing.T) {
	para := strings.Repeat("word ", 30)
	text := strings.TrimSpace(strings.Repeat(para+"\n\n", 6))
	gen := &fakeGenerator{limit: 160, fallback: "A simplified chunk that is comfortably long enough."}
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, testConfig())

	res := s.Simplify(context.Background(), text)

	assert.Len(t, res.Chunks, maxSimplifyChunks)
	assert.Equal(t, maxSimplifyChunks, gen.promptCount())
}

func TestSimplify_TimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{block: true}
	cfg := testConfig()
	cfg.BackendTimeout = 10 * time.Millisecond
	s := NewSimplifier(model.Availability{Simplifier: true}, gen, cfg)

	res := s.Simplify(context.Background(), archaicText)

	require.Len(t, res.Chunks, 1)
	assert.Equal(t, model.PathFallback, res.Chunks[0].Path)
	assert.ErrorIs(t, res.Chunks[0].Err, context.DeadlineExceeded)
}

func TestSplitChunks(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitChunks("short", 100))

	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 40)
	chunks := SplitChunks(a+"\n\n"+b+"\n\n"+c, 100)
	assert.Equal(t, []string{a + "\n\n" + b, c}, chunks)

	long := strings.Repeat("Sentence number one is here. ", 10)
	for _, chunk := range SplitChunks(long, 100) {
		assert.Less(t, charLen(chunk), 100)
		assert.NotEmpty(t, chunk)
	}
}
