package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/model"
)

const (
	maxSimplifyChunks     = 3
	minSimplifiedChunk    = 20
	minSimplifiedDocument = 50

	simplifyMarker = "Simplified version:"
	simplifyBanner = "**Simplified Legal Document**\n\nThis document has been simplified for easier understanding:\n\n"
	simplifyPrompt = "Simplify this legal text into plain English. Keep all important information but make it easy to understand:\n\n%s\n\n" + simplifyMarker
)

// ErrShortResponse marks a backend response that failed the minimum length check.
var ErrShortResponse = errors.New("backend response too short")

type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

func newSubstitution(phrase, replacement string) substitution {
	return substitution{
		pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
		replacement: replacement,
	}
}

// applied in order; later entries see the output of earlier ones
func defaultSubstitutions() []substitution {
	return []substitution{
		newSubstitution("heretofore", "before this"),
		newSubstitution("hereinafter", "from now on"),
		newSubstitution("whereas", "since"),
		newSubstitution("therefore", "so"),
		newSubstitution("notwithstanding", "despite"),
		newSubstitution("forthwith", "immediately"),
		newSubstitution("pursuant to", "according to"),
		newSubstitution("in consideration of", "in exchange for"),
		newSubstitution("shall be deemed", "will be considered"),
		newSubstitution("shall have the right", "may"),
		newSubstitution("shall be entitled", "has the right"),
		newSubstitution("shall not be liable", "is not responsible"),
		newSubstitution("force majeure", "unexpected events beyond control"),
		newSubstitution("indemnify", "protect from legal claims"),
		newSubstitution("hold harmless", "protect from responsibility"),
		newSubstitution("aforementioned", "mentioned earlier"),
		newSubstitution("hereunder", "under this agreement"),
		newSubstitution("inter alia", "among other things"),
		newSubstitution("null and void", "invalid"),
	}
}

// ChunkResult is the outcome for one simplified chunk.
type ChunkResult struct {
	Text string
	Path model.Path
	Err  error // backend failure that forced the fallback, if any
}

// SimplifyResult holds the joined text and what happened to each chunk.
type SimplifyResult struct {
	Text   string
	Chunks []ChunkResult
}

// Paths lists the path taken by each chunk.
func (r SimplifyResult) Paths() []model.Path {
	paths := make([]model.Path, len(r.Chunks))
	for i, c := range r.Chunks {
		paths[i] = c.Path
	}
	return paths
}

// Simplifier rewrites legal text in plain language.
type Simplifier struct {
	gen       Generator
	available bool
	timeout   time.Duration
	recorder  Recorder
	logger    *slog.Logger
	rules     []substitution
}

// NewSimplifier uses gen when avail.Simplifier is set.
func NewSimplifier(avail model.Availability, gen Generator, cfg Config) *Simplifier {
	return &Simplifier{
		gen:       gen,
		available: avail.Simplifier && gen != nil,
		timeout:   callTimeout(gen, cfg.BackendTimeout),
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		rules:     defaultSubstitutions(),
	}
}

// Simplify returns non-empty text. Backend failures are resolved per chunk.
func (s *Simplifier) Simplify(ctx context.Context, text string) SimplifyResult {
	if !s.available {
		return s.wholeDocumentFallback(text)
	}

	chunks := SplitChunks(text, s.gen.ChunkLimit())
	if len(chunks) > maxSimplifyChunks {
		chunks = chunks[:maxSimplifyChunks]
	}

	results := make([]ChunkResult, 0, len(chunks))
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		res := s.simplifyChunk(ctx, chunk)
		if res.Err != nil {
			s.logger.Warn("chunk simplification failed, using substitutions",
				"stage", StageSimplify, "chunk", i, "generator", s.gen.Name(), "error", res.Err)
		}
		results = append(results, res)
		parts = append(parts, res.Text)
	}

	joined := strings.Join(parts, "\n\n")
	if charLen(joined) <= minSimplifiedDocument {
		return s.wholeDocumentFallback(text)
	}
	return SimplifyResult{Text: joined, Chunks: results}
}

func (s *Simplifier) simplifyChunk(ctx context.Context, chunk string) ChunkResult {
	var out string
	err := callBackend(ctx, s.timeout, s.recorder, StageSimplify, func(ctx context.Context) error {
		var err error
		out, err = s.gen.Generate(ctx, fmt.Sprintf(simplifyPrompt, chunk))
		return err
	})
	if err == nil {
		if text, ok := acceptResponse(out, simplifyMarker, minSimplifiedChunk); ok {
			return ChunkResult{Text: text, Path: model.PathBackend}
		}
		err = ErrShortResponse
	}
	return ChunkResult{Text: s.substitute(chunk), Path: model.PathFallback, Err: err}
}

func (s *Simplifier) wholeDocumentFallback(text string) SimplifyResult {
	return SimplifyResult{
		Text:   s.SimplifyFallback(text),
		Chunks: []ChunkResult{{Path: model.PathFallback}},
	}
}

// SimplifyFallback applies the substitution table and prepends the banner.
func (s *Simplifier) SimplifyFallback(text string) string {
	return simplifyBanner + s.substitute(text)
}

func (s *Simplifier) substitute(text string) string {
	for _, rule := range s.rules {
		text = rule.pattern.ReplaceAllLiteralString(text, rule.replacement)
	}
	return text
}

// acceptResponse strips any prompt echo up to the last marker and checks the
// remaining length.
func acceptResponse(raw, marker string, minLen int) (string, bool) {
	text := strings.TrimSpace(raw)
	if i := strings.LastIndex(text, marker); i >= 0 {
		text = strings.TrimSpace(text[i+len(marker):])
	}
	return text, charLen(text) > minLen
}

// SplitChunks packs blank-line separated paragraphs into chunks shorter than
// limit characters. Text within the limit is returned whole. A paragraph that
// cannot fit on its own is packed by sentences, and a sentence that still
// does not fit is cut.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 || charLen(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}
	add := func(unit, sep string) {
		if current.Len() > 0 && charLen(current.String())+charLen(unit) >= limit {
			flush()
		}
		current.WriteString(unit)
		current.WriteString(sep)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if charLen(para) < limit {
			add(para, "\n\n")
			continue
		}
		for _, sentence := range SplitSentences(para) {
			for _, piece := range cut(sentence, limit-1) {
				add(piece, " ")
			}
		}
		flush()
	}
	flush()
	return chunks
}

func cut(s string, n int) []string {
	if n < 1 {
		n = 1
	}
	var out []string
	for charLen(s) > n {
		head := truncate(s, n)
		out = append(out, head)
		s = s[len(head):]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
