package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnTengye/clausewise/backend/model"
)

// Pipeline runs every stage over one document. Availability is captured in
// NewPipeline and never re-evaluated; build a new Pipeline to pick up changes.
type Pipeline struct {
	avail    model.Availability
	recorder Recorder
	logger   *slog.Logger

	segmenter  *Segmenter
	extractor  *EntityExtractor
	classifier *Classifier
	simplifier *Simplifier
	explainer  *Explainer
	summarizer *SummaryGenerator
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder sends stage and backend telemetry to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger replaces slog.Default for pipeline and stage logging.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline snapshots backend availability and builds the stages.
func NewPipeline(cfg Config, backends Backends, opts ...Option) *Pipeline {
	p := &Pipeline{
		avail:    backends.Availability(),
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.segmenter = NewSegmenter()
	p.extractor = NewEntityExtractor(p.avail, backends.NLU, cfg)
	p.extractor.recorder, p.extractor.logger = p.recorder, p.logger
	p.classifier = NewClassifier(p.avail, backends.NLU, cfg)
	p.classifier.recorder, p.classifier.logger = p.recorder, p.logger
	p.simplifier = NewSimplifier(p.avail, backends.Simplifier, cfg)
	p.simplifier.recorder, p.simplifier.logger = p.recorder, p.logger
	p.explainer = NewExplainer(p.avail, backends.Explainer, cfg)
	p.explainer.recorder, p.explainer.logger = p.recorder, p.logger
	p.summarizer = NewSummaryGenerator(p.avail)
	return p
}

// Availability returns the snapshot taken at construction.
func (p *Pipeline) Availability() model.Availability {
	return p.avail
}

// Analyze normalizes raw and runs the stages in order. It never fails;
// backend problems show up as fallback entries in Analysis.Paths.
func (p *Pipeline) Analyze(ctx context.Context, raw string) *model.Analysis {
	start := time.Now()
	doc := Normalize(raw)

	clauses, strategy := p.segmenter.SegmentWithStrategy(doc.Text)
	p.logger.Debug("document segmented", "strategy", strategy, "clauses", len(clauses))

	stageStart := time.Now()
	docType, classifyPath := p.classifier.Classify(ctx, doc.Text)
	p.recorder.ObserveStage(StageClassify, classifyPath, time.Since(stageStart))

	stageStart = time.Now()
	entities, entityPath := p.extractor.Extract(ctx, doc.Text)
	p.recorder.ObserveStage(StageEntities, entityPath, time.Since(stageStart))

	stageStart = time.Now()
	simplified := p.simplifier.Simplify(ctx, doc.Text)
	simplifyPaths := simplified.Paths()
	p.recorder.ObserveStage(StageSimplify, overallPath(simplifyPaths), time.Since(stageStart))

	stageStart = time.Now()
	explanations := p.explainer.ExplainAll(ctx, clauses)
	explainPaths := explanationPaths(explanations)
	p.recorder.ObserveStage(StageExplain, overallPath(explainPaths), time.Since(stageStart))

	result := &model.Analysis{
		Document:     doc,
		Clauses:      clauses,
		Explanations: explanationTexts(explanations),
		Entities:     entities,
		DocumentType: docType,
		Simplified:   simplified.Text,
		Summary:      p.summarizer.Summarize(doc.Text, entities, docType),
		Tier:         p.avail.Tier(),
		Paths: model.StagePaths{
			Classification: classifyPath,
			Entities:       entityPath,
			Simplification: simplifyPaths,
			Explanations:   explainPaths,
		},
		AnalyzedAt: time.Now(),
	}
	result.Duration = time.Since(start)

	p.logger.Info("document analyzed",
		"document_type", docType,
		"clauses", len(clauses),
		"words", doc.WordCount,
		"tier", result.Tier,
		"duration", result.Duration)
	return result
}

// overallPath is backend when any unit used the backend.
func overallPath(paths []model.Path) model.Path {
	for _, path := range paths {
		if path == model.PathBackend {
			return model.PathBackend
		}
	}
	return model.PathFallback
}
