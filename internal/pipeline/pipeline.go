// Package pipeline validates a whole claim: it extracts every document
// concurrently, compares the fields across documents and builds the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimsiqhq/claimfix/internal/cache"
	"github.com/claimsiqhq/claimfix/internal/extract"
	"github.com/claimsiqhq/claimfix/internal/llm"
	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/claimsiqhq/claimfix/internal/validate"
	"github.com/claimsiqhq/claimfix/internal/worker"
)

// ErrEmptyClaim is returned for manifests without a claim id or documents
var ErrEmptyClaim = errors.New("claim has no id or no documents")

// Observer receives per-claim outcomes (the metrics recorder in production)
type Observer interface {
	ObserveDocuments(docs []model.DocumentSummary)
	ObserveValidations(validations []model.CrossDocumentValidation)
}

// Injectable for tests
var (
	nowFunc      = time.Now
	loadTextFunc = extract.LoadDocumentText
)

// Pipeline orchestrates claim validation
type Pipeline struct {
	extractor *extract.FieldExtractor
	cache     *cache.ExtractionCache // nil disables caching
	validator *validate.Validator
	reviewer  *llm.Reviewer // nil or disabled means no narrative
	observer  Observer
	workers   int
	logger    *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCache caches extraction results
func WithCache(c *cache.ExtractionCache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithReviewer adds a reviewer narrative after validation
func WithReviewer(r *llm.Reviewer) Option {
	return func(p *Pipeline) {
		p.reviewer = r
	}
}

// WithObserver reports outcomes to o
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline from configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extract.NewFieldExtractor(cfg.Extraction),
		workers:   cfg.Concurrency.ExtractionWorkers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.validator = validate.NewValidator(p.logger)
	return p
}

// NewCache builds the layered extraction cache described by cfg, or nil when disabled
func NewCache(cfg model.CacheConfig) *cache.ExtractionCache {
	if !cfg.Enabled {
		return nil
	}
	return cache.NewExtractionCache(cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), cfg.DiskTTL)
}

// ExtractDocument loads one document's text and extracts its fields
func (p *Pipeline) ExtractDocument(ctx context.Context, doc model.DocumentRef) (model.DocumentSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.DocumentSummary{}, err
	}

	text, err := loadTextFunc(doc.Path)
	if err != nil {
		return model.DocumentSummary{}, fmt.Errorf("load document text: %w", err)
	}

	summary := model.DocumentSummary{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Source:       doc.Path,
	}

	version := p.extractor.CacheVersion()
	if p.cache != nil {
		if fields, ok := p.cache.Get(version, text); ok {
			summary.Fields = fields
			summary.Cached = true
			return summary, nil
		}
	}

	summary.Fields = p.extractor.Extract(text)

	if p.cache != nil {
		if err := p.cache.Put(version, text, summary.Fields); err != nil {
			p.logger.Warn("Failed to cache extraction", "document_id", doc.ID, "error", err)
		}
	}
	return summary, nil
}

// ValidateClaim extracts every document of the manifest and compares their fields.
// Documents that fail to load are reported but do not take part in validation.
func (p *Pipeline) ValidateClaim(ctx context.Context, manifest model.ClaimManifest) (*model.ClaimReport, error) {
	if manifest.ClaimID == "" || len(manifest.Documents) == 0 {
		return nil, ErrEmptyClaim
	}
	logCtx := p.logger.With("claim_id", manifest.ClaimID)

	// 1. Extract concurrently, results in manifest order
	batch := worker.NewBatchExtractor(p, p.workers, p.logger)
	summaries := batch.ExtractAll(ctx, manifest.Documents)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract documents: %w", err)
	}

	// 2. Compare across documents
	docFields := make([]model.DocumentFields, 0, len(summaries))
	for _, s := range summaries {
		if s.Error != "" {
			continue
		}
		docFields = append(docFields, model.DocumentFields{
			DocumentID:   s.DocumentID,
			DocumentName: s.DocumentName,
			Fields:       s.Fields,
		})
	}
	validations := p.validator.ValidateClaim(manifest.ClaimID, docFields)

	// 3. Build report
	report := &model.ClaimReport{
		ClaimID:     manifest.ClaimID,
		GeneratedAt: nowFunc().UTC(),
		Documents:   summaries,
		Validations: validations,
		Summary:     model.Summarize(validations),
	}

	// 4. Narrative runs last and never touches the validations
	if p.reviewer.IsEnabled() {
		note, err := p.reviewer.Review(ctx, *report)
		if err != nil {
			logCtx.Warn("Reviewer narrative failed", "error", err)
		} else {
			report.Review = note
		}
	}

	if p.observer != nil {
		p.observer.ObserveDocuments(summaries)
		p.observer.ObserveValidations(validations)
	}

	logCtx.Info("Claim validated",
		"documents", len(summaries),
		"compared", len(docFields),
		"inconsistencies", len(validations))
	return report, nil
}
