package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// DocumentExtractor extracts the fields of a single claim document
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc model.DocumentRef) (model.DocumentSummary, error)
}

// ExtractionJob extracts one document
type ExtractionJob struct {
	Document  model.DocumentRef
	Extractor DocumentExtractor
}

// Execute executes the extraction job
func (j *ExtractionJob) Execute(ctx context.Context) Result {
	summary, err := j.Extractor.ExtractDocument(ctx, j.Document)
	return &ExtractionResult{
		Document: j.Document,
		Summary:  summary,
		Error:    err,
	}
}

// ExtractionResult represents the result of an extraction job
type ExtractionResult struct {
	Document model.DocumentRef
	Summary  model.DocumentSummary
	Error    error
}

// GetError returns the error from the extraction result
func (r *ExtractionResult) GetError() error {
	return r.Error
}

// BatchExtractor extracts every document of a claim concurrently
type BatchExtractor struct {
	extractor   DocumentExtractor
	concurrency int
	logger      *slog.Logger
}

// NewBatchExtractor creates a new batch extractor
func NewBatchExtractor(extractor DocumentExtractor, concurrency int, logger *slog.Logger) *BatchExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchExtractor{
		extractor:   extractor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ExtractAll returns one summary per document, in input order.
// A failed document keeps its place with Error set and no fields.
func (b *BatchExtractor) ExtractAll(ctx context.Context, docs []model.DocumentRef) []model.DocumentSummary {
	if len(docs) == 0 {
		return []model.DocumentSummary{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, doc := range docs {
		if !pool.Submit(&ExtractionJob{Document: doc, Extractor: b.extractor}) {
			break
		}
	}

	results := pool.Wait()

	summaries := make([]model.DocumentSummary, len(docs))
	for i, doc := range docs {
		var res *ExtractionResult
		if i < len(results) && results[i] != nil {
			res = results[i].(*ExtractionResult)
		}
		summaries[i] = summarize(ctx, doc, res)
		if summaries[i].Error != "" {
			b.logger.Warn("Document extraction failed", "document_id", doc.ID, "error", summaries[i].Error)
		}
	}
	return summaries
}

func summarize(ctx context.Context, doc model.DocumentRef, res *ExtractionResult) model.DocumentSummary {
	if res == nil {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return failedSummary(doc, fmt.Errorf("extraction not run: %w", err))
	}
	if res.Error != nil {
		return failedSummary(doc, res.Error)
	}
	summary := res.Summary
	if summary.DocumentID == "" {
		summary.DocumentID = doc.ID
	}
	if summary.DocumentName == "" {
		summary.DocumentName = doc.Name
	}
	if summary.Fields == nil {
		summary.Fields = model.ExtractedFields{}
	}
	return summary
}

func failedSummary(doc model.DocumentRef, err error) model.DocumentSummary {
	return model.DocumentSummary{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Source:       doc.Path,
		Fields:       model.ExtractedFields{},
		Error:        err.Error(),
	}
}
