package locate

import (
	"context"
	"errors"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// ErrUnsupported is returned by accessors that cannot sample text at arbitrary rectangles
var ErrUnsupported = errors.New("text sampling not supported")

// SearchResults is an index-like collection of search hits.
// Viewer SDKs rarely hand back a plain slice, so the resolver only relies on Len and At.
type SearchResults interface {
	Len() int
	At(i int) model.BBox
}

// TextAccessor reads text from a rendered document
type TextAccessor interface {
	// TextAtLocation returns the text inside a rectangle; empty when nothing is there
	TextAtLocation(ctx context.Context, rect model.BBox) (string, error)
	// Search returns every rectangle where text occurs, in reading order
	Search(ctx context.Context, text string) (SearchResults, error)
}

// Hits is a SearchResults backed by a slice
type Hits []model.BBox

// Len returns the number of hits
func (h Hits) Len() int { return len(h) }

// At returns the i-th hit
func (h Hits) At(i int) model.BBox { return h[i] }

// Collect copies any SearchResults into a slice; nil yields an empty slice
func Collect(results SearchResults) []model.BBox {
	if results == nil {
		return []model.BBox{}
	}
	if hits, ok := results.(Hits); ok {
		out := make([]model.BBox, len(hits))
		copy(out, hits)
		return out
	}

	n := results.Len()
	if n < 0 {
		n = 0
	}
	out := make([]model.BBox, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, results.At(i))
	}
	return out
}
