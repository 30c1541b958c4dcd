package model

import "errors"

// ErrEmptyLocation is returned when a location has neither a bbox nor a search text
var ErrEmptyLocation = errors.New("location requires bbox or search_text")

// BBox is an axis-aligned rectangle on a single page.
// Units are whatever the document viewer reports (percent or pixels).
type BBox struct {
	PageIndex int     `json:"pageIndex" yaml:"page_index"` // 0-based
	Left      float64 `json:"left" yaml:"left"`
	Top       float64 `json:"top" yaml:"top"`
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge
func (b BBox) Right() float64 {
	return b.Left + b.Width
}

// SearchText locates content by text instead of coordinates
type SearchText struct {
	Text          string `json:"text"`
	Occurrence    int    `json:"occurrence,omitempty"` // 1-based, 0 means first
	ContextBefore string `json:"context_before,omitempty"`
	ContextAfter  string `json:"context_after,omitempty"`
}

// OccurrenceIndex returns the 0-based index of the requested occurrence
func (s SearchText) OccurrenceIndex() int {
	if s.Occurrence <= 1 {
		return 0
	}
	return s.Occurrence - 1
}

// Location is the dual representation used to find content despite layout drift
type Location struct {
	BBox       *BBox       `json:"bbox,omitempty"`
	SearchText *SearchText `json:"search_text,omitempty"`
}

// Validate checks the at-least-one invariant
func (l Location) Validate() error {
	if l.BBox == nil && (l.SearchText == nil || l.SearchText.Text == "") {
		return ErrEmptyLocation
	}
	return nil
}

// ResolvedKind records which half of a Location produced the rectangle
type ResolvedKind string

const (
	ResolvedByBBox       ResolvedKind = "bbox"
	ResolvedBySearchText ResolvedKind = "search_text"
)

// ResolvedLocation is a concrete rectangle produced by the location resolver
type ResolvedLocation struct {
	Type ResolvedKind `json:"type"`
	BBox BBox         `json:"bbox"`
}

// Location returns a bbox-only location pinned to the resolved rectangle
func (r ResolvedLocation) Location() Location {
	bbox := r.BBox
	return Location{BBox: &bbox}
}
