package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/claimsiqhq/claimfix/internal/model"
)

// Fixed confidences per category
const (
	ConfidenceIdentifier = 0.85
	ConfidenceDate       = 0.80
	ConfidenceName       = 0.75
	ConfidencePhone      = 0.85
	ConfidenceEmail      = 0.90
	ConfidenceAddress    = 0.70
	ConfidenceAmount     = 0.85
)

// maxSearchRunes bounds search text and context length
const maxSearchRunes = 50

// FieldExtractor pulls typed, confidence-scored field values out of raw document text.
// It holds no mutable state and is safe for concurrent use.
type FieldExtractor struct {
	patterns       *PatternSet
	minPhoneDigits int
}

// NewFieldExtractor creates an extractor using the built-in patterns
func NewFieldExtractor(cfg model.ExtractionConfig) *FieldExtractor {
	minDigits := cfg.MinPhoneDigits
	if minDigits <= 0 {
		minDigits = model.DefaultConfig().Extraction.MinPhoneDigits
	}
	return &FieldExtractor{
		patterns:       DefaultPatterns(),
		minPhoneDigits: minDigits,
	}
}

// WithPatterns returns a copy of the extractor that uses another pattern set
func (e *FieldExtractor) WithPatterns(ps *PatternSet) *FieldExtractor {
	cp := *e
	cp.patterns = ps
	return &cp
}

// PatternVersion returns the version of the active pattern set
func (e *FieldExtractor) PatternVersion() string {
	return e.patterns.Version()
}

// CacheVersion identifies everything that changes extraction output for the same text
func (e *FieldExtractor) CacheVersion() string {
	return e.patterns.Version() + "/phone" + strconv.Itoa(e.minPhoneDigits)
}

// Extract returns every field that a pattern matched and its category accepted.
// For each field the first matching pattern decides; later patterns are not tried.
func (e *FieldExtractor) Extract(text string) model.ExtractedFields {
	fields := make(model.ExtractedFields)

	for _, field := range model.AllFields {
		for _, re := range e.patterns.For(field) {
			loc := re.FindStringSubmatchIndex(text)
			if loc == nil || loc[2] < 0 {
				continue
			}

			value, start := trimCapture(text, loc[2], loc[3])
			if value != "" && e.accept(field, value) {
				fields[field] = model.ExtractedValue{
					Value:      value,
					Confidence: confidenceFor(field.Category()),
					Location:   searchLocation(text, value, start, text[loc[0]:loc[2]]),
				}
			}
			break
		}
	}

	return fields
}

// accept applies the category acceptance check to a captured value
func (e *FieldExtractor) accept(field model.Field, value string) bool {
	switch field.Category() {
	case model.CategoryIdentifier:
		return true
	case model.CategoryDate:
		return isCalendarDate(value)
	case model.CategoryName:
		return len(strings.Fields(value)) >= 2
	case model.CategoryPhone:
		return countDigits(value) >= e.minPhoneDigits
	case model.CategoryEmail:
		return strings.Contains(value, "@") && strings.Contains(value, ".")
	case model.CategoryAddress:
		return strings.IndexFunc(value, unicode.IsDigit) >= 0 && strings.IndexFunc(value, unicode.IsLetter) >= 0
	case model.CategoryAmount:
		amount, ok := ParseAmount(value)
		return ok && amount > 0
	}
	panic(fmt.Sprintf("extract: unhandled category %q", field.Category()))
}

func confidenceFor(category model.FieldCategory) float64 {
	switch category {
	case model.CategoryIdentifier:
		return ConfidenceIdentifier
	case model.CategoryDate:
		return ConfidenceDate
	case model.CategoryName:
		return ConfidenceName
	case model.CategoryPhone:
		return ConfidencePhone
	case model.CategoryEmail:
		return ConfidenceEmail
	case model.CategoryAddress:
		return ConfidenceAddress
	case model.CategoryAmount:
		return ConfidenceAmount
	}
	panic(fmt.Sprintf("extract: unhandled category %q", category))
}

// ParseAmount strips everything but digits and the decimal point and parses the rest
func ParseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isCalendarDate reports whether s parses to a real date.
// dateparse rejects out-of-range days such as 02/30/2024.
func isCalendarDate(s string) bool {
	_, err := dateparse.ParseAny(s)
	return err == nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// trimCapture trims whitespace and trailing separators from a capture
// and returns the value with its byte offset in text
func trimCapture(text string, start, end int) (string, int) {
	raw := text[start:end]
	value := strings.TrimRight(strings.TrimSpace(raw), ",;")
	value = strings.TrimSpace(value)
	if value == "" {
		return "", start
	}
	return value, start + strings.Index(raw, value)
}

// searchLocation builds the approximate location of a value.
// Extraction has no page coordinates, so the location is always a search text.
func searchLocation(text, value string, start int, label string) model.Location {
	search := truncateRunes(value, maxSearchRunes)

	st := &model.SearchText{
		Text:       search,
		Occurrence: strings.Count(text[:start], search) + 1,
	}
	if before := lastRunes(strings.TrimSpace(label), maxSearchRunes); before != "" {
		st.ContextBefore = before
	}

	return model.Location{SearchText: st}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
