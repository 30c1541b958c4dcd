package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/claimsiqhq/claimfix/internal/model"
)

const sampleDocument = `ACME MUTUAL - FIRST NOTICE OF LOSS
Claim Number: CLM-2024-00017
Policy Number: HO-555-1234
Insured Name: John A. Smith
Date of Loss: 03/15/2024
Insured Phone: (555) 123-4567
Insured Email: john.smith@example.com
Property Address: 123 Main St, Springfield, IL 62701
Adjuster: Jane Doe
Adjuster Phone: 555.987.6543
Adjuster Email: jdoe@carrier.com
Loss Amount: $10,000.00
Payment Amount: $9,000.00
Deductible: $1,000
`

func newTestExtractor() *FieldExtractor {
	return NewFieldExtractor(model.DefaultConfig().Extraction)
}

func TestFieldExtractor_ClaimNumber(t *testing.T) {
	fields := newTestExtractor().Extract("Claim Number: CLM-2024-12345")

	got, ok := fields[model.FieldClaimNumber]
	if !ok {
		t.Fatal("Expected claim_number to be extracted")
	}
	if got.Value != "CLM-2024-12345" {
		t.Errorf("Expected value CLM-2024-12345, got %q", got.Value)
	}
	if got.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %v", got.Confidence)
	}
	if got.Location.BBox != nil {
		t.Error("Expected no bbox on an extracted location")
	}
	st := got.Location.SearchText
	if st == nil {
		t.Fatal("Expected a search_text location")
	}
	if st.Text != "CLM-2024-12345" || st.Occurrence != 1 {
		t.Errorf("Expected search text CLM-2024-12345 #1, got %q #%d", st.Text, st.Occurrence)
	}
	if st.ContextBefore != "Claim Number:" {
		t.Errorf("Expected context_before 'Claim Number:', got %q", st.ContextBefore)
	}
}

func TestFieldExtractor_IdentifierCase(t *testing.T) {
	tests := []struct {
		desc  string
		text  string
		field model.Field
		want  string // "" means not extracted
	}{
		{desc: "lowercase label, uppercase id", text: "claim no. HO-555-1234", field: model.FieldClaimNumber, want: "HO-555-1234"},
		{desc: "lowercase word after claim label", text: "Claim #: abcd efgh", field: model.FieldClaimNumber, want: ""},
		{desc: "lowercase word after policy label", text: "Policy: pending review", field: model.FieldPolicyNumber, want: ""},
		{desc: "mixed case label", text: "POLICY Number: HO-1234", field: model.FieldPolicyNumber, want: "HO-1234"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := newTestExtractor().Extract(tt.text)[tt.field]
			if tt.want == "" {
				if ok {
					t.Errorf("Expected no %s, got %q", tt.field, got.Value)
				}
				return
			}
			if !ok || got.Value != tt.want {
				t.Errorf("Expected %s %q, got %q", tt.field, tt.want, got.Value)
			}
		})
	}
}

func TestFieldExtractor_FullDocument(t *testing.T) {
	fields := newTestExtractor().Extract(sampleDocument)

	tests := []struct {
		field      model.Field
		value      string
		confidence float64
	}{
		{model.FieldClaimNumber, "CLM-2024-00017", 0.85},
		{model.FieldPolicyNumber, "HO-555-1234", 0.85},
		{model.FieldInsuredName, "John A. Smith", 0.75},
		{model.FieldAdjusterName, "Jane Doe", 0.75},
		{model.FieldDateOfLoss, "03/15/2024", 0.80},
		{model.FieldInsuredPhone, "(555) 123-4567", 0.85},
		{model.FieldAdjusterPhone, "555.987.6543", 0.85},
		{model.FieldInsuredEmail, "john.smith@example.com", 0.90},
		{model.FieldAdjusterEmail, "jdoe@carrier.com", 0.90},
		{model.FieldPropertyAddress, "123 Main St, Springfield, IL 62701", 0.70},
		{model.FieldLossAmount, "$10,000.00", 0.85},
		{model.FieldPaymentAmount, "$9,000.00", 0.85},
		{model.FieldDeductible, "$1,000", 0.85},
	}

	if len(fields) != len(tests) {
		t.Errorf("Expected %d fields, got %d", len(tests), len(fields))
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			got, ok := fields[tt.field]
			if !ok {
				t.Fatalf("Expected %s to be extracted", tt.field)
			}
			if got.Value != tt.value {
				t.Errorf("Expected value %q, got %q", tt.value, got.Value)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Expected confidence %v, got %v", tt.confidence, got.Confidence)
			}
			if err := got.Location.Validate(); err != nil {
				t.Errorf("Expected valid location, got %v", err)
			}
		})
	}
}

func TestFieldExtractor_AcceptanceChecks(t *testing.T) {
	tests := []struct {
		desc  string
		text  string
		field model.Field
		want  bool
	}{
		{desc: "invalid calendar date", text: "Date of Loss: 02/30/2024", field: model.FieldDateOfLoss, want: false},
		{desc: "written date", text: "Date of Loss: March 15, 2024", field: model.FieldDateOfLoss, want: true},
		{desc: "short phone", text: "Insured Phone: 555-1234", field: model.FieldInsuredPhone, want: false},
		{desc: "ten digit phone", text: "Insured Phone: 555-123-4567", field: model.FieldInsuredPhone, want: true},
		{desc: "zero amount", text: "Loss Amount: $0.00", field: model.FieldLossAmount, want: false},
		{desc: "positive amount", text: "Loss Amount: $12.50", field: model.FieldLossAmount, want: true},
		{desc: "single token name", text: "Insured: Madonna", field: model.FieldInsuredName, want: false},
		{desc: "address without digits", text: "Property Address: Main Street", field: model.FieldPropertyAddress, want: false},
		{desc: "email without dot", text: "Insured Email: john@localhost", field: model.FieldInsuredEmail, want: false},
	}

	extractor := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, got := extractor.Extract(tt.text)[tt.field]
			if got != tt.want {
				t.Errorf("Expected extracted=%v for %q, got %v", tt.want, tt.text, got)
			}
		})
	}
}

func TestFieldExtractor_MinPhoneDigits(t *testing.T) {
	extractor := NewFieldExtractor(model.ExtractionConfig{MinPhoneDigits: 7})

	fields := extractor.Extract("Insured Phone: 555-1234")
	if got := fields[model.FieldInsuredPhone].Value; got != "555-1234" {
		t.Errorf("Expected 555-1234 with a 7 digit threshold, got %q", got)
	}
}

func TestFieldExtractor_FirstMatchingPatternDecides(t *testing.T) {
	// The first phone pattern matches but is rejected; the cell phone line is never consulted
	text := "Insured Phone: 555-1234\nCell Phone: (555) 123-4567"

	fields := newTestExtractor().Extract(text)
	if v, ok := fields[model.FieldInsuredPhone]; ok {
		t.Errorf("Expected insured_phone to be absent, got %q", v.Value)
	}

	// Falls through to the second pattern when the first does not match at all
	fields = newTestExtractor().Extract("Cell Phone: (555) 123-4567")
	if got := fields[model.FieldInsuredPhone].Value; got != "(555) 123-4567" {
		t.Errorf("Expected second pattern to match, got %q", got)
	}
}

func TestFieldExtractor_Occurrence(t *testing.T) {
	text := "Re: CLM-2024-001 attached\nClaim Number: CLM-2024-001"

	got := newTestExtractor().Extract(text)[model.FieldClaimNumber]
	if got.Location.SearchText == nil {
		t.Fatal("Expected a search_text location")
	}
	if got.Location.SearchText.Occurrence != 2 {
		t.Errorf("Expected occurrence 2, got %d", got.Location.SearchText.Occurrence)
	}
}

func TestFieldExtractor_SearchTextTruncated(t *testing.T) {
	address := "1234 Extraordinarily Long Boulevard Name, Suite 500, Springfield, IL 62701"
	got := newTestExtractor().Extract("Property Address: " + address)[model.FieldPropertyAddress]

	if got.Value != address {
		t.Errorf("Expected full address value, got %q", got.Value)
	}
	if n := len([]rune(got.Location.SearchText.Text)); n != 50 {
		t.Errorf("Expected 50 rune search text, got %d", n)
	}
	if !strings.HasPrefix(address, got.Location.SearchText.Text) {
		t.Errorf("Expected search text to be a prefix of the value, got %q", got.Location.SearchText.Text)
	}
}

func TestFieldExtractor_Idempotent(t *testing.T) {
	extractor := newTestExtractor()

	first, err := json.Marshal(extractor.Extract(sampleDocument))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(extractor.Extract(sampleDocument))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Expected identical output on run %d", i)
		}
	}
}

func TestFieldExtractor_EmptyText(t *testing.T) {
	if fields := newTestExtractor().Extract(""); len(fields) != 0 {
		t.Errorf("Expected no fields, got %d", len(fields))
	}
}

func TestFieldExtractor_CoversEveryField(t *testing.T) {
	ps := DefaultPatterns()
	for _, f := range model.AllFields {
		if len(ps.For(f)) == 0 {
			t.Errorf("Expected built-in patterns for %s", f)
		}
		if c := confidenceFor(f.Category()); c <= 0 || c > 1 {
			t.Errorf("Expected confidence in (0,1] for %s, got %v", f, c)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$10,000", 10000, true},
		{"$10,050.25", 10050.25, true},
		{"USD 7", 7, true},
		{"n/a", 0, false},
		{"1.2.3", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; expected %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
