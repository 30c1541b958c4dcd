package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/claimsiqhq/claimfix/internal/model"
)

func TestRecorder_Strategies(t *testing.T) {
	r := NewRecorder()

	r.ObserveStrategy("content_edit", false)
	r.ObserveStrategy("redaction_overlay", true)
	r.ObserveStrategy("redaction_overlay", true)

	if got := testutil.ToFloat64(r.strategies.WithLabelValues("redaction_overlay", "true")); got != 2 {
		t.Errorf("Expected 2 successful overlay attempts, got %v", got)
	}
	if got := testutil.ToFloat64(r.strategies.WithLabelValues("content_edit", "false")); got != 1 {
		t.Errorf("Expected 1 failed content edit, got %v", got)
	}
}

func TestRecorder_ItemsAndValidations(t *testing.T) {
	r := NewRecorder()

	r.ObserveItem("correction", "applied")
	r.ObserveItem("correction", "unresolved")
	r.ObserveItem("annotation", "applied")

	r.ObserveValidations([]model.CrossDocumentValidation{
		{Field: model.FieldClaimNumber, Severity: model.SeverityCritical, RecommendedAction: model.ActionEscalate},
		{Field: model.FieldClaimNumber, Severity: model.SeverityCritical, RecommendedAction: model.ActionEscalate},
		{Field: model.FieldInsuredEmail, Severity: model.SeverityInfo, RecommendedAction: model.ActionFlagForReview},
	})

	if got := testutil.ToFloat64(r.items.WithLabelValues("correction", "applied")); got != 1 {
		t.Errorf("Expected 1 applied correction, got %v", got)
	}
	if got := testutil.ToFloat64(r.validations.WithLabelValues("claim_number", "critical", "escalate")); got != 2 {
		t.Errorf("Expected 2 claim number validations, got %v", got)
	}
	if got := testutil.CollectAndCount(r.validations); got != 2 {
		t.Errorf("Expected 2 validation series, got %d", got)
	}
}

func TestRecorder_Documents(t *testing.T) {
	r := NewRecorder()
	r.ObserveDocuments([]model.DocumentSummary{
		{DocumentID: "a", Cached: true},
		{DocumentID: "b"},
		{DocumentID: "c", Error: "unreadable"},
	})

	if got := testutil.ToFloat64(r.documents.WithLabelValues("true", "false")); got != 1 {
		t.Errorf("Expected 1 cached document, got %v", got)
	}
	if got := testutil.ToFloat64(r.documents.WithLabelValues("false", "true")); got != 1 {
		t.Errorf("Expected 1 failed document, got %v", got)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveItem("correction", "applied")

	path := filepath.Join(t.TempDir(), "claimfix.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `claimfix_items_total{kind="correction",outcome="applied"} 1`
	if !strings.Contains(string(data), want) {
		t.Errorf("Expected textfile to contain %q, got:\n%s", want, data)
	}
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	r := NewRecorder()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
