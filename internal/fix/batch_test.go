package fix

import (
	"context"
	"errors"
	"testing"

	"github.com/claimsiqhq/claimfix/internal/model"
)

func samplePayload() model.CorrectionPayload {
	review := correction("c-review", model.CorrectionTypo)
	review.RequiresHumanReview = true

	flagged := correction("c-flagged", model.CorrectionTypo)
	flagged.RecommendedAction = model.ActionFlagForReview

	return model.CorrectionPayload{
		ClaimID: "claim-1",
		Documents: []model.DocumentCorrections{
			{
				DocumentID: "doc-1",
				Corrections: []model.Correction{
					correction("c1", model.CorrectionTypo),
					correction("c2", model.CorrectionNumericError),
					review,
				},
				Annotations: []model.Annotation{
					{ID: "a1", Type: model.AnnotationFlag, Location: model.Location{SearchText: &model.SearchText{Text: "x"}}},
				},
			},
			{
				DocumentID: "doc-2",
				Corrections: []model.Correction{
					correction("c3", model.CorrectionDateError),
					flagged,
				},
			},
		},
	}
}

func TestProcessCorrectionPayload_IsolatesFailures(t *testing.T) {
	target := &fakeTarget{applyFn: func(c model.Correction, s Strategy) (AdapterResult, error) {
		if c.ID == "c2" {
			panic("adapter blew up")
		}
		return AdapterResult{Success: true}, nil
	}}
	engine := NewEngine(&fakeResolver{}, target)

	got := engine.ProcessCorrectionPayload(context.Background(), samplePayload())

	if len(got.Corrections) != 3 {
		t.Fatalf("Expected 3 processed corrections, got %d", len(got.Corrections))
	}
	for _, cr := range got.Corrections {
		wantOK := cr.CorrectionID != "c2"
		if cr.Success != wantOK {
			t.Errorf("Expected %s success=%v, got %+v", cr.CorrectionID, wantOK, cr)
		}
	}
	if len(got.Errors) != 1 || got.Errors[0].ItemID != "c2" || got.Errors[0].Kind != "correction" {
		t.Errorf("Expected exactly one error for c2, got %+v", got.Errors)
	}
	if got.Errors[0].DocumentID != "doc-1" {
		t.Errorf("Expected error attributed to doc-1, got %s", got.Errors[0].DocumentID)
	}
	if len(got.Annotations) != 1 || !got.Annotations[0].Success {
		t.Errorf("Expected the annotation to be applied, got %+v", got.Annotations)
	}
	if got.Applied() != 2 {
		t.Errorf("Expected 2 applied, got %d", got.Applied())
	}
}

func TestProcessCorrectionPayload_SkipsManualCorrections(t *testing.T) {
	target := &fakeTarget{}
	got := NewEngine(&fakeResolver{}, target).ProcessCorrectionPayload(context.Background(), samplePayload())

	want := map[string]bool{"c-review": true, "c-flagged": true}
	if len(got.Skipped) != len(want) {
		t.Fatalf("Expected %d skipped, got %v", len(want), got.Skipped)
	}
	for _, id := range got.Skipped {
		if !want[id] {
			t.Errorf("Unexpected skipped id %s", id)
		}
	}
	for _, c := range target.seen {
		if want[c.ID] {
			t.Errorf("Expected %s never to reach the target", c.ID)
		}
	}
}

func TestProcessCorrectionPayload_PayloadOrder(t *testing.T) {
	got := NewEngine(&fakeResolver{}, &fakeTarget{}).ProcessCorrectionPayload(context.Background(), samplePayload())

	order := []string{"c1", "c2", "c3"}
	for i, id := range order {
		if got.Corrections[i].CorrectionID != id {
			t.Errorf("Expected correction %d to be %s, got %s", i, id, got.Corrections[i].CorrectionID)
		}
	}
}

func TestProcessCorrectionPayload_ResolverPanic(t *testing.T) {
	engine := NewEngine(panicResolver{}, &fakeTarget{})

	got := engine.ProcessCorrectionPayload(context.Background(), samplePayload())

	// 3 auto corrections + 1 annotation all fail, none escape
	if len(got.Errors) != 4 {
		t.Errorf("Expected 4 errors, got %d: %+v", len(got.Errors), got.Errors)
	}
}

type panicResolver struct{}

func (panicResolver) Resolve(context.Context, model.Location) (*model.ResolvedLocation, error) {
	panic("resolver bug")
}

func TestProcessClaim_PerDocumentEngines(t *testing.T) {
	targets := map[string]*fakeTarget{"doc-1": {}}

	open := func(_ context.Context, documentID string) (*Engine, error) {
		target, ok := targets[documentID]
		if !ok {
			return nil, errors.New("document not loaded")
		}
		return NewEngine(&fakeResolver{}, target), nil
	}

	got := ProcessClaim(context.Background(), samplePayload(), open)

	if got.ClaimID != "claim-1" {
		t.Errorf("Expected claim-1, got %s", got.ClaimID)
	}
	if got.Applied() != 2 {
		t.Errorf("Expected 2 applied on doc-1, got %d", got.Applied())
	}
	if len(got.Errors) != 1 || got.Errors[0].ItemID != "c3" || got.Errors[0].DocumentID != "doc-2" {
		t.Errorf("Expected c3 to fail with doc-2 unavailable, got %+v", got.Errors)
	}
	if len(got.Skipped) != 2 {
		t.Errorf("Expected 2 skipped, got %v", got.Skipped)
	}
}

func TestMarkApplied(t *testing.T) {
	payload := samplePayload()
	result := ProcessingResult{Corrections: []CorrectionResult{
		{CorrectionID: "c1", DocumentID: "doc-1", Success: true},
		{CorrectionID: "c2", DocumentID: "doc-1", Success: false},
		{CorrectionID: "c3", DocumentID: "doc-1", Success: true}, // wrong document
	}}

	if err := MarkApplied(&payload, result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	statuses := map[string]model.CorrectionStatus{}
	for _, d := range payload.Documents {
		for _, c := range d.Corrections {
			statuses[c.ID] = c.Status
		}
	}
	if statuses["c1"] != model.CorrectionApplied {
		t.Errorf("Expected c1 applied, got %s", statuses["c1"])
	}
	if statuses["c2"] != model.CorrectionPending || statuses["c3"] != model.CorrectionPending {
		t.Errorf("Expected c2 and c3 to stay pending, got %s %s", statuses["c2"], statuses["c3"])
	}

	// Applying twice is an invalid transition
	if err := MarkApplied(&payload, result); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}
