package fix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/claimsiqhq/claimfix/internal/locate"
	"github.com/claimsiqhq/claimfix/internal/model"
)

var resolvedBox = model.BBox{PageIndex: 1, Left: 100, Top: 200, Width: 80, Height: 12}

// fakeResolver resolves every location to resolvedBox unless failFor names the search text
type fakeResolver struct {
	failFor map[string]bool
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, loc model.Location) (*model.ResolvedLocation, error) {
	f.calls++
	if loc.SearchText != nil && f.failFor[loc.SearchText.Text] {
		return nil, locate.ErrUnresolved
	}
	return &model.ResolvedLocation{Type: model.ResolvedBySearchText, BBox: resolvedBox}, nil
}

// fakeTarget applies corrections through a per-test function and records every call
type fakeTarget struct {
	mu         sync.Mutex
	applyFn    func(c model.Correction, s Strategy) (AdapterResult, error)
	annotateFn func(a model.Annotation) (AnnotationAck, error)
	calls      []Strategy
	seen       []model.Correction
}

func (f *fakeTarget) ApplyTextCorrection(_ context.Context, c model.Correction, s Strategy) (AdapterResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.seen = append(f.seen, c)
	f.mu.Unlock()
	if f.applyFn == nil {
		return AdapterResult{Success: true, Method: string(s)}, nil
	}
	return f.applyFn(c, s)
}

func (f *fakeTarget) CreateAnnotation(_ context.Context, a model.Annotation) (AnnotationAck, error) {
	if f.annotateFn == nil {
		return AnnotationAck{Success: true, NativeID: "native-" + a.ID}, nil
	}
	return f.annotateFn(a)
}

// fakeRecorder counts observed outcomes
type fakeRecorder struct {
	strategies map[string]int
	items      map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{strategies: map[string]int{}, items: map[string]int{}}
}

func (r *fakeRecorder) ObserveStrategy(strategy string, success bool) {
	if success {
		r.strategies[strategy+"/ok"]++
	} else {
		r.strategies[strategy+"/fail"]++
	}
}

func (r *fakeRecorder) ObserveItem(kind, outcome string) {
	r.items[kind+"/"+outcome]++
}

func correction(id string, typ model.CorrectionType) model.Correction {
	return model.Correction{
		ID:                id,
		Type:              typ,
		Severity:          model.SeverityWarning,
		Location:          model.Location{SearchText: &model.SearchText{Text: "found " + id}},
		FoundValue:        "found " + id,
		ExpectedValue:     "expected " + id,
		Confidence:        0.97,
		RecommendedAction: model.ActionAutoCorrect,
		Status:            model.CorrectionPending,
	}
}

func TestApplyCorrection_FirstStrategySucceeds(t *testing.T) {
	target := &fakeTarget{}
	resolver := &fakeResolver{}
	engine := NewEngine(resolver, target)

	c := correction("c1", model.CorrectionTypo)
	c.FormFieldName = "claim_no"

	got := engine.ApplyCorrection(context.Background(), c)

	if !got.Success || got.Strategy != StrategyFormField {
		t.Errorf("Expected success via form_field, got %+v", got)
	}
	if len(target.calls) != 1 {
		t.Errorf("Expected remaining strategies to be skipped, got calls %v", target.calls)
	}
	if resolver.calls != 1 {
		t.Errorf("Expected exactly one resolution, got %d", resolver.calls)
	}
	if bbox := target.seen[0].Location.BBox; bbox == nil || *bbox != resolvedBox || target.seen[0].Location.SearchText != nil {
		t.Errorf("Expected resolved bbox to replace the location, got %+v", target.seen[0].Location)
	}
	if c.Location.BBox != nil {
		t.Error("Expected caller's correction to be left untouched")
	}
}

func TestApplyCorrection_CascadeAdvances(t *testing.T) {
	tests := []struct {
		desc    string
		applyFn func(c model.Correction, s Strategy) (AdapterResult, error)
		want    Strategy
	}{
		{
			desc: "error advances",
			applyFn: func(_ model.Correction, s Strategy) (AdapterResult, error) {
				if s == StrategyContentEdit {
					return AdapterResult{}, errors.New("no text layer")
				}
				return AdapterResult{Success: true}, nil
			},
			want: StrategyRedactionOverlay,
		},
		{
			desc: "explicit false advances",
			applyFn: func(_ model.Correction, s Strategy) (AdapterResult, error) {
				return AdapterResult{Success: s == StrategyRedactionOverlay}, nil
			},
			want: StrategyRedactionOverlay,
		},
		{
			desc: "panic advances",
			applyFn: func(_ model.Correction, s Strategy) (AdapterResult, error) {
				if s == StrategyContentEdit {
					panic("viewer crashed")
				}
				return AdapterResult{Success: true}, nil
			},
			want: StrategyRedactionOverlay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			target := &fakeTarget{applyFn: tt.applyFn}
			got := NewEngine(&fakeResolver{}, target).ApplyCorrection(context.Background(), correction("c1", model.CorrectionDateError))

			if !got.Success || got.Strategy != tt.want {
				t.Errorf("Expected success via %s, got %+v", tt.want, got)
			}
			if len(got.Attempts) != 2 || got.Attempts[0].Error == "" {
				t.Errorf("Expected a failed attempt followed by a success, got %+v", got.Attempts)
			}
		})
	}
}

func TestApplyCorrection_RecordsTargetMethod(t *testing.T) {
	tests := []struct {
		desc   string
		method string
		want   string
	}{
		{desc: "target names its method", method: "acroform_set_value", want: "acroform_set_value"},
		{desc: "falls back to the strategy", method: "", want: string(StrategyContentEdit)},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			target := &fakeTarget{applyFn: func(model.Correction, Strategy) (AdapterResult, error) {
				return AdapterResult{Success: true, Method: tt.method}, nil
			}}
			got := NewEngine(&fakeResolver{}, target).ApplyCorrection(context.Background(), correction("c1", model.CorrectionTypo))

			if got.Strategy != StrategyContentEdit {
				t.Errorf("Expected strategy content_edit, got %q", got.Strategy)
			}
			if got.Method != tt.want {
				t.Errorf("Expected method %q, got %q", tt.want, got.Method)
			}
		})
	}
}

func TestApplyCorrection_UnknownTypeUsesDefaultCascade(t *testing.T) {
	target := &fakeTarget{applyFn: func(_ model.Correction, s Strategy) (AdapterResult, error) {
		return AdapterResult{Success: s == StrategyRedactionOverlay}, nil
	}}
	got := NewEngine(&fakeResolver{}, target).ApplyCorrection(context.Background(), correction("c1", ""))

	if !got.Success || got.Strategy != StrategyRedactionOverlay {
		t.Errorf("Expected success via redaction_overlay, got %+v", got)
	}
	if len(target.calls) != 2 || target.calls[0] != StrategyContentEdit {
		t.Errorf("Expected content_edit then redaction_overlay, got %v", target.calls)
	}
}

func TestApplyCorrection_IndeterminateStopsCascade(t *testing.T) {
	target := &fakeTarget{applyFn: func(model.Correction, Strategy) (AdapterResult, error) {
		return AdapterResult{}, fmt.Errorf("%w: decode response: unexpected EOF", ErrIndeterminate)
	}}
	recorder := newFakeRecorder()
	got := NewEngine(&fakeResolver{}, target, WithRecorder(recorder)).ApplyCorrection(context.Background(), correction("c1", model.CorrectionTypo))

	if got.Success {
		t.Errorf("Expected failure, got %+v", got)
	}
	if len(target.calls) != 1 {
		t.Errorf("Expected no strategy after an indeterminate write, got calls %v", target.calls)
	}
	if !strings.Contains(got.Error, "write outcome unknown") {
		t.Errorf("Expected indeterminate error, got %q", got.Error)
	}
	if recorder.items["correction/failed"] != 1 {
		t.Errorf("Expected one failed item, got %v", recorder.items)
	}
}

func TestApplyCorrection_AllStrategiesFail(t *testing.T) {
	target := &fakeTarget{applyFn: func(model.Correction, Strategy) (AdapterResult, error) {
		return AdapterResult{Success: false, Error: "locked"}, nil
	}}
	recorder := newFakeRecorder()

	c := correction("c1", model.CorrectionNameMismatch)
	c.FormFieldName = "insured"
	got := NewEngine(&fakeResolver{}, target, WithRecorder(recorder)).ApplyCorrection(context.Background(), c)

	if got.Success {
		t.Fatal("Expected failure")
	}
	if got.Error != "All strategies failed" {
		t.Errorf("Expected 'All strategies failed', got %q", got.Error)
	}
	want := []Strategy{StrategyFormField, StrategyContentEdit, StrategyRedactionOverlay}
	if len(target.calls) != len(want) {
		t.Fatalf("Expected %d attempts, got %v", len(want), target.calls)
	}
	for i, s := range want {
		if target.calls[i] != s {
			t.Errorf("Expected attempt %d to be %s, got %s", i, s, target.calls[i])
		}
	}
	if recorder.items["correction/failed"] != 1 || recorder.strategies["form_field/fail"] != 1 {
		t.Errorf("Expected failures to be recorded, got %v %v", recorder.items, recorder.strategies)
	}
}

func TestApplyCorrection_ResolutionFailure(t *testing.T) {
	target := &fakeTarget{}
	resolver := &fakeResolver{failFor: map[string]bool{"found c1": true}}

	got := NewEngine(resolver, target).ApplyCorrection(context.Background(), correction("c1", model.CorrectionTypo))

	if got.Success {
		t.Fatal("Expected failure")
	}
	if !strings.Contains(got.Error, "could not resolve location") {
		t.Errorf("Expected a resolution error, got %q", got.Error)
	}
	if got.Error == AllStrategiesFailed {
		t.Error("Expected a resolution-specific error, not the cascade error")
	}
	if len(target.calls) != 0 {
		t.Errorf("Expected no strategy attempts, got %v", target.calls)
	}
}

func TestApplyAnnotation(t *testing.T) {
	tests := []struct {
		desc       string
		annotateFn func(a model.Annotation) (AnnotationAck, error)
		failFor    map[string]bool
		wantOK     bool
		wantNative string
	}{
		{desc: "created", wantOK: true, wantNative: "native-a1"},
		{
			desc:       "target error",
			annotateFn: func(model.Annotation) (AnnotationAck, error) { return AnnotationAck{}, errors.New("read only") },
		},
		{
			desc:       "target reports failure",
			annotateFn: func(model.Annotation) (AnnotationAck, error) { return AnnotationAck{Success: false}, nil },
		},
		{
			desc:       "target panics",
			annotateFn: func(model.Annotation) (AnnotationAck, error) { panic("boom") },
		},
		{desc: "unresolved", failFor: map[string]bool{"Jon Smith": true}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			target := &fakeTarget{annotateFn: tt.annotateFn}
			engine := NewEngine(&fakeResolver{failFor: tt.failFor}, target)

			got := engine.ApplyAnnotation(context.Background(), model.Annotation{
				ID:       "a1",
				Type:     model.AnnotationHighlight,
				Location: model.Location{SearchText: &model.SearchText{Text: "Jon Smith"}},
			})

			if got.Success != tt.wantOK {
				t.Errorf("Expected success=%v, got %+v", tt.wantOK, got)
			}
			if got.NativeID != tt.wantNative {
				t.Errorf("Expected native id %q, got %q", tt.wantNative, got.NativeID)
			}
			if !tt.wantOK && got.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}
