package payload

import (
	"fmt"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// IssueBundle is the legacy per-document issue list consumed by older viewer integrations
type IssueBundle struct {
	ClaimID    string  `json:"claim_id"`
	DocumentID string  `json:"document_id"`
	Issues     []Issue `json:"issues"`
}

// Issue is one legacy issue entry
type Issue struct {
	ID            string      `json:"id"`
	Kind          string      `json:"kind"` // "correction" or "cross_document"
	Type          string      `json:"type"`
	Severity      string      `json:"severity"`
	PageIndex     *int        `json:"pageIndex,omitempty"`
	Rect          *model.BBox `json:"rect,omitempty"`
	SearchText    string      `json:"searchText,omitempty"`
	FoundValue    string      `json:"foundValue"`
	ExpectedValue string      `json:"expectedValue,omitempty"`
	Confidence    float64     `json:"confidence"`
	Action        string      `json:"action"`
	Reasoning     string      `json:"reasoning,omitempty"`
	FormFieldName string      `json:"formFieldName,omitempty"`
}

// AdaptToIssueBundle maps a raw payload to the legacy bundle for one document.
// Cross-document validations contribute one issue per occurrence in that document.
func (a *Adapter) AdaptToIssueBundle(raw []byte, documentID string) (*IssueBundle, error) {
	result, err := a.AdaptCorrectionPayload(raw)
	if err != nil {
		return nil, err
	}
	return BundleFor(result.Payload, documentID)
}

// BundleFor builds the legacy bundle for one document of a canonical payload
func BundleFor(p model.CorrectionPayload, documentID string) (*IssueBundle, error) {
	bundle := &IssueBundle{ClaimID: p.ClaimID, DocumentID: documentID, Issues: []Issue{}}
	found := false

	if doc, ok := p.Document(documentID); ok {
		found = true
		for _, c := range doc.Corrections {
			issue := Issue{
				ID:            c.ID,
				Kind:          "correction",
				Type:          string(c.Type),
				Severity:      string(c.Severity),
				FoundValue:    c.FoundValue,
				ExpectedValue: c.ExpectedValue,
				Confidence:    c.Confidence,
				Action:        string(c.RecommendedAction),
				Reasoning:     c.Evidence.Reasoning,
				FormFieldName: c.FormFieldName,
			}
			issue.setLocation(c.Location)
			bundle.Issues = append(bundle.Issues, issue)
		}
	}

	for _, v := range p.Validations {
		for i, dv := range v.Documents {
			if dv.DocumentID != documentID {
				continue
			}
			found = true
			issue := Issue{
				ID:            fmt.Sprintf("%s#%d", v.ID, i),
				Kind:          "cross_document",
				Type:          string(model.CorrectionInconsistentValue),
				Severity:      string(v.Severity),
				FoundValue:    dv.FoundValue,
				ExpectedValue: v.ExpectedValue,
				Confidence:    dv.Confidence,
				Action:        string(v.RecommendedAction),
				Reasoning:     v.Reasoning,
			}
			issue.setLocation(dv.Location)
			bundle.Issues = append(bundle.Issues, issue)
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, documentID)
	}
	return bundle, nil
}

func (i *Issue) setLocation(loc model.Location) {
	if loc.BBox != nil {
		bbox := *loc.BBox
		page := bbox.PageIndex
		i.PageIndex = &page
		i.Rect = &bbox
	}
	if loc.SearchText != nil {
		i.SearchText = loc.SearchText.Text
	}
}
