package viewer

import (
	"context"

	"github.com/claimsiqhq/claimfix/internal/fix"
	"github.com/claimsiqhq/claimfix/internal/locate"
	"github.com/claimsiqhq/claimfix/internal/model"
)

// Session is the viewer bound to one document
type Session struct {
	client     *Client
	documentID string
}

// DocumentID returns the bound document
func (s *Session) DocumentID() string {
	return s.documentID
}

type textRequest struct {
	BBox model.BBox `json:"bbox"`
}

type textResponse struct {
	Text string `json:"text"`
}

// TextAtLocation returns the text inside rect
func (s *Session) TextAtLocation(ctx context.Context, rect model.BBox) (string, error) {
	var resp textResponse
	if err := s.client.read(ctx, s.documentID, "text", textRequest{BBox: rect}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

type searchRequest struct {
	Text string `json:"text"`
}

type searchResponse struct {
	Hits []model.BBox `json:"hits"`
}

// Search returns every rectangle where text occurs, in document order
func (s *Session) Search(ctx context.Context, text string) (locate.SearchResults, error) {
	var resp searchResponse
	if err := s.client.read(ctx, s.documentID, "search", searchRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return locate.Hits(resp.Hits), nil
}

type correctionRequest struct {
	Strategy   fix.Strategy     `json:"strategy"`
	Correction model.Correction `json:"correction"`
}

type correctionResponse struct {
	Success bool   `json:"success"`
	Method  string `json:"method"`
	Error   string `json:"error"`
}

// ApplyTextCorrection asks the viewer to apply c with one strategy
func (s *Session) ApplyTextCorrection(ctx context.Context, c model.Correction, strategy fix.Strategy) (fix.AdapterResult, error) {
	var resp correctionResponse
	req := correctionRequest{Strategy: strategy, Correction: c}
	if err := s.client.write(ctx, s.documentID, "corrections", req, &resp); err != nil {
		return fix.AdapterResult{}, err
	}
	method := resp.Method
	if method == "" {
		method = string(strategy)
	}
	return fix.AdapterResult{Success: resp.Success, Method: method, Error: resp.Error}, nil
}

type annotationRequest struct {
	Annotation model.Annotation `json:"annotation"`
}

type annotationResponse struct {
	Success  bool   `json:"success"`
	NativeID string `json:"native_id"`
	Error    string `json:"error"`
}

// CreateAnnotation places a native annotation in the viewer
func (s *Session) CreateAnnotation(ctx context.Context, a model.Annotation) (fix.AnnotationAck, error) {
	var resp annotationResponse
	if err := s.client.write(ctx, s.documentID, "annotations", annotationRequest{Annotation: a}, &resp); err != nil {
		return fix.AnnotationAck{}, err
	}
	return fix.AnnotationAck{Success: resp.Success, NativeID: resp.NativeID, Error: resp.Error}, nil
}
