package model

// DocumentCorrections groups the corrections and annotations proposed for one document
type DocumentCorrections struct {
	DocumentID   string       `json:"document_id"`
	DocumentName string       `json:"document_name,omitempty"`
	Corrections  []Correction `json:"corrections"`
	Annotations  []Annotation `json:"annotations"`
}

// CorrectionPayload is the canonical form of an analysis payload for one claim
type CorrectionPayload struct {
	ClaimID     string                    `json:"claim_id"`
	Documents   []DocumentCorrections     `json:"documents"`
	Validations []CrossDocumentValidation `json:"cross_document_validations"`
}

// Document returns the document entry with the given id
func (p *CorrectionPayload) Document(id string) (*DocumentCorrections, bool) {
	for i := range p.Documents {
		if p.Documents[i].DocumentID == id {
			return &p.Documents[i], true
		}
	}
	return nil, false
}

// CorrectionCount returns the number of corrections across all documents
func (p *CorrectionPayload) CorrectionCount() int {
	n := 0
	for _, d := range p.Documents {
		n += len(d.Corrections)
	}
	return n
}
