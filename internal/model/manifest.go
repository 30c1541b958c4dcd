package model

// ClaimManifest lists the documents of one claim for the validate command
type ClaimManifest struct {
	ClaimID   string        `yaml:"claim_id" json:"claim_id"`
	Documents []DocumentRef `yaml:"documents" json:"documents"`
}

// DocumentRef points at one document's text on disk
type DocumentRef struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}
