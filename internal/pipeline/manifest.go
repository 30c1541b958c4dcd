package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/claimsiqhq/claimfix/internal/model"
)

// LoadManifest reads a claim manifest.
// Relative document paths resolve against the manifest's directory; a missing
// document name defaults to the file's base name.
func LoadManifest(path string) (*model.ClaimManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m model.ClaimManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if m.ClaimID == "" {
		return nil, fmt.Errorf("manifest %s: claim_id is required", path)
	}
	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("manifest %s: no documents", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool)
	for i := range m.Documents {
		doc := &m.Documents[i]
		if doc.ID == "" || doc.Path == "" {
			return nil, fmt.Errorf("manifest %s: document %d needs id and path", path, i)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("manifest %s: duplicate document id %s", path, doc.ID)
		}
		seen[doc.ID] = true

		if !filepath.IsAbs(doc.Path) {
			doc.Path = filepath.Join(base, doc.Path)
		}
		if doc.Name == "" {
			doc.Name = filepath.Base(doc.Path)
		}
	}
	return &m, nil
}
