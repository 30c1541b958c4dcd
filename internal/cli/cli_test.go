package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claimsiqhq/claimfix/internal/model"
	"github.com/claimsiqhq/claimfix/internal/payload"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const testPayload = "../payload/testdata/claim_payload.json"

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetViper(t)
	t.Cleanup(func() {
		documentID = ""
		noSchema = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)
	configureEnv(viper.GetViper())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	defaults := model.DefaultConfig()
	if cfg.Extraction.MinPhoneDigits != defaults.Extraction.MinPhoneDigits {
		t.Errorf("Expected min phone digits %d, got %d", defaults.Extraction.MinPhoneDigits, cfg.Extraction.MinPhoneDigits)
	}
	if cfg.Cache.DiskTTL != defaults.Cache.DiskTTL {
		t.Errorf("Expected disk TTL %v, got %v", defaults.Cache.DiskTTL, cfg.Cache.DiskTTL)
	}
	if !cfg.Payload.ValidateSchema {
		t.Error("Expected schema validation on by default")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	resetViper(t)
	configureEnv(viper.GetViper())

	t.Setenv("CLAIMFIX_VIEWER_BASE_URL", "http://viewer.internal:8700")
	t.Setenv("CLAIMFIX_CACHE_MEMORY_TTL", "5m")
	t.Setenv("CLAIMFIX_EXTRACTION_MIN_PHONE_DIGITS", "7")
	t.Setenv("CLAIMFIX_RESOLVER_STRICT_CONTEXT", "true")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Viewer.BaseURL != "http://viewer.internal:8700" {
		t.Errorf("Expected viewer URL from env, got %q", cfg.Viewer.BaseURL)
	}
	if cfg.Cache.MemoryTTL != 5*time.Minute {
		t.Errorf("Expected memory TTL 5m, got %v", cfg.Cache.MemoryTTL)
	}
	if cfg.Extraction.MinPhoneDigits != 7 {
		t.Errorf("Expected min phone digits 7, got %d", cfg.Extraction.MinPhoneDigits)
	}
	if !cfg.Resolver.StrictContext {
		t.Error("Expected strict context from env")
	}
	// Untouched keys keep their defaults
	if cfg.Viewer.BurstSize != model.DefaultConfig().Viewer.BurstSize {
		t.Errorf("Expected default burst size, got %d", cfg.Viewer.BurstSize)
	}
}

func TestLoadConfigProviderKeys(t *testing.T) {
	tests := []struct {
		desc        string
		provider    string
		env         map[string]string
		wantAPIKey  string
		wantBaseURL string
	}{
		{
			desc:       "openai key from OPENAI_API_KEY",
			provider:   "openai",
			env:        map[string]string{"OPENAI_API_KEY": "sk-test"},
			wantAPIKey: "sk-test",
		},
		{
			desc:       "configured key wins",
			provider:   "openai",
			env:        map[string]string{"OPENAI_API_KEY": "sk-env", "CLAIMFIX_LLM_API_KEY": "sk-config"},
			wantAPIKey: "sk-config",
		},
		{
			desc:        "ollama base URL from OLLAMA_BASE_URL",
			provider:    "ollama",
			env:         map[string]string{"OLLAMA_BASE_URL": "http://ollama:11434"},
			wantBaseURL: "http://ollama:11434",
		},
		{
			desc:     "disabled provider reads nothing",
			provider: "",
			env:      map[string]string{"OPENAI_API_KEY": "sk-test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			resetViper(t)
			configureEnv(viper.GetViper())
			t.Setenv("CLAIMFIX_LLM_PROVIDER", tt.provider)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := loadConfig()
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if cfg.LLM.APIKey != tt.wantAPIKey {
				t.Errorf("Expected API key %q, got %q", tt.wantAPIKey, cfg.LLM.APIKey)
			}
			if cfg.LLM.BaseURL != tt.wantBaseURL {
				t.Errorf("Expected base URL %q, got %q", tt.wantBaseURL, cfg.LLM.BaseURL)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claimfix", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# claimfix configuration") {
		t.Errorf("Expected comment header, got %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if cfg.Concurrency.ExtractionWorkers != model.DefaultConfig().Concurrency.ExtractionWorkers {
		t.Errorf("Expected default workers, got %d", cfg.Concurrency.ExtractionWorkers)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestAdaptCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "adapt", testPayload)
	if err != nil {
		t.Fatalf("adapt failed: %v", err)
	}

	var result payload.CorrectionPayloadResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output is not a payload result: %v", err)
	}
	if result.Payload.ClaimID != "CLM-2024-00017" {
		t.Errorf("Expected claim CLM-2024-00017, got %q", result.Payload.ClaimID)
	}
	if len(result.Payload.Documents) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(result.Payload.Documents))
	}
}

func TestAdaptCommandLegacyBundle(t *testing.T) {
	stdout, _, err := runCommand(t, "adapt", testPayload, "--document", "doc-estimate")
	if err != nil {
		t.Fatalf("adapt failed: %v", err)
	}

	var bundle payload.IssueBundle
	if err := json.Unmarshal([]byte(stdout), &bundle); err != nil {
		t.Fatalf("output is not an issue bundle: %v", err)
	}
	if bundle.DocumentID != "doc-estimate" {
		t.Errorf("Expected document doc-estimate, got %q", bundle.DocumentID)
	}
	if len(bundle.Issues) == 0 {
		t.Error("Expected issues for doc-estimate")
	}
}

func TestAdaptCommandUnknownDocument(t *testing.T) {
	_, _, err := runCommand(t, "adapt", testPayload, "--document", "doc-missing")
	if !errors.Is(err, payload.ErrUnknownDocument) {
		t.Errorf("Expected ErrUnknownDocument, got %v", err)
	}
}

func TestAdaptCommandSchemaViolations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"documents": "nope"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCommand(t, "adapt", path)
	if err == nil {
		t.Fatal("Expected schema rejection")
	}
	if !strings.Contains(err.Error(), "schema violations") {
		t.Errorf("Expected schema violation error, got %v", err)
	}
	if !strings.Contains(stderr, "/documents") {
		t.Errorf("Expected violation paths on stderr, got %q", stderr)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(stdout) != version {
		t.Errorf("Expected %q, got %q", version, stdout)
	}
}
