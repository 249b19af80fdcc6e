package ontorag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Namespace != "http://ontorag.local/ns/" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.DelaySeconds != 10 || cfg.TimeoutSeconds != 120 || cfg.Workers != 1 {
		t.Errorf("pacing defaults = %d/%d/%d", cfg.DelaySeconds, cfg.TimeoutSeconds, cfg.Workers)
	}
	if cfg.LLM.Provider != "openrouter" {
		t.Errorf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "out_dir: /tmp/kg\nnamespace: http://example.com/ns/\nworkers: 4\nllm:\n  model: openai/gpt-4o\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OutDir != "/tmp/kg" {
		t.Errorf("OutDir = %q", cfg.OutDir)
	}
	if cfg.Namespace != "http://example.com/ns/" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.LLM.Model != "openai/gpt-4o" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	// Unset fields keep defaults.
	if cfg.ChunkSize != 3000 {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"chunk_size": 500, "chunk_overlap": 50}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet")
	t.Setenv("BLAZEGRAPH_ENDPOINT", "http://localhost:9999/blazegraph/sparql")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.BlazegraphEndpoint != "http://localhost:9999/blazegraph/sparql" {
		t.Errorf("BlazegraphEndpoint = %q", cfg.BlazegraphEndpoint)
	}
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	dir := t.TempDir()
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.CatalogDir = filepath.Join(dir, "catalog")
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestIngestRoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	src := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(src, []byte("Ada Lovelace wrote the first program."), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := p.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(doc.Chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(doc.Chunks))
	}

	chunks, err := p.loadChunks(doc.DocumentID)
	if err != nil {
		t.Fatalf("loadChunks: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "Ada Lovelace wrote the first program." {
		t.Errorf("rehydrated chunks = %+v", chunks)
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	p := newTestPipeline(t)
	src := filepath.Join(t.TempDir(), "archive.zip")
	if err := os.WriteFile(src, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := p.Ingest(context.Background(), src)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadChunksUnknownDocument(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.loadChunks("deadbeef")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestExtractSchemaRequiresAPIKey(t *testing.T) {
	p := newTestPipeline(t)
	src := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := p.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	_, err = p.ExtractSchema(context.Background(), doc.DocumentID)
	if !errors.Is(err, ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
	if err != nil && !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestBuildSchemaCardWithoutProposal(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.BuildSchemaCard(context.Background(), "deadbeef")
	if !errors.Is(err, ErrNoProposal) {
		t.Errorf("err = %v, want ErrNoProposal", err)
	}
}

func TestExtractInstancesWithoutCard(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.ExtractInstances(context.Background(), "deadbeef")
	if !errors.Is(err, ErrNoSchemaCard) {
		t.Errorf("err = %v, want ErrNoSchemaCard", err)
	}
}

func TestExportSchemaTTLWithoutCard(t *testing.T) {
	p := newTestPipeline(t)
	err := p.ExportSchemaTTL(context.Background(), "", filepath.Join(t.TempDir(), "schema.ttl"))
	if !errors.Is(err, ErrNoSchemaCard) {
		t.Errorf("err = %v, want ErrNoSchemaCard", err)
	}
}
