package ontorag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ontorag/ontorag/llm"
)

// Config holds all configuration for the OntoRAG pipeline.
type Config struct {
	// OutDir is the working directory for all pipeline artifacts:
	// documents, chunk stores, proposals, schema card, instance graphs.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Namespace is the IRI prefix for minted classes, properties, and
	// instances.
	Namespace string `json:"namespace" yaml:"namespace"`

	// CatalogDir holds the registered baseline ontologies.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`

	// Chunking geometry, in characters.
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// LLM configures the chat provider used for extraction.
	LLM llm.Config `json:"llm" yaml:"llm"`

	// DelaySeconds is the minimum spacing between successive LLM calls.
	DelaySeconds int `json:"delay_seconds" yaml:"delay_seconds"`

	// TimeoutSeconds bounds one LLM call.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// Workers bounds concurrent chunk extraction.
	Workers int `json:"workers" yaml:"workers"`

	// RunLogPath is the SQLite file recording per-chunk extraction
	// outcomes. Empty disables the run log.
	RunLogPath string `json:"run_log_path" yaml:"run_log_path"`

	// BlazegraphEndpoint is the SPARQL endpoint for TTL uploads.
	BlazegraphEndpoint string `json:"blazegraph_endpoint" yaml:"blazegraph_endpoint"`

	// SchemaTemplatePath and InstanceTemplatePath override the built-in
	// prompt templates.
	SchemaTemplatePath   string `json:"schema_template_path" yaml:"schema_template_path"`
	InstanceTemplatePath string `json:"instance_template_path" yaml:"instance_template_path"`
}

// DefaultConfig returns a Config with the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		OutDir:       "ontorag_out",
		Namespace:    "http://ontorag.local/ns/",
		CatalogDir:   "catalog",
		ChunkSize:    3000,
		ChunkOverlap: 200,
		LLM: llm.Config{
			Provider: "openrouter",
			Model:    "openai/gpt-4o-mini",
			BaseURL:  "https://openrouter.ai/api/v1",
			AppName:  "OntoRAG",
			SiteURL:  "https://ontorag.github.io",
		},
		DelaySeconds:   10,
		TimeoutSeconds: 120,
		Workers:        1,
	}
}

// LoadConfig reads a JSON or YAML config file (by extension) over the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv overlays the OPENROUTER_* and BLAZEGRAPH_ENDPOINT environment
// variables onto the config. Only set variables override.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_APP_NAME"); v != "" {
		c.LLM.AppName = v
	}
	if v := os.Getenv("OPENROUTER_SITE_URL"); v != "" {
		c.LLM.SiteURL = v
	}
	if v := os.Getenv("BLAZEGRAPH_ENDPOINT"); v != "" {
		c.BlazegraphEndpoint = v
	}
}

// Validate checks the fields every command needs. The LLM API key is only
// required at the LLM boundary, not here.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return fmt.Errorf("%w: out_dir must not be empty", ErrConfig)
	}
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace must not be empty", ErrConfig)
	}
	if c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be smaller than chunk_size", ErrConfig)
	}
	return nil
}

// CardPath returns the schema card location under the output directory.
func (c *Config) CardPath() string {
	return filepath.Join(c.OutDir, "schema_card.json")
}

// ProposalPath returns the aggregated proposal location for a document.
func (c *Config) ProposalPath(documentID string) string {
	return filepath.Join(c.OutDir, "proposals", documentID+".json")
}

// InstanceTTLPath returns the instance graph location for a document.
func (c *Config) InstanceTTLPath(documentID string) string {
	return filepath.Join(c.OutDir, "instances", documentID+".ttl")
}
