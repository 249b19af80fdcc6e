// Package ontorag turns documents into a governed RDF knowledge graph:
// files are chunked into DTOs, an LLM proposes ontology additions per
// chunk, a deterministic merger folds the aggregated proposal into a
// versioned Schema Card, and a second pass materializes instances with
// PROV-backed evidence mentions.
package ontorag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ontorag/ontorag/blazegraph"
	"github.com/ontorag/ontorag/catalog"
	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/extract"
	"github.com/ontorag/ontorag/instance"
	"github.com/ontorag/ontorag/llm"
	"github.com/ontorag/ontorag/loader"
	"github.com/ontorag/ontorag/proposal"
	"github.com/ontorag/ontorag/schema"
	"github.com/ontorag/ontorag/store"
)

// Pipeline is the main entry point: every CLI command maps onto one of
// its methods.
type Pipeline struct {
	cfg      Config
	registry *loader.Registry
	runLog   *store.RunLog
	provider llm.Provider
}

// New builds a pipeline from configuration. The LLM provider is created
// lazily on first use so offline commands never require an API key.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, registry: loader.NewRegistry()}
	if cfg.RunLogPath != "" {
		rl, err := store.OpenRunLog(cfg.RunLogPath)
		if err != nil {
			return nil, err
		}
		p.runLog = rl
	}
	return p, nil
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.runLog != nil {
		return p.runLog.Close()
	}
	return nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

func (p *Pipeline) llmProvider() (llm.Provider, error) {
	if p.provider != nil {
		return p.provider, nil
	}
	if p.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENROUTER_API_KEY is not set", ErrConfig)
	}
	cfg := p.cfg.LLM
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = p.cfg.TimeoutSeconds
	}
	prov, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	p.provider = prov
	return prov, nil
}

func (p *Pipeline) extractOptions(prov llm.Provider, tpl *extract.Template, stage string) extract.Options {
	return extract.Options{
		Provider:       prov,
		Model:          p.cfg.LLM.Model,
		Template:       tpl,
		DelaySeconds:   p.cfg.DelaySeconds,
		TimeoutSeconds: p.cfg.TimeoutSeconds,
		Workers:        p.cfg.Workers,
		RunLog:         p.runLog,
		Stage:          stage,
	}
}

func (p *Pipeline) template(path string) (*extract.Template, error) {
	if path == "" {
		return nil, nil
	}
	return extract.LoadTemplate(path)
}

// Ingest loads a file, splits it into chunks, and persists the document
// and chunk store under the output directory. Returns the document DTO.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*dto.Document, error) {
	doc, err := loader.BuildDocument(ctx, p.registry, path, loader.BuildOptions{
		ChunkSize: p.cfg.ChunkSize,
		Overlap:   p.cfg.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	if err := store.SaveDocument(p.cfg.OutDir, doc); err != nil {
		return nil, err
	}
	slog.Info("ingest: document persisted",
		"file", path,
		"doc_id", doc.DocumentID,
		"chunks", len(doc.Chunks),
		"mime", doc.SourceMIME,
	)
	return doc, nil
}

// loadChunks rehydrates a document's chunks from the output directory.
func (p *Pipeline) loadChunks(documentID string) ([]dto.Chunk, error) {
	doc, err := store.LoadDocument(p.cfg.OutDir, documentID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, err
	}
	return doc.Chunks, nil
}

// loadCard returns the current schema card, or a fresh one when none has
// been built yet.
func (p *Pipeline) loadCard() (*schema.Card, error) {
	card, err := schema.Load(p.cfg.CardPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return schema.New(p.cfg.Namespace), nil
		}
		return nil, err
	}
	return card, nil
}

// ExtractSchema runs per-chunk schema extraction for a document and
// persists the aggregated proposal. Chunks whose LLM replies stay
// unparseable are dropped with warnings on the proposal.
func (p *Pipeline) ExtractSchema(ctx context.Context, documentID string) (*proposal.Document, error) {
	chunks, err := p.loadChunks(documentID)
	if err != nil {
		return nil, err
	}
	card, err := p.loadCard()
	if err != nil {
		return nil, err
	}
	prov, err := p.llmProvider()
	if err != nil {
		return nil, err
	}
	tpl, err := p.template(p.cfg.SchemaTemplatePath)
	if err != nil {
		return nil, err
	}

	doc, err := extract.Schema(ctx, p.extractOptions(prov, tpl, "schema"), chunks, card)
	if err != nil {
		return nil, err
	}

	path := p.cfg.ProposalPath(documentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, err
	}

	slog.Info("extract-schema: proposal persisted",
		"doc_id", documentID,
		"chunks", doc.ChunkCount,
		"classes", len(doc.ProposedAdditions.Classes),
		"warnings", len(doc.Warnings),
	)
	return doc, nil
}

// loadProposal reads a persisted document proposal.
func (p *Pipeline) loadProposal(documentID string) (*proposal.Document, error) {
	data, err := os.ReadFile(p.cfg.ProposalPath(documentID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoProposal, documentID)
		}
		return nil, err
	}
	var doc proposal.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing proposal for %s: %w", documentID, err)
	}
	return &doc, nil
}

// BuildSchemaCard merges a document's extracted proposal into the current
// schema card and persists the next card version.
func (p *Pipeline) BuildSchemaCard(ctx context.Context, documentID string) (*schema.Card, error) {
	doc, err := p.loadProposal(documentID)
	if err != nil {
		return nil, err
	}
	prior, err := p.loadCard()
	if err != nil {
		return nil, err
	}

	next := schema.Merge(prior, doc, schema.MergeOptions{Namespace: p.cfg.Namespace})
	if err := next.Save(p.cfg.CardPath()); err != nil {
		return nil, err
	}

	slog.Info("build-schema-card: card updated",
		"doc_id", documentID,
		"version", next.Version,
		"classes", len(next.Classes),
		"warnings", len(next.Warnings),
	)
	return next, nil
}

// ImportBaseline merges a registered catalog baseline into the current
// schema card. Imported elements carry the baseline id as origin.
func (p *Pipeline) ImportBaseline(ctx context.Context, baselineID string) (*schema.Card, error) {
	cat, err := catalog.Open(p.cfg.CatalogDir)
	if err != nil {
		return nil, err
	}
	fragment, err := cat.Import(baselineID)
	if err != nil {
		return nil, err
	}
	prior, err := p.loadCard()
	if err != nil {
		return nil, err
	}

	// The fragment re-enters through the merger so origin immutability
	// and dedup apply to baselines exactly as to induced proposals.
	next := schema.Merge(prior, fragmentProposal(fragment), schema.MergeOptions{
		Namespace: p.cfg.Namespace,
		Origin:    baselineID,
	})
	next.Warnings = mergeWarnings(next.Warnings, fragment.Warnings)
	if err := next.Save(p.cfg.CardPath()); err != nil {
		return nil, err
	}

	slog.Info("import-baseline: card updated",
		"baseline", baselineID,
		"version", next.Version,
		"classes", len(next.Classes),
	)
	return next, nil
}

// fragmentProposal converts an imported card fragment into proposal form
// so it can flow through the standard merge.
func fragmentProposal(fragment *schema.Card) *proposal.Document {
	doc := &proposal.Document{}
	for _, c := range fragment.Classes {
		doc.ProposedAdditions.Classes = append(doc.ProposedAdditions.Classes, proposal.Class{
			Name: c.Name, Description: c.Description,
		})
	}
	for _, pr := range fragment.DatatypeProperties {
		doc.ProposedAdditions.DatatypeProperties = append(doc.ProposedAdditions.DatatypeProperties, proposal.Property{
			Name: pr.Name, Domain: pr.Domain, Range: pr.Range, Description: pr.Description,
		})
	}
	for _, pr := range fragment.ObjectProperties {
		doc.ProposedAdditions.ObjectProperties = append(doc.ProposedAdditions.ObjectProperties, proposal.Property{
			Name: pr.Name, Domain: pr.Domain, Range: pr.Range, Description: pr.Description,
		})
	}
	return doc
}

func mergeWarnings(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, w := range existing {
		seen[w] = true
	}
	for _, w := range added {
		if !seen[w] {
			seen[w] = true
			existing = append(existing, w)
		}
	}
	return existing
}

// ExportSchemaTTL renders the current schema card as OWL/RDFS Turtle at
// dest. When documentID is non-empty the document's unmerged proposal is
// exported as staging TTL instead.
func (p *Pipeline) ExportSchemaTTL(ctx context.Context, documentID, dest string) error {
	var res *schema.EmitResult
	if documentID != "" {
		doc, err := p.loadProposal(documentID)
		if err != nil {
			return err
		}
		res = schema.EmitProposal(doc, p.cfg.Namespace)
	} else {
		card, err := schema.Load(p.cfg.CardPath())
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ErrNoSchemaCard
			}
			return err
		}
		res = card.Emit()
	}

	for _, w := range res.Warnings {
		slog.Warn("export-schema-ttl: " + w)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(res.Graph.Turtle()), 0o644)
}

// ExtractInstances runs instance extraction for a document against the
// current schema card, materializes the RDF graph, and writes canonical
// Turtle under the output directory. Returns the materialization result.
func (p *Pipeline) ExtractInstances(ctx context.Context, documentID string) (*instance.Result, error) {
	card, err := schema.Load(p.cfg.CardPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSchemaCard
		}
		return nil, err
	}
	chunks, err := p.loadChunks(documentID)
	if err != nil {
		return nil, err
	}
	prov, err := p.llmProvider()
	if err != nil {
		return nil, err
	}
	tpl, err := p.template(p.cfg.InstanceTemplatePath)
	if err != nil {
		return nil, err
	}

	props, warnings, err := extract.Instances(ctx, p.extractOptions(prov, tpl, "instances"), chunks, card)
	if err != nil {
		return nil, err
	}

	res := instance.Materialize(card, props)
	res.Warnings = mergeWarnings(res.Warnings, warnings)

	path := p.cfg.InstanceTTLPath(documentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(res.Graph.Turtle()), 0o644); err != nil {
		return nil, err
	}

	slog.Info("extract-instances: graph persisted",
		"doc_id", documentID,
		"emitted", res.Emitted,
		"skipped", res.Skipped,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// LoadTTL uploads a Turtle file to the configured Blazegraph endpoint.
func (p *Pipeline) LoadTTL(ctx context.Context, path, graphIRI string) error {
	if p.cfg.BlazegraphEndpoint == "" {
		return fmt.Errorf("%w: blazegraph_endpoint is not set", ErrConfig)
	}
	client := blazegraph.New(p.cfg.BlazegraphEndpoint)
	if err := client.UploadTTLFile(ctx, path, graphIRI); err != nil {
		return err
	}
	slog.Info("load-ttl: uploaded", "file", path, "graph", graphIRI)
	return nil
}
