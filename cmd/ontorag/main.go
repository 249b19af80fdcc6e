// Package main provides the ontorag CLI: ingest documents, extract and
// merge ontology proposals, manage baseline ontologies, and materialize
// instance graphs.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag"
	"github.com/ontorag/ontorag/catalog"
)

var (
	configPath string
	jsonLogs   bool
)

func main() {
	root := &cobra.Command{
		Use:   "ontorag",
		Short: "Build a governed knowledge graph from documents",
		Long: `ontorag ingests documents, asks an LLM to propose ontology additions per
chunk, merges the aggregated proposals into a versioned Schema Card, and
materializes instances as RDF with evidence provenance.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON or YAML config file")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")

	root.AddCommand(
		ingestCmd(),
		extractSchemaCmd(),
		buildSchemaCardCmd(),
		importBaselineCmd(),
		exportSchemaTTLCmd(),
		extractInstancesCmd(),
		loadTTLCmd(),
		catalogCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ontorag: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(_ *cobra.Command, _ []string) error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if jsonLogs {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// loadConfig builds the effective config: file over defaults, environment
// over file.
func loadConfig() (ontorag.Config, error) {
	cfg := ontorag.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = ontorag.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func newPipeline() (*ontorag.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return ontorag.New(cfg)
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file> [file ...]",
		Short: "Chunk documents and persist their DTOs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			for _, path := range args {
				doc, err := p.Ingest(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				fmt.Printf("%s\t%s\t%d chunks\n", doc.DocumentID, path, len(doc.Chunks))
			}
			return nil
		},
	}
}

func extractSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract-schema <document-id>",
		Short: "Run per-chunk schema extraction and persist the aggregated proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			doc, err := p.ExtractSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, w := range doc.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			fmt.Printf("proposal: %d classes, %d datatype properties, %d object properties, %d events\n",
				len(doc.ProposedAdditions.Classes),
				len(doc.ProposedAdditions.DatatypeProperties),
				len(doc.ProposedAdditions.ObjectProperties),
				len(doc.ProposedAdditions.Events))
			return nil
		},
	}
}

func buildSchemaCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-schema-card <document-id>",
		Short: "Merge a document's proposal into the Schema Card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			card, err := p.BuildSchemaCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, w := range card.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			fmt.Printf("schema card %s: %d classes, %d datatype properties, %d object properties\n",
				card.Version, len(card.Classes), len(card.DatatypeProperties), len(card.ObjectProperties))
			return nil
		},
	}
}

func importBaselineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-baseline <baseline-id>",
		Short: "Merge a registered baseline ontology into the Schema Card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			card, err := p.ImportBaseline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("schema card %s: %d classes after importing %s\n",
				card.Version, len(card.Classes), args[0])
			return nil
		},
	}
}

func exportSchemaTTLCmd() *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "export-schema-ttl <dest.ttl>",
		Short: "Render the Schema Card (or one proposal) as OWL/RDFS Turtle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.ExportSchemaTTL(cmd.Context(), documentID, args[0]); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&documentID, "proposal", "", "export a document's unmerged proposal instead of the card")
	return cmd
}

func extractInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract-instances <document-id>",
		Short: "Extract instances against the Schema Card and write the RDF graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			res, err := p.ExtractInstances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			fmt.Printf("instances: %d emitted, %d skipped, %d triples\n",
				res.Emitted, res.Skipped, res.Graph.Len())
			return nil
		},
	}
}

func loadTTLCmd() *cobra.Command {
	var graphIRI string
	cmd := &cobra.Command{
		Use:   "load-ttl <file.ttl>",
		Short: "Upload a Turtle file to the configured Blazegraph endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()
			return p.LoadTTL(cmd.Context(), args[0], graphIRI)
		},
	}
	cmd.Flags().StringVar(&graphIRI, "graph", "", "named graph IRI (empty loads the default graph)")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the baseline ontology catalog",
	}
	cmd.AddCommand(catalogRegisterCmd(), catalogListCmd())
	return cmd
}

func catalogRegisterCmd() *cobra.Command {
	var label, description string
	var tags []string
	cmd := &cobra.Command{
		Use:   "register <id> <file.ttl>",
		Short: "Register a baseline ontology TTL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.CatalogDir)
			if err != nil {
				return err
			}
			entry, err := cat.Register(args[0], args[1], catalog.Entry{
				Label: label, Description: description, Tags: tags,
			})
			if err != nil {
				return err
			}
			fmt.Printf("registered %s (namespace %s)\n", args[0], entry.Namespace)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "human-readable label")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")
	return cmd
}

func catalogListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered baseline ontologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.CatalogDir)
			if err != nil {
				return err
			}
			if asJSON {
				out := make(map[string]catalog.Entry)
				for _, id := range cat.IDs() {
					entry, _ := cat.Get(id)
					out[id] = entry
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			for _, id := range cat.IDs() {
				entry, _ := cat.Get(id)
				fmt.Printf("%s\t%s\t%s\n", id, entry.Label, entry.Namespace)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the catalog as JSON")
	return cmd
}
