// Package catalog manages the directory of baseline ontologies (FOAF,
// PROV-O, and the like) and imports their OWL/RDFS declarations into
// Schema Card fragments.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ontorag/ontorag/rdf"
)

const manifestName = "catalog.json"

// Entry describes one registered baseline ontology.
type Entry struct {
	Path        string   `json:"path"` // TTL filename relative to the catalog directory
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Namespace   string   `json:"namespace,omitempty"`
}

// Catalog is a directory of baseline TTL files plus a manifest mapping
// id to entry.
type Catalog struct {
	dir     string
	entries map[string]Entry
}

// Open loads the catalog at dir, creating an empty one when the manifest
// does not exist yet.
func Open(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir, entries: make(map[string]Entry)}
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading catalog manifest: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing catalog manifest: %w", err)
	}
	return c, nil
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string { return c.dir }

// IDs returns the registered baseline ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

func (c *Catalog) save() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, manifestName), append(data, '\n'), 0o644)
}

// Register copies a TTL file into the catalog and records it under id.
// When entry.Namespace is empty the namespace is auto-detected as the most
// common IRI prefix among the file's declared classes and properties, ties
// broken toward the lexicographically smallest.
func (c *Catalog) Register(id, ttlPath string, entry Entry) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("catalog id must not be empty")
	}
	g, err := rdf.ParseTurtleFile(ttlPath)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing baseline %s: %w", ttlPath, err)
	}

	dest := id + ".ttl"
	if err := copyFile(ttlPath, filepath.Join(c.dir, dest)); err != nil {
		return Entry{}, fmt.Errorf("copying baseline into catalog: %w", err)
	}

	entry.Path = dest
	if entry.Namespace == "" {
		entry.Namespace = detectNamespace(g)
	}
	c.entries[id] = entry
	if err := c.save(); err != nil {
		return Entry{}, fmt.Errorf("writing catalog manifest: %w", err)
	}
	return entry, nil
}

// detectNamespace returns the most common namespace among declared class
// and property subjects, or "" when the file declares none.
func detectNamespace(g *rdf.Graph) string {
	counts := make(map[string]int)
	for _, t := range []rdf.Term{
		rdf.IRI(rdf.OWLClass),
		rdf.IRI(rdf.RDFSClass),
		rdf.IRI(rdf.OWLDatatypeProperty),
		rdf.IRI(rdf.OWLObjectProperty),
	} {
		for _, s := range g.SubjectsOfType(t) {
			if ns := rdf.NamespaceOf(s.Value); ns != "" {
				counts[ns]++
			}
		}
	}
	best := ""
	for ns, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && ns < best) {
			best = ns
		}
	}
	return best
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
