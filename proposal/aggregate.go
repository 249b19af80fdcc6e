package proposal

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregate folds per-chunk proposals into one document-level proposal.
// Within each collection entries are keyed case-insensitively: the first
// occurrence is kept verbatim, evidence lists are unioned, and diverging
// metadata produces a conflict warning rather than a silent overwrite.
// Output ordering is deterministic (sorted by key), which together with
// the union semantics makes aggregation commutative and associative.
func Aggregate(chunks []*Chunk) *Document {
	classes := make(map[string]*Class)
	dprops := make(map[string]*Property)
	oprops := make(map[string]*Property)
	events := make(map[string]*Event)
	aliasSeen := make(map[string]bool)
	hintSeen := make(map[string]bool)
	warnSeen := make(map[string]bool)

	doc := &Document{
		ChunkCount:              len(chunks),
		ReuseInsteadOfCreate:    []ReuseHint{},
		AliasOrMergeSuggestions: []Alias{},
		Warnings:                []string{},
	}

	warn := func(format string, args ...any) {
		w := fmt.Sprintf(format, args...)
		if !warnSeen[w] {
			warnSeen[w] = true
			doc.Warnings = append(doc.Warnings, w)
		}
	}

	for _, cp := range chunks {
		for _, w := range cp.Warnings {
			warn("%s", w)
		}
		for _, a := range cp.AliasOrMergeSuggestions {
			if k := a.SortedKey(); !aliasSeen[k] {
				aliasSeen[k] = true
				doc.AliasOrMergeSuggestions = append(doc.AliasOrMergeSuggestions, a)
			}
		}
		for _, h := range cp.ReuseInsteadOfCreate {
			k := Key(h.Proposed) + "\x00" + Key(h.Reuse)
			if !hintSeen[k] {
				hintSeen[k] = true
				doc.ReuseInsteadOfCreate = append(doc.ReuseInsteadOfCreate, h)
			}
		}

		add := cp.ProposedAdditions
		for _, c := range add.Classes {
			k := Key(c.Name)
			if k == "" {
				continue
			}
			if prev, ok := classes[k]; ok {
				prev.Evidence = MergeEvidence(prev.Evidence, c.Evidence)
				if len(c.Description) > len(prev.Description) {
					prev.Description = c.Description
				}
			} else {
				cc := c
				classes[k] = &cc
			}
		}
		for _, p := range add.DatatypeProperties {
			mergeProperty(dprops, p, "datatype property", warn)
		}
		for _, p := range add.ObjectProperties {
			mergeProperty(oprops, p, "object property", warn)
		}
		for _, ev := range add.Events {
			k := Key(ev.Name)
			if k == "" {
				continue
			}
			if prev, ok := events[k]; ok {
				prev.Evidence = MergeEvidence(prev.Evidence, ev.Evidence)
				if !equalFold(prev.Actors, ev.Actors) {
					warn("event %s proposed with conflicting actors; first-seen values kept", prev.Name)
				}
			} else {
				ec := ev
				events[k] = &ec
			}
		}
	}

	doc.ProposedAdditions = Additions{
		Classes:            sortedClasses(classes),
		DatatypeProperties: sortedProperties(dprops),
		ObjectProperties:   sortedProperties(oprops),
		Events:             sortedEvents(events),
	}
	sort.Slice(doc.AliasOrMergeSuggestions, func(i, j int) bool {
		return doc.AliasOrMergeSuggestions[i].SortedKey() < doc.AliasOrMergeSuggestions[j].SortedKey()
	})
	return doc
}

func mergeProperty(m map[string]*Property, p Property, kind string, warn func(string, ...any)) {
	k := Key(p.Name)
	if k == "" {
		return
	}
	prev, ok := m[k]
	if !ok {
		pc := p
		m[k] = &pc
		return
	}
	prev.Evidence = MergeEvidence(prev.Evidence, p.Evidence)
	if len(p.Description) > len(prev.Description) {
		prev.Description = p.Description
	}
	if Key(p.Domain) != Key(prev.Domain) || Key(p.Range) != Key(prev.Range) {
		warn("%s %s proposed with conflicting domain or range; first-seen values kept", kind, prev.Name)
	}
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sortedClasses(m map[string]*Class) []Class {
	out := make([]Class, 0, len(m))
	for _, c := range m {
		SortEvidence(c.Evidence)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return Key(out[i].Name) < Key(out[j].Name) })
	return out
}

func sortedProperties(m map[string]*Property) []Property {
	out := make([]Property, 0, len(m))
	for _, p := range m {
		SortEvidence(p.Evidence)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return Key(out[i].Name) < Key(out[j].Name) })
	return out
}

func sortedEvents(m map[string]*Event) []Event {
	out := make([]Event, 0, len(m))
	for _, e := range m {
		SortEvidence(e.Evidence)
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return Key(out[i].Name) < Key(out[j].Name) })
	return out
}
