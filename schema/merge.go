package schema

import (
	"fmt"
	"time"

	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/proposal"
)

// MergeOptions tune a single merge. The zero value is usable.
type MergeOptions struct {
	// Namespace overrides the card namespace when the prior card is nil.
	Namespace string
	// Origin tags elements first introduced by this merge. Defaults to
	// OriginInduced; baseline imports pass the catalog id.
	Origin string
	// Now supplies the version clock. Defaults to time.Now. Tests inject a
	// fixed clock to pin version strings.
	Now func() time.Time
}

// Merge folds a document-level proposal into a prior card and returns the
// next card. The prior card is never mutated. The merge is deterministic:
// the same prior and proposal always yield the same card apart from the
// version string, and merging an already-absorbed proposal changes nothing
// but the version.
//
// Prior elements keep their name casing and origin forever. Proposals can
// only add elements, extend evidence, and replace descriptions with
// strictly longer ones.
func Merge(prior *Card, prop *proposal.Document, opts MergeOptions) *Card {
	origin := opts.Origin
	if origin == "" {
		origin = OriginInduced
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	next := clone(prior)
	if next == nil {
		next = New(opts.Namespace)
	}

	warnSeen := make(map[string]bool, len(next.Warnings))
	for _, w := range next.Warnings {
		warnSeen[w] = true
	}
	warn := func(w string) {
		if !warnSeen[w] {
			warnSeen[w] = true
			next.Warnings = append(next.Warnings, w)
		}
	}

	if prop != nil {
		for _, w := range prop.Warnings {
			warn(w)
		}
		mergeClasses(next, prop.ProposedAdditions.Classes, origin)
		mergeDatatypeProperties(next, prop.ProposedAdditions.DatatypeProperties, origin, warn)
		mergeObjectProperties(next, prop.ProposedAdditions.ObjectProperties, origin)
		mergeEvents(next, prop.ProposedAdditions.Events, origin)
		mergeAliases(next, prop.AliasOrMergeSuggestions, prop.ReuseInsteadOfCreate)
	}

	// Referential checks run against the post-merge class set, so a class
	// and a property introduced by the same proposal resolve each other.
	checkReferences(next, warn)

	next.Version = nextVersion(prior, now())
	next.sortTables()
	return next
}

func clone(c *Card) *Card {
	if c == nil {
		return nil
	}
	out := *c
	out.Classes = append([]Class{}, c.Classes...)
	out.DatatypeProperties = append([]Property{}, c.DatatypeProperties...)
	out.ObjectProperties = append([]Property{}, c.ObjectProperties...)
	out.Events = append([]Event{}, c.Events...)
	out.Aliases = append([]proposal.Alias{}, c.Aliases...)
	out.Warnings = append([]string{}, c.Warnings...)
	for i := range out.Classes {
		out.Classes[i].Evidence = append([]dto.Evidence{}, out.Classes[i].Evidence...)
	}
	for i := range out.DatatypeProperties {
		out.DatatypeProperties[i].Evidence = append([]dto.Evidence{}, out.DatatypeProperties[i].Evidence...)
	}
	for i := range out.ObjectProperties {
		out.ObjectProperties[i].Evidence = append([]dto.Evidence{}, out.ObjectProperties[i].Evidence...)
	}
	for i := range out.Events {
		out.Events[i].Evidence = append([]dto.Evidence{}, out.Events[i].Evidence...)
		out.Events[i].Actors = append([]string{}, out.Events[i].Actors...)
		out.Events[i].Effects = append([]string{}, out.Events[i].Effects...)
	}
	out.normalize()
	return &out
}

func mergeClasses(card *Card, proposed []proposal.Class, origin string) {
	for _, pc := range proposed {
		k := proposal.Key(pc.Name)
		if k == "" {
			continue
		}
		idx := -1
		for i := range card.Classes {
			if proposal.Key(card.Classes[i].Name) == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			card.Classes = append(card.Classes, Class{
				Name:        pc.Name,
				Description: pc.Description,
				Origin:      origin,
				Evidence:    proposal.MergeEvidence(nil, pc.Evidence),
			})
			continue
		}
		cur := &card.Classes[idx]
		cur.Evidence = proposal.MergeEvidence(cur.Evidence, pc.Evidence)
		if len(pc.Description) > len(cur.Description) {
			cur.Description = pc.Description
		}
	}
}

func mergeDatatypeProperties(card *Card, proposed []proposal.Property, origin string, warn func(string)) {
	for _, pp := range proposed {
		k := proposal.Key(pp.Name)
		if k == "" {
			continue
		}
		idx := -1
		for i := range card.DatatypeProperties {
			if proposal.Key(card.DatatypeProperties[i].Name) == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			card.DatatypeProperties = append(card.DatatypeProperties, Property{
				Name:        pp.Name,
				Domain:      pp.Domain,
				Range:       NormalizeRange(pp.Range, warn),
				Description: pp.Description,
				Origin:      origin,
				Evidence:    proposal.MergeEvidence(nil, pp.Evidence),
			})
			continue
		}
		cur := &card.DatatypeProperties[idx]
		cur.Evidence = proposal.MergeEvidence(cur.Evidence, pp.Evidence)
		if len(pp.Description) > len(cur.Description) {
			cur.Description = pp.Description
		}
		if r := NormalizeRange(pp.Range, nil); cur.Range != "" && r != cur.Range {
			warn(fmt.Sprintf("datatype property %s proposed with conflicting range %s; keeping %s", cur.Name, r, cur.Range))
		}
	}
}

func mergeObjectProperties(card *Card, proposed []proposal.Property, origin string) {
	for _, pp := range proposed {
		k := proposal.Key(pp.Name)
		if k == "" {
			continue
		}
		idx := -1
		for i := range card.ObjectProperties {
			if proposal.Key(card.ObjectProperties[i].Name) == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			card.ObjectProperties = append(card.ObjectProperties, Property{
				Name:        pp.Name,
				Domain:      pp.Domain,
				Range:       pp.Range,
				Description: pp.Description,
				Origin:      origin,
				Evidence:    proposal.MergeEvidence(nil, pp.Evidence),
			})
			continue
		}
		cur := &card.ObjectProperties[idx]
		cur.Evidence = proposal.MergeEvidence(cur.Evidence, pp.Evidence)
		if len(pp.Description) > len(cur.Description) {
			cur.Description = pp.Description
		}
	}
}

func mergeEvents(card *Card, proposed []proposal.Event, origin string) {
	for _, pe := range proposed {
		k := proposal.Key(pe.Name)
		if k == "" {
			continue
		}
		idx := -1
		for i := range card.Events {
			if proposal.Key(card.Events[i].Name) == k {
				idx = i
				break
			}
		}
		if idx < 0 {
			card.Events = append(card.Events, Event{
				Name:     pe.Name,
				Actors:   unionStrings(nil, pe.Actors),
				Effects:  unionStrings(nil, pe.Effects),
				Origin:   origin,
				Evidence: proposal.MergeEvidence(nil, pe.Evidence),
			})
			continue
		}
		cur := &card.Events[idx]
		cur.Evidence = proposal.MergeEvidence(cur.Evidence, pe.Evidence)
		cur.Actors = unionStrings(cur.Actors, pe.Actors)
		cur.Effects = unionStrings(cur.Effects, pe.Effects)
	}
}

// unionStrings appends unseen values, case-insensitively, preserving
// first-seen order and casing.
func unionStrings(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[proposal.Key(s)] = true
	}
	out := existing
	if out == nil {
		out = []string{}
	}
	for _, s := range added {
		k := proposal.Key(s)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// mergeAliases unions proposal alias suggestions into the card. Reuse hints
// are advisory and surface as two-name aliases; the merger never rewrites
// elements based on them.
func mergeAliases(card *Card, aliases []proposal.Alias, hints []proposal.ReuseHint) {
	seen := make(map[string]bool, len(card.Aliases))
	for _, a := range card.Aliases {
		seen[a.SortedKey()] = true
	}
	add := func(a proposal.Alias) {
		if k := a.SortedKey(); !seen[k] {
			seen[k] = true
			card.Aliases = append(card.Aliases, a)
		}
	}
	for _, a := range aliases {
		add(a)
	}
	for _, h := range hints {
		if h.Proposed == "" || h.Reuse == "" {
			continue
		}
		add(proposal.Alias{Names: []string{h.Proposed, h.Reuse}, Rationale: h.Rationale})
	}
}

// checkReferences verifies that property domains, object property ranges,
// and event actors name known classes. Violations are warnings; the element
// is kept so later documents can supply the missing class.
func checkReferences(card *Card, warn func(string)) {
	known := card.ClassKeys()
	for _, p := range card.DatatypeProperties {
		if p.Domain != "" && !known[proposal.Key(p.Domain)] {
			warn(fmt.Sprintf("datatype property %s references unknown class %s", p.Name, p.Domain))
		}
	}
	for _, p := range card.ObjectProperties {
		if p.Domain != "" && !known[proposal.Key(p.Domain)] {
			warn(fmt.Sprintf("object property %s references unknown class %s", p.Name, p.Domain))
		}
		if p.Range != "" && !known[proposal.Key(p.Range)] {
			warn(fmt.Sprintf("object property %s references unknown class %s", p.Name, p.Range))
		}
	}
	for _, e := range card.Events {
		for _, actor := range e.Actors {
			if actor != "" && !known[proposal.Key(actor)] {
				warn(fmt.Sprintf("event %s references unknown class %s", e.Name, actor))
			}
		}
	}
}

// nextVersion formats the clock as the version string and guards
// monotonicity: if the clock has not advanced past the prior version the
// new one is bumped by one microsecond.
func nextVersion(prior *Card, t time.Time) string {
	v := dto.Timestamp(t)
	if prior == nil || prior.Version == "" {
		return v
	}
	if v > prior.Version {
		return v
	}
	if pt, err := time.Parse("2006-01-02T15:04:05.000000Z", prior.Version); err == nil {
		return dto.Timestamp(pt.Add(time.Microsecond))
	}
	return v
}
