package textstats

import "strings"

// DefaultSectionMarker introduces a section; the rest of the token is the
// section name.
const DefaultSectionMarker = "*BEGINSECTION_"

// defaultSectionName keys the synthetic section holding text that precedes
// every marker. It is never listed or returned by Section.
const defaultSectionName = ""

// sectionTracker owns the per-section buckets during ingestion and knows
// which one tokens currently flow into.
type sectionTracker struct {
	marker   string
	current  *SectionStats
	fallback *SectionStats
	byName   map[string]*SectionStats
	order    []string
}

func newSectionTracker(marker string) *sectionTracker {
	fallback := newSectionStats(defaultSectionName)
	return &sectionTracker{
		marker:   marker,
		current:  fallback,
		fallback: fallback,
		byName:   make(map[string]*SectionStats),
	}
}

// sectionName returns the name a marker token declares. Names are taken
// verbatim: case-sensitive and untrimmed.
func (t *sectionTracker) sectionName(token string) (string, bool) {
	return strings.CutPrefix(token, t.marker)
}

// switchTo moves the cursor, creating the bucket on first sight. An empty
// name returns to the default section.
func (t *sectionTracker) switchTo(name string) {
	if name == defaultSectionName {
		t.current = t.fallback
		return
	}
	s, ok := t.byName[name]
	if !ok {
		s = newSectionStats(name)
		t.byName[name] = s
		t.order = append(t.order, name)
	}
	t.current = s
}
