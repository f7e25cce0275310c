package fonts

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"pdfrst/rst"
	"pdfrst/utils/debug"
)

// Usage is accumulated for every signature seen during conversion.
type Usage struct {
	Count int
	Style rst.Style
	Known bool
}

// Stats collects signature usage for debug report.
type Stats struct {
	usage map[Signature]*Usage
}

// NewStats returns empty collector.
func NewStats() *Stats {
	return &Stats{usage: make(map[Signature]*Usage)}
}

// Record registers single classification result.
func (s *Stats) Record(font string, size float64, style rst.Style, known bool) {
	sig := Signature{Font: font, Size: Round(size)}
	u, ok := s.usage[sig]
	if !ok {
		u = &Usage{Style: style, Known: known}
		s.usage[sig] = u
	}
	u.Count++
}

// Get returns usage for signature, nil if it was never recorded.
func (s *Stats) Get(font string, size float64) *Usage {
	return s.usage[Signature{Font: font, Size: Round(size)}]
}

// Unknown lists signatures which did not match any rule.
func (s *Stats) Unknown() []Signature {
	var res []Signature
	for sig, u := range s.usage {
		if !u.Known {
			res = append(res, sig)
		}
	}
	sortSignatures(res)
	return res
}

func sortSignatures(sigs []Signature) {
	sort.Slice(sigs, func(i, j int) bool {
		return natural.Less(sigs[i].String(), sigs[j].String())
	})
}

// String returns readable usage table sorted by signature.
func (s *Stats) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Font signatures: %d", len(s.usage))
	keys := slices.Collect(maps.Keys(s.usage))
	sortSignatures(keys)
	for _, k := range keys {
		u := s.usage[k]
		if u.Known {
			tw.Node(1, k.String(), debug.A("style", u.Style), debug.A("count", u.Count))
		} else {
			tw.Node(1, k.String()+" UNKNOWN", debug.A("count", u.Count))
		}
	}
	return tw.String()
}
