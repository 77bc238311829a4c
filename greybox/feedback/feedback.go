// Package feedback implements the pluggable coverage-feedback capability
// spec.md 9 describes: {None, KCov line set, LCov (file x line) map with
// counts}. Interesting-ness is "the intersection of the new set with the
// complement of the accumulated set is non-empty"; accumulation is
// monotone.
package feedback

// Kind tags which coverage representation a Map carries.
type Kind int

const (
	KindNone Kind = iota
	KindKCov
	KindLCov
)

// LCovMap is a per-file, per-line hit-count table: map[file]map[line]hits.
type LCovMap map[string]map[int]uint64

// Map accumulates coverage observed so far, in whichever representation
// the configured kind uses.
type Map struct {
	Kind Kind
	kcov map[uint64]struct{}
	lcov LCovMap
}

// NewNone returns a feedback map that never reports anything interesting.
func NewNone() *Map { return &Map{Kind: KindNone} }

// NewKCov returns an empty KCov address-set accumulator.
func NewKCov() *Map { return &Map{Kind: KindKCov, kcov: make(map[uint64]struct{})} }

// NewLCov returns an empty LCov line-hit accumulator.
func NewLCov() *Map { return &Map{Kind: KindLCov, lcov: make(LCovMap)} }

// Observation is one side's raw coverage reading for a single test.
type Observation struct {
	KCovEdges []uint64
	LCov      LCovMap
}

// Consider reports whether obs contains any point not already in the
// accumulated map, and if so, folds obs into the accumulator (monotone
// accumulation, spec.md 9).
func (m *Map) Consider(obs Observation) bool {
	switch m.Kind {
	case KindKCov:
		return m.considerKCov(obs.KCovEdges)
	case KindLCov:
		return m.considerLCov(obs.LCov)
	default:
		return false
	}
}

func (m *Map) considerKCov(edges []uint64) bool {
	interesting := false
	for _, e := range edges {
		if _, seen := m.kcov[e]; !seen {
			interesting = true
			m.kcov[e] = struct{}{}
		}
	}
	return interesting
}

func (m *Map) considerLCov(obs LCovMap) bool {
	interesting := false
	for file, lines := range obs {
		acc, ok := m.lcov[file]
		if !ok {
			acc = make(map[int]uint64)
			m.lcov[file] = acc
		}
		for line, hits := range lines {
			if _, seen := acc[line]; !seen {
				interesting = true
			}
			acc[line] += hits
		}
	}
	return interesting
}

// Size reports the number of distinct points accumulated so far
// (distinct edges for KCov, distinct (file,line) pairs for LCov).
func (m *Map) Size() int {
	switch m.Kind {
	case KindKCov:
		return len(m.kcov)
	case KindLCov:
		n := 0
		for _, lines := range m.lcov {
			n += len(lines)
		}
		return n
	default:
		return 0
	}
}
