// Package mutator splices new operations into an existing, already
// replayable workload (spec.md 4.3): each accepted mutation is checked
// by replaying the workload's prefix, generating or deleting one
// operation against that replayed state, then replaying the remaining
// suffix, so a mutated workload is exactly as replayable as a generated
// one.
package mutator

import (
	"math/rand"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/generator"
)

// Kind tags which of the two mutation strategies was applied.
type Kind int

const (
	KindInsert Kind = iota
	KindRemove
)

// Config bounds how aggressively Mutate reshapes a workload.
type Config struct {
	MaxMutations      int
	MaxWorkloadLength int
	InsertWeight      uint32
	RemoveWeight      uint32
}

// DefaultConfig matches the TOML config's mutation defaults.
func DefaultConfig() Config {
	return Config{
		MaxMutations:      8,
		MaxWorkloadLength: 4096,
		InsertWeight:      7,
		RemoveWeight:      3,
	}
}

// Mutator applies Config-bounded insert/remove mutations to a workload,
// sharing the generator's NameCounter discipline so that spliced-in
// operations never reuse a name already present in the workload.
type Mutator struct {
	rng *rand.Rand
	cfg Config
}

func New(seed int64, cfg Config) *Mutator {
	return &Mutator{rng: rand.New(rand.NewSource(seed)), cfg: cfg}
}

// Mutate returns a new operation slice derived from ops by making n
// insert/remove attempts, n drawn uniformly from [1, cfg.MaxMutations],
// subject to cfg.MaxWorkloadLength. A rejected attempt is dropped, not
// retried, so the result carries between 0 and n accepted mutations and
// equals ops when every attempt is rejected. Every intermediate and
// final result is fully replayable (spec.md 4.3); ops itself is never
// modified.
func (m *Mutator) Mutate(ops []abstractfs.Operation) []abstractfs.Operation {
	current := append([]abstractfs.Operation{}, ops...)
	n := 1 + m.rng.Intn(m.cfg.MaxMutations)

	for i := 0; i < n; i++ {
		next, ok := m.step(current)
		if !ok {
			continue
		}
		current = next
	}
	return current
}

func (m *Mutator) step(ops []abstractfs.Operation) ([]abstractfs.Operation, bool) {
	kind := m.pickKind(ops)
	switch kind {
	case KindInsert:
		return m.insert(ops)
	case KindRemove:
		return m.remove(ops)
	}
	return ops, false
}

func (m *Mutator) pickKind(ops []abstractfs.Operation) Kind {
	insertOK := len(ops) < m.cfg.MaxWorkloadLength
	removeOK := len(ops) > 0

	switch {
	case insertOK && removeOK:
		total := m.cfg.InsertWeight + m.cfg.RemoveWeight
		if total == 0 {
			if m.rng.Intn(2) == 0 {
				return KindInsert
			}
			return KindRemove
		}
		if uint32(m.rng.Intn(int(total))) < m.cfg.InsertWeight {
			return KindInsert
		}
		return KindRemove
	case insertOK:
		return KindInsert
	case removeOK:
		return KindRemove
	default:
		return KindInsert
	}
}

// insert replays ops[:at], samples one fresh operation against that
// state with a generator whose NameCounter is seeded past every name
// already used anywhere in ops, and splices it in before replaying the
// rest. Returns ok=false if the prefix does not replay, if the generator
// errors, or if the suffix no longer replays after the splice.
func (m *Mutator) insert(ops []abstractfs.Operation) ([]abstractfs.Operation, bool) {
	at := m.rng.Intn(len(ops) + 1)

	fs, err := abstractfs.ReplayPrefix(ops, at)
	if err != nil {
		return ops, false
	}

	g := generator.New(m.rng.Int63(), nil)
	g.SeedNamesPast(generator.ScanMaxName(ops))

	op, err := g.Step(fs)
	if err != nil {
		return ops, false
	}

	candidate := make([]abstractfs.Operation, 0, len(ops)+1)
	candidate = append(candidate, ops[:at]...)
	candidate = append(candidate, op)
	candidate = append(candidate, ops[at:]...)

	if err := abstractfs.ReplaySuffix(fs, candidate, at); err != nil {
		return ops, false
	}
	return candidate, true
}

// remove deletes one operation and accepts the result only if the
// remainder still replays end to end: removing an earlier MkDir that a
// later operation depends on, for instance, must be rejected rather
// than silently producing a broken workload.
func (m *Mutator) remove(ops []abstractfs.Operation) ([]abstractfs.Operation, bool) {
	at := m.rng.Intn(len(ops))

	candidate := make([]abstractfs.Operation, 0, len(ops)-1)
	candidate = append(candidate, ops[:at]...)
	candidate = append(candidate, ops[at+1:]...)

	if _, err := abstractfs.Replay(abstractfs.Workload{Ops: candidate}); err != nil {
		return ops, false
	}
	return candidate, true
}
