package generator

import (
	"strconv"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/pathname"
)

// NameCounter hands out fresh, monotonically increasing numeric basenames
// for newly created paths (spec.md 4.2). The same type serves the
// generator (starts at zero) and the mutator (seeded past every name
// already present in the workload being mutated, spec.md 4.3).
type NameCounter struct {
	next uint64
}

// NewNameCounter returns a counter starting before any name has been
// issued.
func NewNameCounter() *NameCounter {
	return &NameCounter{}
}

// Next returns the next fresh name.
func (c *NameCounter) Next() string {
	c.next++
	return strconv.FormatUint(c.next, 10)
}

// SeedPast advances the counter so that it will never again hand out a
// name less than or equal to n.
func (c *NameCounter) SeedPast(n uint64) {
	if n > c.next {
		c.next = n
	}
}

// ScanMaxName walks every path-bearing field of ops and returns the
// largest purely-numeric basename found, or 0 if none. The mutator uses
// this to seed a fresh NameCounter past every name already present in a
// workload before splicing in a new operation (spec.md 4.3).
func ScanMaxName(ops []abstractfs.Operation) uint64 {
	var max uint64
	consider := func(p pathname.Path) {
		_, name := p.Split()
		if n, err := strconv.ParseUint(name, 10, 64); err == nil && n > max {
			max = n
		}
	}
	for _, op := range ops {
		switch o := op.(type) {
		case abstractfs.MkDir:
			consider(o.Path)
		case abstractfs.Create:
			consider(o.Path)
		case abstractfs.Remove:
			consider(o.Path)
		case abstractfs.Hardlink:
			consider(o.Old)
			consider(o.New)
		case abstractfs.Symlink:
			consider(o.Target)
			consider(o.LinkPath)
		case abstractfs.Rename:
			consider(o.Old)
			consider(o.New)
		case abstractfs.Open:
			consider(o.Path)
		}
	}
	return max
}
