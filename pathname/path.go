// Package pathname implements immutable absolute path names for the
// abstract file-system model: forward-slash separated, always rooted,
// never trailing-slash except for the root itself.
package pathname

import "strings"

// Path is an absolute, validated path name. The zero value is not a
// valid Path; use Root() or New().
type Path struct {
	clean string
}

// Root is the singleton "/" path.
func Root() Path {
	return Path{clean: "/"}
}

// New validates and wraps raw into a Path. raw must start with "/" and
// must not contain empty segments other than the root itself; a single
// trailing slash is stripped, so "/a/" yields "/a".
func New(raw string) (Path, error) {
	if !strings.HasPrefix(raw, "/") {
		return Path{}, ErrNotAbsolute
	}
	if raw == "/" {
		return Root(), nil
	}
	trimmed := strings.TrimSuffix(raw, "/")
	for _, seg := range strings.Split(trimmed[1:], "/") {
		if seg == "" {
			return Path{}, ErrEmptySegment
		}
	}
	return Path{clean: trimmed}, nil
}

// MustNew is New but panics on error; reserved for literals in tests and
// generator code where the input is known-good by construction.
func MustNew(raw string) Path {
	p, err := New(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical string form.
func (p Path) String() string {
	if p.clean == "" {
		return "/"
	}
	return p.clean
}

// IsRoot reports whether p is "/".
func (p Path) IsRoot() bool {
	return p.clean == "" || p.clean == "/"
}

// IsValid reports whether p was constructed through New/Root/Join and
// therefore satisfies the absolute-path invariant.
func (p Path) IsValid() bool {
	return p.IsRoot() || strings.HasPrefix(p.clean, "/")
}

// Segments returns the ordered list of non-empty path components.
// Root returns an empty slice.
func (p Path) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(p.clean[1:], "/")
}

// Split returns the parent path and the final segment name. Splitting
// the root returns (Root(), "").
func (p Path) Split() (parent Path, name string) {
	segs := p.Segments()
	if len(segs) == 0 {
		return Root(), ""
	}
	name = segs[len(segs)-1]
	if len(segs) == 1 {
		return Root(), name
	}
	parent = Path{clean: "/" + strings.Join(segs[:len(segs)-1], "/")}
	return parent, name
}

// Join appends name as a new final segment.
func (p Path) Join(name string) Path {
	if p.IsRoot() {
		return Path{clean: "/" + name}
	}
	return Path{clean: p.clean + "/" + name}
}

// IsPrefixOf reports whether p is an ancestor of (or equal to) other.
func (p Path) IsPrefixOf(other Path) bool {
	if p.IsRoot() {
		return true
	}
	if p.clean == other.clean {
		return true
	}
	return strings.HasPrefix(other.clean, p.clean+"/")
}

// Equal reports whether the two paths name the same node.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}
