// Package dash computes the Directory Abstract State Hash (spec.md 4.5):
// a single rolling digest over a mounted directory's contents, plus the
// per-entry FileInfo vector needed to explain a mismatch once one is
// found.
package dash

import (
	"encoding/binary"
	"regexp"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// FileInfo records everything DASH knows about one live filesystem
// entry, keyed by its path relative to the mount point.
type FileInfo struct {
	AbsPath string
	RelPath string
	UID     uint32
	GID     uint32
	Size    uint64
	Nlink   uint64
	Mode    uint32
	IsDir   bool
}

// Options gates which optional fields feed the per-entry digest. Path,
// UID, and GID are always included; Size/Nlink/Mode are config-gated
// because some filesystems (e.g. network mounts with synthetic inode
// stats) make them unreliable oracle signals.
type Options struct {
	IncludeSize  bool
	IncludeNlink bool
	IncludeMode  bool
}

// DefaultOptions includes every optional field.
func DefaultOptions() Options {
	return Options{IncludeSize: true, IncludeNlink: true, IncludeMode: true}
}

// DefaultInternalDirs excludes filesystem bookkeeping directories that
// exist on one implementation but not the other and carry no
// fuzzer-relevant state (spec.md 4.5).
var DefaultInternalDirs = regexp.MustCompile(`^/?lost\+found($|/)`)

// Hash computes the directory hash over entries, which must already be
// sorted by RelPath, skipping any entry whose RelPath matches internalDirs.
func Hash(entries []FileInfo, internalDirs *regexp.Regexp, opts Options) uint64 {
	h := xxhash.New()
	for _, e := range entries {
		if internalDirs != nil && internalDirs.MatchString(e.RelPath) {
			continue
		}
		h.Write(entryDigestBytes(e, opts))
	}
	return h.Sum64()
}

// entryDigestBytes canonically serializes the fields Options selects,
// in a fixed field order, so identical entries always hash identically
// regardless of struct layout or map iteration order.
func entryDigestBytes(e FileInfo, opts Options) []byte {
	buf := make([]byte, 0, 64+len(e.RelPath))
	buf = appendString(buf, e.RelPath)
	buf = appendUint32(buf, e.UID)
	buf = appendUint32(buf, e.GID)
	if opts.IncludeSize {
		buf = appendUint64(buf, e.Size)
	}
	if opts.IncludeNlink {
		buf = appendUint64(buf, e.Nlink)
	}
	if opts.IncludeMode {
		buf = appendUint32(buf, e.Mode)
	}
	if e.IsDir {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	var lenBytes [8]byte
	binary.LittleEndian.PutUint64(lenBytes[:], uint64(len(s)))
	buf = append(buf, lenBytes[:]...)
	return append(buf, s...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// SortByRelPath sorts entries in place by RelPath, the ordering Hash and
// Diff both require.
func SortByRelPath(entries []FileInfo) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
}
