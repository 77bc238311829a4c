package abstractfs

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/dchest/siphash"
)

// siphash key. Fixed (not secret) so identical workloads always map to
// identical names across processes and machines -- spec.md 3.8's
// workload-name-stability law would break under a random key.
const (
	siphashK0 uint64 = 0x646966667573657a // "diffusez"
	siphashK1 uint64 = 0x657220676f206673  // "er go fs"
)

// Workload is an ordered sequence of operations. Its Name is the
// SipHash-128 digest of its canonical serialization, URL-safe
// base64-encoded; identical workloads always produce identical names
// regardless of any transient model state (spec.md 3.8).
type Workload struct {
	Ops []Operation
}

// Len reports the number of operations in the workload.
func (w Workload) Len() int { return len(w.Ops) }

// Name returns the workload's content-addressed directory name.
func (w Workload) Name() string {
	data := w.CanonicalBytes()
	hi, lo := siphash.Hash128(siphashK0, siphashK1, data)
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], hi)
	binary.BigEndian.PutUint64(buf[8:16], lo)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf)
}

func putUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putString(buf []byte, s string) []byte {
	buf = putUint64(buf, uint64(len(s)))
	return append(buf, s...)
}

// CanonicalBytes is a pure function of the operation sequence: same
// Ops always produce the same bytes, which is what makes Name and the
// C encoder stable across runs (spec.md 8's round-trip laws).
func (w Workload) CanonicalBytes() []byte {
	var buf []byte
	buf = putUint64(buf, uint64(len(w.Ops)))
	for _, op := range w.Ops {
		buf = append(buf, byte(op.Kind()))
		switch o := op.(type) {
		case MkDir:
			buf = putString(buf, o.Path.String())
			buf = putUint64(buf, uint64(o.Mode))
		case Create:
			buf = putString(buf, o.Path.String())
			buf = putUint64(buf, uint64(o.Mode))
		case Remove:
			buf = putString(buf, o.Path.String())
		case Hardlink:
			buf = putString(buf, o.Old.String())
			buf = putString(buf, o.New.String())
		case Symlink:
			buf = putString(buf, o.Target.String())
			buf = putString(buf, o.LinkPath.String())
		case Rename:
			buf = putString(buf, o.Old.String())
			buf = putString(buf, o.New.String())
		case Open:
			buf = putString(buf, o.Path.String())
			buf = putUint64(buf, uint64(o.Des))
		case Close:
			buf = putUint64(buf, uint64(o.Des))
		case Read:
			buf = putUint64(buf, uint64(o.Des))
			buf = putUint64(buf, o.Size)
		case Write:
			buf = putUint64(buf, uint64(o.Des))
			buf = putUint64(buf, o.SrcOffset)
			buf = putUint64(buf, o.Size)
		case FSync:
			buf = putUint64(buf, uint64(o.Des))
		}
	}
	return buf
}
