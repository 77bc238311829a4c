package abstractfs

import (
	"encoding/json"
	"fmt"

	"github.com/diffuzzer/diffuzzer/pathname"
)

// opJSON is the on-disk shape of one operation: a discriminant plus
// whichever fields that kind uses, matching the same flattened-map
// style the teacher's own JSON-facing structs use elsewhere in the
// example pack (one struct per wire shape rather than reusing the
// Go-side sealed interface).
type opJSON struct {
	Kind      string `json:"kind"`
	Path      string `json:"path,omitempty"`
	Mode      Mode   `json:"mode,omitempty"`
	Old       string `json:"old,omitempty"`
	New       string `json:"new,omitempty"`
	Target    string `json:"target,omitempty"`
	LinkPath  string `json:"link_path,omitempty"`
	Des       uint64 `json:"des,omitempty"`
	Size      uint64 `json:"size,omitempty"`
	SrcOffset uint64 `json:"src_offset,omitempty"`
}

// MarshalJSON renders w as a JSON array of tagged operation objects
// (spec.md 6.3's test.json), reusable both for crash-directory reports
// and as the format solo-single/duo-single/reduce read back in via
// --path-to-test.
func (w Workload) MarshalJSON() ([]byte, error) {
	ops := make([]opJSON, 0, len(w.Ops))
	for _, op := range w.Ops {
		j := opJSON{Kind: op.Kind().String()}
		switch o := op.(type) {
		case MkDir:
			j.Path, j.Mode = o.Path.String(), o.Mode
		case Create:
			j.Path, j.Mode = o.Path.String(), o.Mode
		case Remove:
			j.Path = o.Path.String()
		case Hardlink:
			j.Old, j.New = o.Old.String(), o.New.String()
		case Symlink:
			j.Target, j.LinkPath = o.Target.String(), o.LinkPath.String()
		case Rename:
			j.Old, j.New = o.Old.String(), o.New.String()
		case Open:
			j.Path, j.Des = o.Path.String(), uint64(o.Des)
		case Close:
			j.Des = uint64(o.Des)
		case Read:
			j.Des, j.Size = uint64(o.Des), o.Size
		case Write:
			j.Des, j.SrcOffset, j.Size = uint64(o.Des), o.SrcOffset, o.Size
		case FSync:
			j.Des = uint64(o.Des)
		}
		ops = append(ops, j)
	}
	return json.MarshalIndent(ops, "", "  ")
}

// UnmarshalJSON parses the shape MarshalJSON produces. It does not
// validate replayability -- callers that need a guaranteed-replayable
// workload should pass the result through Replay.
func (w *Workload) UnmarshalJSON(data []byte) error {
	var raw []opJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("abstractfs: parsing workload JSON: %w", err)
	}

	ops := make([]Operation, 0, len(raw))
	for i, j := range raw {
		op, err := j.toOperation()
		if err != nil {
			return fmt.Errorf("abstractfs: op %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	w.Ops = ops
	return nil
}

func (j opJSON) toOperation() (Operation, error) {
	switch j.Kind {
	case "MkDir":
		p, err := pathname.New(j.Path)
		if err != nil {
			return nil, err
		}
		return MkDir{Path: p, Mode: j.Mode}, nil
	case "Create":
		p, err := pathname.New(j.Path)
		if err != nil {
			return nil, err
		}
		return Create{Path: p, Mode: j.Mode}, nil
	case "Remove":
		p, err := pathname.New(j.Path)
		if err != nil {
			return nil, err
		}
		return Remove{Path: p}, nil
	case "Hardlink":
		old, err := pathname.New(j.Old)
		if err != nil {
			return nil, err
		}
		neu, err := pathname.New(j.New)
		if err != nil {
			return nil, err
		}
		return Hardlink{Old: old, New: neu}, nil
	case "Symlink":
		target, err := pathname.New(j.Target)
		if err != nil {
			return nil, err
		}
		linkPath, err := pathname.New(j.LinkPath)
		if err != nil {
			return nil, err
		}
		return Symlink{Target: target, LinkPath: linkPath}, nil
	case "Rename":
		old, err := pathname.New(j.Old)
		if err != nil {
			return nil, err
		}
		neu, err := pathname.New(j.New)
		if err != nil {
			return nil, err
		}
		return Rename{Old: old, New: neu}, nil
	case "Open":
		p, err := pathname.New(j.Path)
		if err != nil {
			return nil, err
		}
		return Open{Path: p, Des: FileDescriptorIndex(j.Des)}, nil
	case "Close":
		return Close{Des: FileDescriptorIndex(j.Des)}, nil
	case "Read":
		return Read{Des: FileDescriptorIndex(j.Des), Size: j.Size}, nil
	case "Write":
		return Write{Des: FileDescriptorIndex(j.Des), SrcOffset: j.SrcOffset, Size: j.Size}, nil
	case "FSync":
		return FSync{Des: FileDescriptorIndex(j.Des)}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", j.Kind)
	}
}
