// Package encode renders a workload of abstractfs operations into a
// standalone C source file that replays them 1:1 via the executor
// runtime's do_* functions (spec.md 4.4, 6.5). The encoder is a pure
// function of its input workload: the same operations, in the same
// order, always produce byte-identical C source, which is what lets the
// runner compile a harness binary once and reuse it across both sides
// of a differential test.
package encode

import (
	"fmt"
	"strings"

	"github.com/diffuzzer/diffuzzer/abstractfs"
)

// Encode renders w as a C translation unit exposing a single
// test_workload() entry point, built against the executor runtime
// (ExecutorHeader / ExecutorSource). File descriptors become named
// integer locals fd_0, fd_1, ... whose count equals max(des)+1 over
// every descriptor-bearing operation (Open, Close, Read, Write, FSync)
// in w, matching spec.md 4.4 exactly.
func Encode(w abstractfs.Workload) string {
	maxDes := -1
	for _, op := range w.Ops {
		if d, ok := descriptorOf(op); ok && int(d) > maxDes {
			maxDes = int(d)
		}
	}

	var out strings.Builder
	out.WriteString("#include \"executor.h\"\n\n")
	out.WriteString("void test_workload(void) {\n")
	for i := 0; i <= maxDes; i++ {
		fmt.Fprintf(&out, "    int fd_%d;\n", i)
	}
	for _, op := range w.Ops {
		emitOp(&out, op)
	}
	out.WriteString("}\n")
	return out.String()
}

func descriptorOf(op abstractfs.Operation) (abstractfs.FileDescriptorIndex, bool) {
	switch o := op.(type) {
	case abstractfs.Open:
		return o.Des, true
	case abstractfs.Close:
		return o.Des, true
	case abstractfs.Read:
		return o.Des, true
	case abstractfs.Write:
		return o.Des, true
	case abstractfs.FSync:
		return o.Des, true
	}
	return 0, false
}

func modeExpr(m abstractfs.Mode) string {
	atoms := m.Atoms()
	if len(atoms) == 0 {
		return "0"
	}
	return strings.Join(atoms, " | ")
}

func emitOp(out *strings.Builder, op abstractfs.Operation) {
	switch o := op.(type) {
	case abstractfs.MkDir:
		fmt.Fprintf(out, "    do_mkdir(%q, %s);\n", o.Path.String(), modeExpr(o.Mode))
	case abstractfs.Create:
		fmt.Fprintf(out, "    do_create(%q, %s);\n", o.Path.String(), modeExpr(o.Mode))
	case abstractfs.Remove:
		fmt.Fprintf(out, "    do_remove(%q);\n", o.Path.String())
	case abstractfs.Hardlink:
		fmt.Fprintf(out, "    do_hardlink(%q, %q);\n", o.Old.String(), o.New.String())
	case abstractfs.Symlink:
		fmt.Fprintf(out, "    do_symlink(%q, %q);\n", o.Target.String(), o.LinkPath.String())
	case abstractfs.Rename:
		fmt.Fprintf(out, "    do_rename(%q, %q);\n", o.Old.String(), o.New.String())
	case abstractfs.Open:
		fmt.Fprintf(out, "    fd_%d = do_open(%q);\n", o.Des, o.Path.String())
	case abstractfs.Close:
		fmt.Fprintf(out, "    do_close(fd_%d);\n", o.Des)
	case abstractfs.Read:
		fmt.Fprintf(out, "    do_read(fd_%d, %d);\n", o.Des, o.Size)
	case abstractfs.Write:
		fmt.Fprintf(out, "    do_write(fd_%d, %d, %d);\n", o.Des, o.SrcOffset, o.Size)
	case abstractfs.FSync:
		fmt.Fprintf(out, "    do_fsync(fd_%d);\n", o.Des)
	}
}
