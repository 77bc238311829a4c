package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/encode"
	"github.com/diffuzzer/diffuzzer/trace"
)

// Case bundles everything known about one diagnosed crash or accident,
// enough to populate the directory layout spec.md 6.3 specifies.
type Case struct {
	Workload  abstractfs.Workload
	FstFSName string
	SndFSName string

	FstTrace    []trace.Row
	SndTrace    []trace.Row
	FstStdout   string
	SndStdout   string
	FstStderr   string
	SndStderr   string
	TraceDiffs  []trace.Diff
	DashDiffs   []dash.Diff
	DashEnabled bool
}

// Save writes one crash/accident directory, named by the workload's
// base64-SipHash128 fingerprint, under baseDir. It is idempotent: a
// workload that hashes to a name already present overwrites the same
// files rather than colliding with a different case, matching spec.md
// 5's "crash directory ... uses workload-hash-derived names, so
// collisions imply identical workloads" guarantee.
func Save(baseDir string, c Case) (string, error) {
	dir := filepath.Join(baseDir, c.Workload.Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating case dir: %w", err)
	}

	workloadJSON, err := json.Marshal(c.Workload)
	if err != nil {
		return "", fmt.Errorf("report: marshaling workload: %w", err)
	}

	files := map[string]string{
		"test.c":                    encode.Encode(c.Workload),
		"test.json":                 string(workloadJSON),
		c.FstFSName + ".trace.csv":  traceCSV(c.FstTrace),
		c.SndFSName + ".trace.csv":  traceCSV(c.SndTrace),
		c.FstFSName + ".stdout.txt": c.FstStdout,
		c.SndFSName + ".stdout.txt": c.SndStdout,
		c.FstFSName + ".stderr.txt": c.FstStderr,
		c.SndFSName + ".stderr.txt": c.SndStderr,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("report: writing %s: %w", name, err)
		}
	}

	if c.DashEnabled && len(c.DashDiffs) > 0 {
		if err := os.WriteFile(filepath.Join(dir, "dash-diff.txt"), []byte(dashDiffText(c.DashDiffs)), 0o644); err != nil {
			return "", fmt.Errorf("report: writing dash-diff.txt: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "reason.md"), []byte(Reason(c)), 0o644); err != nil {
		return "", fmt.Errorf("report: writing reason.md: %w", err)
	}
	return dir, nil
}

// Reason renders the human-readable reason.md summary for c.
func Reason(c Case) string {
	md := NewMarkdown(fmt.Sprintf("Divergence between %s and %s", c.FstFSName, c.SndFSName))

	md.Heading("Workload")
	md.Codeblock(Lang("c"), encode.Encode(c.Workload))

	if len(c.TraceDiffs) > 0 {
		md.Heading("Trace differences")
		var b []byte
		for _, d := range c.TraceDiffs {
			b = append(b, []byte(traceDiffLine(d)+"\n")...)
		}
		md.Paragraph(string(b))
	}

	if c.DashEnabled && len(c.DashDiffs) > 0 {
		md.Heading("Directory state differences")
		md.Paragraph(dashDiffText(c.DashDiffs))
	}

	return md.String()
}

func traceDiffLine(d trace.Diff) string {
	switch d.Kind {
	case trace.DiffDifferentLength:
		return fmt.Sprintf("trace length differs: %d vs %d", d.FstLen, d.SndLen)
	case trace.DiffTraceRowIsDifferent:
		return fmt.Sprintf("row %d differs: %+v vs %+v", d.RowIndex, d.Fst, d.Snd)
	default:
		return "unknown trace diff"
	}
}

func dashDiffText(diffs []dash.Diff) string {
	var out string
	for _, d := range diffs {
		switch d.Kind {
		case dash.DiffOnlyOneExists:
			side := "first"
			if d.Entry.Side == dash.SideSecond {
				side = "second"
			}
			out += fmt.Sprintf("only on %s side: %s\n", side, d.Entry.File.RelPath)
		case dash.DiffFileIsDifferent:
			out += fmt.Sprintf("differs: %s\n", d.Fst.RelPath)
		}
	}
	return out
}

func traceCSV(rows []trace.Row) string {
	var out string
	out += "Index,Command,ReturnCode,Errno,Extra\n"
	for _, r := range rows {
		errnoCell := ""
		if r.HasErrno {
			errnoCell = fmt.Sprintf("%s(%d)", r.ErrnoName, r.ErrnoCode)
		}
		out += fmt.Sprintf("%d,%s,%d,%s,%s\n", r.Index, r.Command, r.ReturnCode, errnoCell, r.Extra)
	}
	return out
}
