package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/encode"
	"github.com/diffuzzer/diffuzzer/trace"
)

// SoloOutcomeKind mirrors runner.OutcomeKind so that report does not
// import runner: solo results are reported before any differential
// comparison exists.
type SoloOutcomeKind int

const (
	SoloCompleted SoloOutcomeKind = iota
	SoloTimedOut
	SoloPanicked
)

// SoloCase is one single-filesystem run's result (spec.md 6.1
// solo-single), the one-sided counterpart to Case.
type SoloCase struct {
	Workload abstractfs.Workload
	FSName   string
	Kind     SoloOutcomeKind
	Trace    []trace.Row
	Stdout   string
	Stderr   string
	Timeout  uint8
}

// SaveSolo writes test.json, test.c, the trace CSV (if the run
// completed), stdout/stderr, and a one-line reason.md describing the
// outcome, named by the workload's fingerprint under baseDir --
// grounded on original_source's solo_single.rs save match arm.
func SaveSolo(baseDir string, c SoloCase) (string, error) {
	dir := filepath.Join(baseDir, c.Workload.Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: creating solo case dir: %w", err)
	}

	workloadJSON, err := json.Marshal(c.Workload)
	if err != nil {
		return "", fmt.Errorf("report: marshaling workload: %w", err)
	}

	files := map[string]string{
		"test.c":                 encode.Encode(c.Workload),
		"test.json":              string(workloadJSON),
		c.FSName + ".stdout.txt": c.Stdout,
		c.FSName + ".stderr.txt": c.Stderr,
	}
	if c.Kind == SoloCompleted {
		files[c.FSName+".trace.csv"] = traceCSV(c.Trace)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("report: writing %s: %w", name, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "reason.md"), []byte(soloReason(c)), 0o644); err != nil {
		return "", fmt.Errorf("report: writing reason.md: %w", err)
	}
	return dir, nil
}

func soloReason(c SoloCase) string {
	md := NewMarkdown(fmt.Sprintf("Solo run of %s", c.FSName))
	switch c.Kind {
	case SoloCompleted:
		md.Heading(fmt.Sprintf("Filesystem '%s' completed workload", c.FSName))
	case SoloPanicked:
		md.Heading(fmt.Sprintf("Filesystem '%s' panicked", c.FSName))
	case SoloTimedOut:
		md.Heading(fmt.Sprintf("Filesystem '%s' timed out after %ds", c.FSName, c.Timeout))
	}
	md.Codeblock(Lang("c"), encode.Encode(c.Workload))
	return md.String()
}
