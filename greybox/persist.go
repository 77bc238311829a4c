package greybox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/diffuzzer/diffuzzer/abstractfs"
)

// SaveCorpus writes every seed in c to dir as a gzip-compressed JSON
// file named by the seed's content-addressed fingerprint, honoring the
// greybox.save_corpus TOML option (spec.md 6.2). Re-saving the same
// corpus is idempotent: unchanged seeds overwrite identically-named
// files.
func (c *Corpus) SaveCorpus(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("greybox: creating corpus dir: %w", err)
	}
	for _, w := range c.seeds {
		if err := saveSeed(dir, w); err != nil {
			return err
		}
	}
	return nil
}

func saveSeed(dir string, w abstractfs.Workload) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("greybox: marshaling seed %s: %w", w.Name(), err)
	}

	path := filepath.Join(dir, w.Name()+".json.gz")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("greybox: creating %s: %w", path, err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(data); err != nil {
		return fmt.Errorf("greybox: compressing %s: %w", path, err)
	}
	return gw.Close()
}

// LoadCorpus reads every *.json.gz file in dir as a seed workload,
// seeding a fresh Corpus on top of the mandatory empty workload
// (spec.md 4.8) -- a missing or empty dir yields the same corpus
// NewCorpus would. A saved empty workload is not added a second time,
// so loading what SaveCorpus wrote gives a corpus of the same size.
func LoadCorpus(dir string) (*Corpus, error) {
	c := NewCorpus()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("greybox: reading corpus dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".gz" {
			continue
		}
		w, err := loadSeed(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if len(w.Ops) == 0 {
			continue
		}
		c.Add(w)
	}
	return c, nil
}

func loadSeed(path string) (abstractfs.Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return abstractfs.Workload{}, fmt.Errorf("greybox: opening %s: %w", path, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return abstractfs.Workload{}, fmt.Errorf("greybox: decompressing %s: %w", path, err)
	}
	defer gr.Close()

	var w abstractfs.Workload
	if err := json.NewDecoder(gr).Decode(&w); err != nil {
		return abstractfs.Workload{}, fmt.Errorf("greybox: parsing %s: %w", path, err)
	}
	return w, nil
}
