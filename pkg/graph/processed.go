package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// bigSolidus stands in for "/" in file names. It looks like a slash and is
// unlikely to occur in a page name.
const bigSolidus = "⧸"

// SanitizePageName converts a page name into a file name stem.
func SanitizePageName(page string) string {
	return strings.ReplaceAll(page, "/", bigSolidus)
}

// UnsanitizePageName reverses [SanitizePageName].
func UnsanitizePageName(stem string) string {
	return strings.ReplaceAll(stem, bigSolidus, "/")
}

// ReadProcessedDir reads one processed genre per "<page>.toml" file in dir,
// keyed by the unsanitised page name. Other files and subdirectories are
// ignored.
func ReadProcessedDir(dir string) (map[string]ProcessedGenre, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	out := make(map[string]ProcessedGenre, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		var g ProcessedGenre
		if _, err := toml.DecodeFile(path, &g); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		page := UnsanitizePageName(strings.TrimSuffix(e.Name(), ".toml"))
		out[page] = g
	}
	return out, nil
}

// WriteProcessed writes g to dir as "<sanitised page>.toml".
func WriteProcessed(dir, page string, g ProcessedGenre) error {
	path := filepath.Join(dir, SanitizePageName(page)+".toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(g); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
