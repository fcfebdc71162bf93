package profiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureVocabularyFile writes the given categories to path when the file does
// not exist yet, giving users a starting point for editing the vocabulary
// outside of the binary. It reports whether a file was written.
func EnsureVocabularyFile(path string, categories []Category) (bool, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return false, nil
	}
	clean = filepath.Clean(clean)
	if _, err := os.Stat(clean); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("check vocabulary file: %w", err)
	}

	dir := filepath.Dir(clean)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create vocabulary dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(struct {
		Categories []Category `json:"categories"`
	}{categories}, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode vocabulary: %w", err)
	}
	if err := os.WriteFile(clean, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("write vocabulary file: %w", err)
	}
	return true, nil
}

// MergeCategories overlays overrides onto base. A category present in both
// keeps its base position and takes the override terms; new categories are
// appended in override order.
func MergeCategories(base, overrides []Category) []Category {
	merged := cloneCategories(base)
	if len(overrides) == 0 {
		return merged
	}
	pos := make(map[string]int, len(merged))
	for i, c := range merged {
		pos[NormalizeText(c.Name)] = i
	}
	for _, c := range overrides {
		name := NormalizeText(c.Name)
		if name == "" {
			continue
		}
		if i, ok := pos[name]; ok {
			merged[i].Terms = cloneStrings(c.Terms)
			continue
		}
		pos[name] = len(merged)
		merged = append(merged, Category{Name: name, Terms: cloneStrings(c.Terms)})
	}
	return merged
}

func cloneCategories(src []Category) []Category {
	dst := make([]Category, len(src))
	for i, c := range src {
		dst[i] = Category{Name: c.Name, Terms: cloneStrings(c.Terms)}
	}
	return dst
}
