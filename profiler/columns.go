package profiler

import (
	"strings"
	"sync/atomic"
)

// ColumnCandidates lists the header names tried, case-insensitively, when a
// batch file does not name its columns explicitly.
type ColumnCandidates struct {
	Text  []string `json:"text" yaml:"text" mapstructure:"text"`
	Index []string `json:"index" yaml:"index" mapstructure:"index"`
	Name  []string `json:"name" yaml:"name" mapstructure:"name"`
}

var activeColumns atomic.Pointer[ColumnCandidates]

func init() {
	c := DefaultColumnCandidates()
	activeColumns.Store(&c)
}

// DefaultColumnCandidates returns the built-in headers for résumé spreadsheets.
func DefaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Text:  []string{"curriculo", "currículo", "curriculo_texto", "texto", "text", "resume", "cv", "content"},
		Index: []string{"id", "index", "indice", "índice", "no"},
		Name:  []string{"nome", "name", "candidato", "candidate"},
	}
}

// SetColumnCandidates replaces the process-wide candidates. Nil fields keep
// the built-in list for that column.
func SetColumnCandidates(candidates ColumnCandidates) {
	defaults := DefaultColumnCandidates()
	next := ColumnCandidates{
		Text:  orDefault(candidates.Text, defaults.Text),
		Index: orDefault(candidates.Index, defaults.Index),
		Name:  orDefault(candidates.Name, defaults.Name),
	}
	activeColumns.Store(&next)
}

func currentColumns() ColumnCandidates {
	return *activeColumns.Load()
}

func orDefault(custom, fallback []string) []string {
	if custom == nil {
		return fallback
	}
	return cloneStrings(custom)
}

// headerPosition returns the first header cell equal to any name, or -1.
func headerPosition(header []string, names []string) int {
	for i, cell := range header {
		for _, name := range names {
			if strings.EqualFold(cell, name) {
				return i
			}
		}
	}
	return -1
}
