package profiler

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InputParseOptions names the batch columns to read. Each value is a header
// name or a 1-based position written as "#N"; empty means auto-detect.
type InputParseOptions struct {
	IndexColumn string
	NameColumn  string
	TextColumn  string
}

// InputFileMetadata is the header of a CSV/TSV file and the columns that
// auto-detection would pick.
type InputFileMetadata struct {
	Columns   []string
	Suggested InputParseOptions
}

// ParseInputRecords reads a batch file with auto-detected columns.
func ParseInputRecords(path string) ([]InputRecord, error) {
	return ParseInputRecordsWithOptions(path, InputParseOptions{})
}

// ParseInputRecordsWithOptions reads one résumé per row of a .csv or .tsv
// file, or one résumé per non-empty line of any other file.
func ParseInputRecordsWithOptions(path string, opts InputParseOptions) ([]InputRecord, error) {
	comma, delimited := delimiterFor(path)
	if !delimited {
		return readLineRecords(path)
	}
	rows, err := readRows(path, comma, false)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	layout, err := resolveLayout(rows[0], opts)
	if err != nil {
		return nil, err
	}
	if layout.hasHeader() {
		rows = rows[1:]
	}
	records := make([]InputRecord, 0, len(rows))
	for n, row := range rows {
		rec := layout.record(row)
		if rec.Text == "" {
			continue
		}
		if rec.Index == "" {
			rec.Index = strconv.Itoa(n + 1)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadInputFileMetadata inspects the header of a CSV/TSV file. Other files
// yield empty metadata.
func ReadInputFileMetadata(path string) (InputFileMetadata, error) {
	var meta InputFileMetadata
	comma, delimited := delimiterFor(path)
	if !delimited {
		return meta, nil
	}
	rows, err := readRows(path, comma, true)
	if err != nil || len(rows) == 0 {
		return meta, err
	}
	meta.Columns = rows[0]
	// A header without a text column still reports the columns it did match.
	layout, _ := resolveLayout(rows[0], InputParseOptions{})
	meta.Suggested = InputParseOptions{
		IndexColumn: layout.index.label(rows[0]),
		NameColumn:  layout.name.label(rows[0]),
		TextColumn:  layout.text.label(rows[0]),
	}
	return meta, nil
}

// ResultHeader is the column layout written by WriteResultsCSV.
var ResultHeader = []string{"index", "nome", "perfil", "confianca", "hard_skills", "emails", "telefones", "nomes_detectados"}

// WriteResultsCSV writes one row per analysed record. records and results are
// parallel; nil results are skipped.
func WriteResultsCSV(w io.Writer, records []InputRecord, results []*ExtractionResult) error {
	if len(records) != len(results) {
		return fmt.Errorf("records (%d) and results (%d) differ in length", len(records), len(results))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return err
	}
	for i, res := range results {
		if res == nil {
			continue
		}
		err := cw.Write([]string{
			records[i].Index,
			records[i].Name,
			res.Profile,
			strconv.FormatFloat(res.Confidence, 'f', 3, 64),
			joinList(res.HardSkills),
			joinList(res.Emails),
			joinList(res.Phones),
			joinList(res.Names),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}

func delimiterFor(path string) (rune, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ',', true
	case ".tsv":
		return '\t', true
	}
	return 0, false
}

// readRows returns the cleaned rows of a delimited file; headerOnly stops
// after the first row.
func readRows(path string, comma rune, headerOnly bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		for i := range row {
			row[i] = cleanCell(row[i])
		}
		rows = append(rows, row)
		if headerOnly {
			break
		}
	}
	return rows, nil
}

func readLineRecords(path string) ([]InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()

	var out []InputRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for sc.Scan() {
		if line := cleanCell(sc.Text()); line != "" {
			out = append(out, InputRecord{Index: strconv.Itoa(len(out) + 1), Text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan text file: %w", err)
	}
	return out, nil
}

func cleanCell(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "\ufeff"))
}

// column is a resolved position; named reports whether it came from a
// header cell, which means the first row is a header.
type column struct {
	pos   int
	named bool
}

var noColumn = column{pos: -1}

func (c column) value(row []string) string {
	if c.pos < 0 || c.pos >= len(row) {
		return ""
	}
	return row[c.pos]
}

func (c column) label(header []string) string {
	switch {
	case c.pos < 0:
		return ""
	case c.named && c.pos < len(header) && header[c.pos] != "":
		return header[c.pos]
	}
	return "#" + strconv.Itoa(c.pos+1)
}

type columnLayout struct {
	index, name, text column
}

func (l columnLayout) hasHeader() bool {
	return l.index.named || l.name.named || l.text.named
}

func (l columnLayout) record(row []string) InputRecord {
	return InputRecord{
		Index: l.index.value(row),
		Name:  l.name.value(row),
		Text:  l.text.value(row),
	}
}

// resolveLayout maps explicit options first, then candidate headers. A file
// with no recognised header reads its text from the first column; a header
// that names other columns but no text column is an error.
func resolveLayout(header []string, opts InputParseOptions) (columnLayout, error) {
	cands := currentColumns()
	var (
		l   columnLayout
		err error
	)
	if l.index, err = resolveColumn(header, opts.IndexColumn, cands.Index); err != nil {
		return l, err
	}
	if l.name, err = resolveColumn(header, opts.NameColumn, cands.Name); err != nil {
		return l, err
	}
	if l.text, err = resolveColumn(header, opts.TextColumn, cands.Text); err != nil {
		return l, err
	}
	if l.text.pos >= 0 {
		return l, nil
	}
	if l.hasHeader() {
		return l, fmt.Errorf("text column not found in header %q; set the text column explicitly", header)
	}
	if len(header) > 0 {
		l.text = column{pos: 0}
	}
	return l, nil
}

func resolveColumn(header []string, explicit string, candidates []string) (column, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		if pos := headerPosition(header, candidates); pos >= 0 {
			return column{pos: pos, named: true}, nil
		}
		return noColumn, nil
	}
	if pos := headerPosition(header, []string{explicit}); pos >= 0 {
		return column{pos: pos, named: true}, nil
	}
	if !strings.HasPrefix(explicit, "#") {
		return noColumn, fmt.Errorf("column %q not found", explicit)
	}
	n, err := strconv.Atoi(strings.TrimSpace(explicit[1:]))
	switch {
	case err != nil:
		return noColumn, fmt.Errorf("invalid column index %q", explicit)
	case n <= 0:
		return noColumn, fmt.Errorf("column indices are 1-based: %q", explicit)
	case n > len(header):
		return noColumn, fmt.Errorf("column index %s is out of range", explicit)
	}
	return column{pos: n - 1}, nil
}
