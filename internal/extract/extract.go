// Package extract pulls plain text out of résumé files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// MIME types understood by FromBytes.
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType is returned for file types other than text, PDF and DOCX.
var ErrUnsupportedType = errors.New("unsupported file type")

// MIMEFromPath maps a file extension to one of the supported MIME types.
func MIMEFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".md", "":
		return MIMEText
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	default:
		return mime.TypeByExtension(filepath.Ext(path))
	}
}

// Text reads the file at path and returns its plain text.
func Text(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return FromBytes(MIMEFromPath(path), data)
}

// FromBytes extracts text from data according to its MIME type. Parameters
// such as "; charset=utf-8" are ignored.
func FromBytes(mimeType string, data []byte) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	switch mediaType {
	case MIMEText:
		return string(data), nil
	case MIMEPDF:
		return pdfText(bytes.NewReader(data), int64(len(data)))
	case MIMEDocx:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
}

func pdfText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

var (
	docxParagraph = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag        = regexp.MustCompile(`<[^>]*>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()
	return xmlToText(doc.Editable().GetContent()), nil
}

// xmlToText turns WordprocessingML into plain text, one line per paragraph.
func xmlToText(content string) string {
	content = docxParagraph.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return " "
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
