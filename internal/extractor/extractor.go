package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is a document type the backend accepts for upload.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// DocumentInfo describes a local file selected for upload.
type DocumentInfo struct {
	Name   string
	Size   int64
	Format Format
	Pages  int // PDFs only, 0 when unknown
	Rows   int // CSVs only, header included
}

// FormatOf returns the document format for name, matching the extension
// case-insensitively. ok is false for anything but .pdf and .csv.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".csv":
		return FormatCSV, true
	}
	return "", false
}

// Supported reports whether name ends in an accepted document extension.
func Supported(name string) bool {
	_, ok := FormatOf(name)
	return ok
}

// Inspect stats path and, best-effort, counts PDF pages or CSV rows.
// Only a failed stat or an unsupported extension is an error; a document
// that cannot be parsed still yields its name and size.
func Inspect(path string) (DocumentInfo, error) {
	format, ok := FormatOf(path)
	if !ok {
		return DocumentInfo{}, fmt.Errorf("unsupported document type: %s", filepath.Base(path))
	}

	fi, err := os.Stat(path)
	if err != nil {
		return DocumentInfo{}, err
	}
	if fi.IsDir() {
		return DocumentInfo{}, fmt.Errorf("%s is a directory", path)
	}

	info := DocumentInfo{
		Name:   fi.Name(),
		Size:   fi.Size(),
		Format: format,
	}

	switch format {
	case FormatPDF:
		if n, err := CountPDFPages(path); err == nil {
			info.Pages = n
		}
	case FormatCSV:
		if n, err := CountCSVRows(path); err == nil {
			info.Rows = n
		}
	}
	return info, nil
}
