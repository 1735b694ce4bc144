package extractor

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages opens a PDF and returns its page count.
func CountPDFPages(filePath string) (n int, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
