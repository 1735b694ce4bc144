package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// CountCSVRows counts records in a CSV file, header row included.
// Ragged rows are allowed.
func CountCSVRows(filePath string) (int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read csv: %w", err)
		}
		rows++
	}
}
