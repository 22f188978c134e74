package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	commentPrefix    = "#"
	terminatorPrefix = "-----------"
)

// SkipLines drops the first n physical lines of content.
func SkipLines(content string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(content, '\n')
		if idx < 0 {
			return ""
		}
		content = content[idx+1:]
	}
	return content
}

// ReadRows parses delimited text and trims the whitespace around every cell.
// Blank lines never produce a row.
func ReadRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// IsComment reports whether a row is a comment line.
func IsComment(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(row[0], commentPrefix)
}

// IsTerminator reports whether a row marks the end of the data section.
func IsTerminator(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(row[0], terminatorPrefix)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
