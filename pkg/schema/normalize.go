package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// sniffRows bounds how many data rows take part in header detection.
const sniffRows = 20

// Normalize resolves a field configuration into column indexes using the
// header line found after skipLines lines of head. It also reports whether
// a header line was detected.
func Normalize(cfg Config, head string, skipLines int) (FieldMap, bool, error) {
	if skipLines < 0 {
		return nil, false, &ConfigError{Reason: fmt.Sprintf("negative skip_lines %d", skipLines)}
	}

	rows, err := ReadRows(strings.NewReader(SkipLines(head, skipLines)))
	if err != nil {
		return nil, false, err
	}
	rows = sniffSample(rows)

	if HasHeader(rows) {
		fields := make(map[string]int, len(rows[0]))
		for i, name := range rows[0] {
			fields[name] = i
		}

		resolved := make(FieldMap, len(cfg))
		for _, f := range cfg.Fields() {
			col := cfg[f]
			if !col.IsName() {
				resolved[f] = col.Index
				continue
			}
			idx, ok := fields[strings.TrimSpace(col.Name)]
			if !ok {
				return nil, true, &ConfigError{Field: f, Reason: fmt.Sprintf("column %s not found in header", col)}
			}
			resolved[f] = idx
		}
		return resolved, true, nil
	}

	resolved := make(FieldMap, len(cfg))
	for _, f := range cfg.Fields() {
		col := cfg[f]
		if col.IsName() {
			return nil, false, &ConfigError{Field: f, Reason: fmt.Sprintf("file has no header but column %s is not an index", col)}
		}
		resolved[f] = col.Index
	}
	return resolved, false, nil
}

// sniffSample keeps the candidate header plus the data rows before the
// terminator, skipping comments.
func sniffSample(rows [][]string) [][]string {
	var sample [][]string
	for _, row := range rows {
		if len(sample) > sniffRows {
			break
		}
		if IsTerminator(row) {
			break
		}
		if len(sample) > 0 && IsComment(row) {
			continue
		}
		sample = append(sample, row)
	}
	return sample
}

type kindTag int

const (
	kindUnset kindTag = iota
	kindInt
	kindFloat
	kindLength
)

type columnKind struct {
	tag    kindTag
	length int
}

func kindOf(cell string) columnKind {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return columnKind{tag: kindInt}
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return columnKind{tag: kindFloat}
	}
	return columnKind{tag: kindLength, length: utf8.RuneCountInString(cell)}
}

// HasHeader guesses whether the first row is a header. Every column of the
// following rows is typed as integer, decimal or fixed-length text; columns
// that are not regular are ignored. A header cell that does not fit its
// column's type votes for a header, one that fits votes against. A single
// data row cannot show that a text column has a fixed length, so such
// columns do not vote; when nothing is left to vote, the row is a header.
func HasHeader(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	header := rows[0]
	width := len(header)

	kinds := make(map[int]columnKind, width)
	for i := 0; i < width; i++ {
		kinds[i] = columnKind{}
	}

	checked, regular := 0, 0
	for _, row := range rows[1:] {
		if checked >= sniffRows {
			break
		}
		checked++
		if len(row) != width {
			continue
		}
		regular++
		for col, prev := range kinds {
			k := kindOf(row[col])
			switch {
			case prev.tag == kindUnset:
				kinds[col] = k
			case prev != k:
				delete(kinds, col)
			}
		}
	}

	if regular == 1 {
		for col, k := range kinds {
			if k.tag == kindLength {
				delete(kinds, col)
			}
		}
		if len(kinds) == 0 {
			return true
		}
	}

	votes := 0
	for col, k := range kinds {
		switch k.tag {
		case kindUnset:
			votes++
		case kindLength:
			if utf8.RuneCountInString(header[col]) != k.length {
				votes++
			} else {
				votes--
			}
		default:
			if fits(header[col], k.tag) {
				votes--
			} else {
				votes++
			}
		}
	}
	return votes > 0
}

func fits(cell string, tag kindTag) bool {
	if tag == kindInt {
		_, err := strconv.ParseInt(cell, 10, 64)
		return err == nil
	}
	_, err := strconv.ParseFloat(cell, 64)
	return err == nil
}
