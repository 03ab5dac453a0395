// Package sheet turns uploaded spreadsheet files into raw row mappings keyed
// by header name.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoSheets          = errors.New("workbook has no sheets")
)

// Extensions lists the accepted upload extensions.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// Supported reports whether a file name carries an accepted extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Decode reads the first sheet of the file and returns one mapping per data
// row. The first row is the header; cells missing from a row are "".
func Decode(name string, r io.Reader) ([]map[string]any, error) {
	var (
		table [][]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		table, err = readWorkbook(r)
	case ".csv":
		table, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}

	return toRows(table), nil
}

func toRows(table [][]string) []map[string]any {
	if len(table) == 0 {
		return []map[string]any{}
	}

	headers := headerNames(table[0])
	rows := make([]map[string]any, 0, len(table)-1)
	for _, cells := range table[1:] {
		if blank(cells) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// headerNames trims header cells, names empty ones __EMPTY and suffixes
// duplicates with _1, _2, ...
func headerNames(cells []string) []string {
	seen := make(map[string]int, len(cells))
	names := make([]string, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = "__EMPTY"
		}
		if _, dup := seen[name]; dup {
			base := name
			for n := seen[base] + 1; ; n++ {
				candidate := fmt.Sprintf("%s_%d", base, n)
				if _, taken := seen[candidate]; !taken {
					seen[base] = n
					name = candidate
					break
				}
			}
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
