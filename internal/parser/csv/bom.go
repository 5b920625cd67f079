package csv

import "strings"

// utf8BOM is stripped from the first header cell if present. Spreadsheet
// exports on Windows commonly prepend it.
const utf8BOM = "\ufeff"

// stripBOM removes a leading UTF-8 BOM from the first cell of a header row.
func stripBOM(fields []string) []string {
	if len(fields) == 0 {
		return fields
	}
	fields[0] = strings.TrimPrefix(fields[0], utf8BOM)
	return fields
}
