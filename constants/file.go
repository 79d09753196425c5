package constants

import "strings"

// WorkbookExtensions are the price list extensions read as XLSX workbooks; anything else is CSV text.
var WorkbookExtensions = map[string]struct{}{
	"xlsx": {},
	"xlsm": {},
}

// ZipMagic starts every XLSX file.
const ZipMagic = "PK\x03\x04"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsWorkbookExt reports whether ext (with or without the dot) names a workbook format.
func IsWorkbookExt(ext string) bool {
	_, ok := WorkbookExtensions[NormalizeExt(ext)]
	return ok
}
