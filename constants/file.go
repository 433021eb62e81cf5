package constants

import "strings"

// SourceFormat identifies which extractor handles a source file.
type SourceFormat string

const (
	PDF         SourceFormat = "PDF"
	SPREADSHEET SourceFormat = "SPREADSHEET"
)

// PDFExtensions holds the extensions picked up by the PDF conversion job.
var PDFExtensions = map[string]struct{}{
	"pdf": {},
}

// SpreadsheetExtensions holds the extensions picked up by the spreadsheet import job.
var SpreadsheetExtensions = map[string]struct{}{
	"xls":  {},
	"xlsx": {},
}

// OfficeLockPrefix marks the lock files office suites leave next to an open workbook.
const OfficeLockPrefix = "~$"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to the extractor format, or "" if unsupported.
func MapExtToFormat(ext string) SourceFormat {
	ext = NormalizeExt(ext)
	if _, ok := PDFExtensions[ext]; ok {
		return PDF
	}
	if _, ok := SpreadsheetExtensions[ext]; ok {
		return SPREADSHEET
	}
	return ""
}
