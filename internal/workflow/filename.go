package workflow

import "strings"

// DefaultFilename is used when the service does not suggest a name.
const DefaultFilename = "generated_qr_code_pdf.pdf"

// ResolveFilename extracts the filename= token from a Content-Disposition
// value, trimming whitespace and surrounding quotes. A quoted value runs to
// its closing quote; an unquoted value ends at the next ';'.
func ResolveFilename(disposition string) string {
	_, rest, found := strings.Cut(disposition, "filename=")
	if !found {
		return DefaultFilename
	}

	var name string
	if quoted, ok := strings.CutPrefix(strings.TrimLeft(rest, " \t"), `"`); ok {
		name, _, _ = strings.Cut(quoted, `"`)
	} else {
		name, _, _ = strings.Cut(rest, ";")
	}

	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"`)
	name = strings.TrimSpace(name)

	if name == "" {
		return DefaultFilename
	}
	return name
}
