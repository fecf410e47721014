// Package naming derives identifiers and symbol names from artifact paths.
package naming

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// angularTypes are the file-name type segments that contribute a suffix to the
// symbol name (widget.component.ts -> WidgetComponent).
var angularTypes = map[string]bool{
	"component": true,
	"directive": true,
	"pipe":      true,
	"service":   true,
	"module":    true,
	"guard":     true,
}

// BaseName returns the final path segment up to its first dot.
func BaseName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// Dasherize converts s to lower-kebab case.
func Dasherize(s string) string {
	return strings.Join(segments(s), "-")
}

// Classify converts s to PascalCase using the same segmentation as Dasherize.
func Classify(s string) string {
	var sb strings.Builder
	for _, seg := range segments(s) {
		r := []rune(seg)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	return sb.String()
}

// Identifier is the dasherized base name of p.
func Identifier(p string) string {
	return Dasherize(BaseName(p))
}

// ClassName is the classified base name of p.
func ClassName(p string) string {
	return Classify(BaseName(p))
}

// SymbolName is ClassName plus the classified Angular type segment, if the
// file name carries one.
func SymbolName(p string) string {
	name := ClassName(p)
	parts := strings.Split(path.Base(strings.ReplaceAll(p, "\\", "/")), ".")
	if len(parts) > 1 && angularTypes[strings.ToLower(parts[1])] {
		name += Classify(parts[1])
	}
	return name
}

// UsageTag returns the element tag used to place the artifact in a template.
func UsageTag(prefix, p string) string {
	id := Identifier(p)
	prefix = Dasherize(prefix)
	if prefix == "" {
		return id
	}
	if id == "" {
		return prefix
	}
	return prefix + "-" + id
}

// segments splits s into lower-case words on camel-case boundaries and runs of
// non-alphanumeric characters.
func segments(s string) []string {
	runes := []rune(norm.NFC.String(s))
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// fooBar, foo1Bar, and the last capital of an acronym (HTMLParser)
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}
