package patcher

import "strings"

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
	tokOther
)

type token struct {
	kind       tokenKind
	text       string
	start, end int
}

func (t token) is(text string) bool { return t.kind == tokPunct && t.text == text }

// lex tokenizes the subset of TypeScript needed to find import statements and
// decorator descriptors. Comments and whitespace are dropped; string and
// template literals become single tokens so brackets inside them never count.
// Regular expression literals are not recognized.
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.HasPrefix(src[i:], "//"):
			if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
				i += nl + 1
			} else {
				i = len(src)
			}
		case strings.HasPrefix(src[i:], "/*"):
			if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(src)
			}
		case c == '\'' || c == '"':
			end := skipQuoted(src, i)
			toks = append(toks, token{kind: tokString, text: src[i:end], start: i, end: end})
			i = end
		case c == '`':
			end := skipTemplate(src, i)
			toks = append(toks, token{kind: tokString, text: src[i:end], start: i, end: end})
			i = end
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], start: i, end: j})
			i = j
		case strings.IndexByte("{}[]()@,:;.", c) >= 0:
			toks = append(toks, token{kind: tokPunct, text: src[i : i+1], start: i, end: i + 1})
			i++
		default:
			toks = append(toks, token{kind: tokOther, text: src[i : i+1], start: i, end: i + 1})
			i++
		}
	}
	return toks
}

func skipQuoted(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote, '\n':
			return j + 1
		}
	}
	return len(src)
}

// skipTemplate skips a template literal, including nested ${ } expressions.
func skipTemplate(src string, i int) int {
	depth := 0
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '`':
			if depth == 0 {
				return j + 1
			}
		case '$':
			if j+1 < len(src) && src[j+1] == '{' {
				depth++
				j++
			}
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return len(src)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func opens(t token) bool  { return t.is("{") || t.is("[") || t.is("(") }
func closes(t token) bool { return t.is("}") || t.is("]") || t.is(")") }

// matching returns the index of the bracket closing toks[open], or -1.
func matching(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case opens(toks[i]):
			depth++
		case closes(toks[i]):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
