// Package patcher registers a generated symbol in an Angular host file by
// inserting text at structurally located points: after the import section,
// and into the declarations or imports array of the host's descriptor.
//
// All edits are computed against one snapshot of the host text and applied in
// descending position order, so applying one edit never shifts the offset of
// an edit that has not been applied yet. Existing bytes are never rewritten.
package patcher

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"prototyper/internal/inspect"
)

var (
	// ErrGrammarMismatch means the host has no descriptor of the expected shape.
	// Callers treat it as a warning.
	ErrGrammarMismatch = errors.New("patcher: host file does not match a supported shape")
	ErrEditOutOfRange  = errors.New("patcher: edit position outside source")
)

// InsertionKind selects the descriptor array that receives the symbol.
type InsertionKind int

const (
	// InsertImport adds the symbol to the module's declaration list.
	InsertImport InsertionKind = iota
	// InsertComposed adds the symbol to the descriptor's composition (imports)
	// array; used for standalone components.
	InsertComposed
)

func (k InsertionKind) String() string {
	if k == InsertComposed {
		return "composed"
	}
	return "import"
}

// arrayKey is the descriptor property the kind inserts into.
func (k InsertionKind) arrayKey() string {
	if k == InsertComposed {
		return "imports"
	}
	return "declarations"
}

// ChooseKind picks InsertComposed when the generated script marks its
// component as standalone.
func ChooseKind(script string) InsertionKind {
	if inspect.Inspect(script).Standalone {
		return InsertComposed
	}
	return InsertImport
}

// Request describes one symbol registration.
type Request struct {
	TargetFile string
	SymbolName string
	ImportPath string
	Kind       InsertionKind
}

// Edit inserts Text at byte offset Pos of the original snapshot.
type Edit struct {
	Pos  int
	Text string
}

// ImportPath is the module specifier for script as seen from host: relative,
// slash-separated, without the .ts extension, and always dot-prefixed.
func ImportPath(host, script string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(host)), filepath.FromSlash(script))
	if err != nil {
		rel = script
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".ts")
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// Plan computes the edits that register req.SymbolName in src. It returns no
// edits when the symbol is already imported and listed.
func Plan(src string, req Request) ([]Edit, error) {
	if req.SymbolName == "" {
		return nil, fmt.Errorf("patcher: empty symbol name")
	}
	toks := lex(src)

	d, ok := pickDescriptor(findDescriptors(toks), req.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: no @NgModule%s descriptor for %s insertion in %s",
			ErrGrammarMismatch, componentHint(req.Kind), req.Kind, req.TargetFile)
	}

	var edits []Edit
	imports := findImports(toks)
	if !imported(imports, req.SymbolName) {
		edits = append(edits, importEdit(src, imports, req))
	}

	arrEdit, err := arrayEdit(src, toks, d, req)
	if err != nil {
		return nil, err
	}
	if arrEdit != nil {
		edits = append(edits, *arrEdit)
	}
	return edits, nil
}

// Apply inserts edits into src, highest position first. Edits sharing a
// position keep their planned order in the output.
func Apply(src string, edits []Edit) (string, error) {
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
		if edits[i].Pos < 0 || edits[i].Pos > len(src) {
			return "", fmt.Errorf("%w: %d not in [0,%d]", ErrEditOutOfRange, edits[i].Pos, len(src))
		}
	}
	sort.Slice(order, func(a, b int) bool {
		ea, eb := edits[order[a]], edits[order[b]]
		if ea.Pos != eb.Pos {
			return ea.Pos > eb.Pos
		}
		return order[a] > order[b]
	})

	out := src
	for _, i := range order {
		e := edits[i]
		out = out[:e.Pos] + e.Text + out[e.Pos:]
	}
	return out, nil
}

// Patch plans and applies req against src.
func Patch(src string, req Request) (string, []Edit, error) {
	edits, err := Plan(src, req)
	if err != nil {
		return src, nil, err
	}
	out, err := Apply(src, edits)
	if err != nil {
		return src, nil, err
	}
	return out, edits, nil
}

func componentHint(k InsertionKind) string {
	if k == InsertComposed {
		return " or @Component"
	}
	return ""
}

// pickDescriptor prefers @NgModule; a composition array may also live in a
// standalone root @Component.
func pickDescriptor(ds []descriptor, kind InsertionKind) (descriptor, bool) {
	for _, d := range ds {
		if d.name == "NgModule" {
			return d, true
		}
	}
	if kind == InsertComposed {
		for _, d := range ds {
			if d.name == "Component" {
				return d, true
			}
		}
	}
	return descriptor{}, false
}

func imported(imports []importStmt, symbol string) bool {
	for _, s := range imports {
		if !s.typeOnly && s.binds(symbol) {
			return true
		}
	}
	return false
}

func importEdit(src string, imports []importStmt, req Request) Edit {
	nl := lineBreak(src)
	quote := "'"
	if len(imports) > 0 && imports[len(imports)-1].quote == '"' {
		quote = `"`
	}
	stmt := fmt.Sprintf("import { %s } from %s%s%s;", req.SymbolName, quote, req.ImportPath, quote)
	if len(imports) == 0 {
		return Edit{Pos: 0, Text: stmt + nl}
	}
	return Edit{Pos: imports[len(imports)-1].end, Text: nl + stmt}
}

func arrayEdit(src string, toks []token, d descriptor, req Request) (*Edit, error) {
	key := req.Kind.arrayKey()
	nl := lineBreak(src)
	props := properties(toks, d)
	for _, p := range props {
		if p.key != key {
			continue
		}
		arr, ok := readArray(toks, p.valueTok)
		if !ok {
			return nil, fmt.Errorf("%w: %q in @%s is not an array literal", ErrGrammarMismatch, key, d.name)
		}
		if arr.contains(toks, req.SymbolName) {
			return nil, nil
		}
		if len(arr.elements) == 0 {
			return &Edit{Pos: toks[arr.open].end, Text: req.SymbolName}, nil
		}
		first := toks[arr.elements[0][0]]
		last := toks[arr.elements[len(arr.elements)-1][1]]
		sep := ", "
		if strings.Contains(src[toks[arr.open].end:first.start], "\n") {
			sep = "," + nl + indentAt(src, first.start)
		}
		return &Edit{Pos: last.end, Text: sep + req.SymbolName}, nil
	}

	// Descriptor without the property: add it as the first entry.
	entry := fmt.Sprintf("%s: [%s]", key, req.SymbolName)
	open := toks[d.open]
	if len(props) == 0 {
		if d.close == d.open+1 {
			return &Edit{Pos: open.end, Text: nl + "  " + entry + nl}, nil
		}
		return &Edit{Pos: open.end, Text: " " + entry + ","}, nil
	}
	firstKey := toks[props[0].keyTok]
	if strings.Contains(src[open.end:firstKey.start], "\n") {
		return &Edit{Pos: firstKey.start, Text: entry + "," + nl + indentAt(src, firstKey.start)}, nil
	}
	return &Edit{Pos: firstKey.start, Text: entry + ", "}, nil
}

// lineBreak is the host's line terminator, judged by its first line.
func lineBreak(src string) string {
	if i := strings.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// indentAt returns the leading whitespace of the line containing pos.
func indentAt(src string, pos int) string {
	lineStart := strings.LastIndexByte(src[:pos], '\n') + 1
	i := lineStart
	for i < pos && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return src[lineStart:i]
}
