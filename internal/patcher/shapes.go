package patcher

import "strings"

// importStmt is one top-level import declaration.
type importStmt struct {
	start, end int
	module     string
	quote      byte
	// bindings holds value names only; type-only specifiers are left out.
	bindings   []string
	typeOnly   bool
}

func (s importStmt) binds(name string) bool {
	for _, b := range s.bindings {
		if b == name {
			return true
		}
	}
	return false
}

// descriptor is the object literal passed to @NgModule(...) or @Component(...).
type descriptor struct {
	name        string
	open, close int // token indices of { and }
}

type property struct {
	key      string
	keyTok   int
	valueTok int
}

// arrayLit is an array literal; each element spans toks[first..last].
type arrayLit struct {
	open, close int
	elements    [][2]int
}

// findImports returns the top-level import declarations in source order.
// Dynamic import() and import.meta are skipped.
func findImports(toks []token) []importStmt {
	var out []importStmt
	depth := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case opens(t):
			depth++
			continue
		case closes(t):
			depth--
			continue
		}
		if depth != 0 || t.kind != tokIdent || t.text != "import" {
			continue
		}
		if i > 0 && toks[i-1].is(".") {
			continue
		}
		if i+1 < len(toks) && (toks[i+1].is("(") || toks[i+1].is(".")) {
			continue
		}
		stmt, next := readImport(toks, i)
		out = append(out, stmt)
		i = next - 1
	}
	return out
}

func readImport(toks []token, at int) (importStmt, int) {
	stmt := importStmt{start: toks[at].start, end: toks[at].end}
	inBraces, pendingAs, replace, typeSpec := false, false, false, false
	for j := at + 1; j < len(toks); j++ {
		t := toks[j]
		stmt.end = t.end
		switch {
		case t.is("{"):
			inBraces = true
		case t.is("}"):
			inBraces, typeSpec = false, false
		case t.is(","):
			typeSpec = false
		case t.is(";"):
			return stmt, j + 1
		case t.kind == tokString:
			stmt.module = strings.Trim(t.text, "'\"`")
			stmt.quote = t.text[0]
			if j+1 < len(toks) && toks[j+1].is(";") {
				stmt.end = toks[j+1].end
				return stmt, j + 2
			}
			return stmt, j + 1
		case t.kind == tokIdent:
			next := token{}
			if j+1 < len(toks) {
				next = toks[j+1]
			}
			switch {
			case t.text == "type" && j == at+1 && next.text != "from" && (next.kind == tokIdent || next.is("{") || next.text == "*"):
				stmt.typeOnly = true
			case t.text == "type" && inBraces && next.kind == tokIdent && next.text != "as":
				typeSpec = true
			case typeSpec || stmt.typeOnly:
				pendingAs = false
			case t.text == "as":
				pendingAs = true
				replace = toks[j-1].kind == tokIdent
			case pendingAs:
				if replace && len(stmt.bindings) > 0 {
					stmt.bindings[len(stmt.bindings)-1] = t.text
				} else {
					stmt.bindings = append(stmt.bindings, t.text)
				}
				pendingAs = false
			case t.text == "from" && !inBraces:
			default:
				stmt.bindings = append(stmt.bindings, t.text)
			}
		}
	}
	return stmt, len(toks)
}

// findDescriptors returns every @NgModule({...}) and @Component({...}) object.
func findDescriptors(toks []token) []descriptor {
	var out []descriptor
	for i := 0; i+3 < len(toks); i++ {
		if !toks[i].is("@") || toks[i+1].kind != tokIdent {
			continue
		}
		name := toks[i+1].text
		if name != "NgModule" && name != "Component" {
			continue
		}
		if !toks[i+2].is("(") || !toks[i+3].is("{") {
			continue
		}
		if end := matching(toks, i+3); end > 0 {
			out = append(out, descriptor{name: name, open: i + 3, close: end})
		}
	}
	return out
}

// properties lists the direct key: value pairs of an object literal.
func properties(toks []token, d descriptor) []property {
	var out []property
	depth := 0
	expectKey := true
	for i := d.open + 1; i < d.close; i++ {
		t := toks[i]
		if depth == 0 {
			if expectKey && (t.kind == tokIdent || t.kind == tokString) && i+1 < d.close && toks[i+1].is(":") {
				out = append(out, property{key: strings.Trim(t.text, "'\"`"), keyTok: i, valueTok: i + 2})
				expectKey = false
				i++
				continue
			}
			if t.is(",") {
				expectKey = true
				continue
			}
		}
		switch {
		case opens(t):
			depth++
		case closes(t):
			depth--
		}
	}
	return out
}

func readArray(toks []token, open int) (arrayLit, bool) {
	if open >= len(toks) || !toks[open].is("[") {
		return arrayLit{}, false
	}
	end := matching(toks, open)
	if end < 0 {
		return arrayLit{}, false
	}
	arr := arrayLit{open: open, close: end}
	depth := 0
	first := -1
	for i := open + 1; i < end; i++ {
		t := toks[i]
		if depth == 0 && t.is(",") {
			if first >= 0 {
				arr.elements = append(arr.elements, [2]int{first, i - 1})
			}
			first = -1
			continue
		}
		if first < 0 {
			first = i
		}
		switch {
		case opens(t):
			depth++
		case closes(t):
			depth--
		}
	}
	if first >= 0 {
		arr.elements = append(arr.elements, [2]int{first, end - 1})
	}
	return arr, true
}

// contains reports whether the array lists name as a bare identifier element.
func (a arrayLit) contains(toks []token, name string) bool {
	for _, el := range a.elements {
		if el[0] == el[1] && toks[el[0]].kind == tokIdent && toks[el[0]].text == name {
			return true
		}
	}
	return false
}
