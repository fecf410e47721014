// Package inspect reads TypeScript sources with tree-sitter: the generated
// component script (class name, selector, standalone flag) and host files
// (syntax health before and after patching).
package inspect

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// standaloneRe is the textual fallback when no decorator could be read.
var standaloneRe = regexp.MustCompile(`\bstandalone\s*:\s*true\b`)

// ScriptInfo describes a generated component script.
type ScriptInfo struct {
	ClassName  string
	Selector   string
	Standalone bool
	// Decorated reports whether a @Component decorator object was found.
	Decorated  bool
}

func parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	return parser.ParseCtx(context.Background(), nil, src)
}

// Inspect extracts component metadata from a TypeScript source.
func Inspect(script string) ScriptInfo {
	src := []byte(script)
	tree, err := parse(src)
	if err != nil {
		return ScriptInfo{Standalone: standaloneRe.MatchString(script)}
	}
	defer tree.Close()

	root := tree.RootNode()
	info := ScriptInfo{}
	var exported, first string
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "class_declaration":
			name := n.ChildByFieldName("name")
			if name == nil {
				return
			}
			if first == "" {
				first = name.Content(src)
			}
			if exported == "" && isExported(n) {
				exported = name.Content(src)
			}
		case "decorator":
			if info.Decorated {
				return
			}
			if obj := componentArgument(n, src); obj != nil {
				info.Decorated = true
				readComponentObject(obj, src, &info)
			}
		}
	})

	info.ClassName = exported
	if info.ClassName == "" {
		info.ClassName = first
	}
	if !info.Decorated {
		info.Standalone = standaloneRe.MatchString(script)
	}
	return info
}

// Valid reports whether src parses as TypeScript without error nodes.
func Valid(src string) bool {
	tree, err := parse([]byte(src))
	if err != nil {
		return false
	}
	defer tree.Close()
	return !tree.RootNode().HasError()
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

func isExported(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

// componentArgument returns the object literal passed to @Component(...).
func componentArgument(decorator *sitter.Node, src []byte) *sitter.Node {
	for i := 0; i < int(decorator.NamedChildCount()); i++ {
		call := decorator.NamedChild(i)
		if call.Type() != "call_expression" {
			continue
		}
		fn := call.ChildByFieldName("function")
		if fn == nil {
			continue
		}
		name := fn.Content(src)
		if name != "Component" && !strings.HasSuffix(name, ".Component") {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for j := 0; j < int(args.NamedChildCount()); j++ {
			if arg := args.NamedChild(j); arg.Type() == "object" {
				return arg
			}
		}
	}
	return nil
}

func readComponentObject(obj *sitter.Node, src []byte, info *ScriptInfo) {
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key, value := pair.ChildByFieldName("key"), pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		switch unquote(key.Content(src)) {
		case "standalone":
			info.Standalone = value.Type() == "true"
		case "selector":
			if value.Type() == "string" {
				info.Selector = unquote(value.Content(src))
			}
		}
	}
}

func unquote(s string) string {
	return strings.Trim(s, "'\"`")
}
