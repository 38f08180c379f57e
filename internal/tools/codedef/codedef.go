// Package codedef extracts named code definitions from source files using
// tree-sitter grammars. Go and Python sources are supported.
package codedef

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"domark/internal/logging"
)

// Definition is a named top-level symbol in a source file.
type Definition struct {
	Name      string
	Kind      string // function, method, struct, interface, type, class
	StartLine int    // 1-based, inclusive
	EndLine   int    // 1-based, inclusive
	Signature string
}

// SupportedFile reports whether the file extension maps to a grammar.
func SupportedFile(path string) bool {
	switch filepath.Ext(path) {
	case ".go", ".py":
		return true
	}
	return false
}

// Extract parses the file content and returns its definitions in source
// order.
func Extract(ctx context.Context, path string, content []byte) ([]Definition, error) {
	var lang *sitter.Language
	switch filepath.Ext(path) {
	case ".go":
		lang = golang.GetLanguage()
	case ".py":
		lang = python.GetLanguage()
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	defer tree.Close()

	var defs []Definition
	switch filepath.Ext(path) {
	case ".go":
		defs = extractGo(tree.RootNode(), content)
	case ".py":
		defs = extractPython(tree.RootNode(), content)
	}
	logging.ToolsDebug("codedef: %s yielded %d definitions", filepath.Base(path), len(defs))
	return defs, nil
}

func nodeDef(n *sitter.Node, name, kind, signature string) Definition {
	return Definition{
		Name:      name,
		Kind:      kind,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Signature: signature,
	}
}

func extractGo(root *sitter.Node, content []byte) []Definition {
	var defs []Definition
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := getText(nameNode)
				sig := "func " + name
				if params := n.ChildByFieldName("parameters"); params != nil {
					sig += getText(params)
				}
				if result := n.ChildByFieldName("result"); result != nil {
					sig += " " + getText(result)
				}
				defs = append(defs, nodeDef(n, name, "function", sig))
			}

		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			receiverNode := n.ChildByFieldName("receiver")
			if nameNode != nil && receiverNode != nil {
				name := getText(nameNode)
				sig := "func " + getText(receiverNode) + " " + name
				if params := n.ChildByFieldName("parameters"); params != nil {
					sig += getText(params)
				}
				if result := n.ChildByFieldName("result"); result != nil {
					sig += " " + getText(result)
				}
				defs = append(defs, nodeDef(n, name, "method", sig))
			}

		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				kind := "type"
				if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
					switch typeNode.Type() {
					case "struct_type":
						kind = "struct"
					case "interface_type":
						kind = "interface"
					}
				}
				defs = append(defs, nodeDef(n, name, kind, "type "+name))
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return defs
}

func extractPython(root *sitter.Node, content []byte) []Definition {
	var defs []Definition
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				defs = append(defs, nodeDef(n, name, "class", "class "+name))
			}
		case "function_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				sig := "def " + name
				if params := n.ChildByFieldName("parameters"); params != nil {
					sig += getText(params)
				}
				defs = append(defs, nodeDef(n, name, "function", sig))
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return defs
}

// FormatDefinitions renders definitions one per line.
func FormatDefinitions(defs []Definition) string {
	var b strings.Builder
	for _, d := range defs {
		fmt.Fprintf(&b, "%d-%d | %s | %s\n", d.StartLine, d.EndLine, d.Kind, d.Signature)
	}
	return strings.TrimRight(b.String(), "\n")
}
