// Package pyast analyzes Python source with the tree-sitter Python grammar:
// per-function cyclomatic complexity and bare string-literal statements.
package pyast

import (
	"errors"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Analyzer is safe for concurrent use; every call gets its own parser.
type Analyzer struct {
	lang *tree_sitter.Language
}

func New() *Analyzer {
	return &Analyzer{lang: tree_sitter.NewLanguage(tree_sitter_python.Language())}
}

// parse returns a syntax tree for f, or a *domain.ParseError positioned at
// the first error or missing node. The caller closes the tree.
func (a *Analyzer) parse(f domain.UploadedFile) (*tree_sitter.Tree, []byte, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return nil, nil, err
	}

	src := []byte(f.Content)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, nil, errors.New("python parser returned no tree")
	}

	root := tree.RootNode()
	if root.HasError() {
		pe := &domain.ParseError{File: f.Name, Line: 1, Column: 1}
		if n := firstError(root); n != nil {
			pos := n.StartPosition()
			pe.Line = int(pos.Row) + 1
			pe.Column = int(pos.Column) + 1
		}
		tree.Close()
		return nil, nil, pe
	}
	// the grammar still accepts Python 2 print/exec statements
	if n := firstLegacy(root); n != nil {
		pos := n.StartPosition()
		tree.Close()
		return nil, nil, &domain.ParseError{File: f.Name, Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
	}
	return tree, src, nil
}

var legacyStatements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

func firstLegacy(node *tree_sitter.Node) *tree_sitter.Node {
	if legacyStatements[node.Kind()] {
		return node
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			if n := firstLegacy(child); n != nil {
				return n
			}
		}
	}
	return nil
}

func firstError(node *tree_sitter.Node) *tree_sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if n := firstError(child); n != nil {
			return n
		}
	}
	return nil
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}
