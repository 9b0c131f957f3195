package pyast

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// decisionTypes add one path each.
var decisionTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"conditional_expression": true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"except_group_clause":    true,
	"boolean_operator":       true, // and/or; chains nest one node per operator
	"assert_statement":       true,
	"for_in_clause":          true,
	"if_clause":              true,
	"case_clause":            true,
}

// elseParents are statements whose else branch is an extra path.
var elseParents = map[string]bool{
	"for_statement":   true,
	"while_statement": true,
	"try_statement":   true,
}

// Complexity returns one entry per function or method definition at any
// depth, in source order.
func (a *Analyzer) Complexity(f domain.UploadedFile) ([]domain.FunctionComplexity, error) {
	tree, src, err := a.parse(f)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	out := []domain.FunctionComplexity{}

	var walk func(node *tree_sitter.Node, scope []string, class string)
	walk = func(node *tree_sitter.Node, scope []string, class string) {
		switch node.Kind() {
		case "function_definition":
			name := childText(node, "name", src)
			entry := domain.FunctionComplexity{
				Name:       name,
				Qualified:  strings.Join(append(append([]string{}, scope...), name), "."),
				Line:       int(node.StartPosition().Row) + 1,
				EndLine:    int(node.EndPosition().Row) + 1,
				Complexity: functionComplexity(node),
				IsMethod:   class != "",
				ClassName:  class,
			}
			out = append(out, entry)
			scope = append(append([]string{}, scope...), name)
			class = ""
		case "class_definition":
			name := childText(node, "name", src)
			scope = append(append([]string{}, scope...), name)
			class = name
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child != nil {
				walk(child, scope, class)
			}
		}
	}
	walk(tree.RootNode(), nil, "")
	return out, nil
}

// functionComplexity is 1 plus the decision points in the body, excluding
// nested function definitions.
func functionComplexity(fn *tree_sitter.Node) int {
	complexity := 1

	var count func(node *tree_sitter.Node)
	count = func(node *tree_sitter.Node) {
		kind := node.Kind()
		switch {
		case decisionTypes[kind]:
			complexity++
		case kind == "else_clause":
			if p := node.Parent(); p != nil && elseParents[p.Kind()] {
				complexity++
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() == "function_definition" {
				continue
			}
			count(child)
		}
	}

	if body := fn.ChildByFieldName("body"); body != nil {
		count(body)
	}
	return complexity
}

func childText(node *tree_sitter.Node, field string, src []byte) string {
	if n := node.ChildByFieldName(field); n != nil {
		return n.Utf8Text(src)
	}
	return "<anonymous:" + strconv.Itoa(int(node.StartPosition().Row)+1) + ">"
}
