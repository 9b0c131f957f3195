package pyast

import (
	"strconv"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Comments returns the value of every expression statement consisting of a
// single str literal, in source order. Bytes and f-string statements are
// not str literals and are skipped. Real # comments are not part of the
// statement tree and are never returned.
func (a *Analyzer) Comments(f domain.UploadedFile) ([]string, error) {
	tree, src, err := a.parse(f)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	out := []string{}

	var walk func(node *tree_sitter.Node)
	walk = func(node *tree_sitter.Node) {
		if node.Kind() == "expression_statement" {
			if kids := namedChildren(node); len(kids) == 1 {
				if v, ok := stringValue(unparen(kids[0]), src); ok {
					out = append(out, v)
				}
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(tree.RootNode())
	return out, nil
}

// unparen strips redundant parentheses, which the Python AST drops.
func unparen(node *tree_sitter.Node) *tree_sitter.Node {
	for node.Kind() == "parenthesized_expression" {
		kids := namedChildren(node)
		if len(kids) != 1 {
			return node
		}
		node = kids[0]
	}
	return node
}

// stringValue decodes a string or concatenated_string node holding a plain
// str literal.
func stringValue(node *tree_sitter.Node, src []byte) (string, bool) {
	switch node.Kind() {
	case "string":
		return decodeLiteral(node.Utf8Text(src))
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(node) {
			if part.Kind() != "string" {
				return "", false
			}
			v, ok := decodeLiteral(part.Utf8Text(src))
			if !ok {
				return "", false
			}
			b.WriteString(v)
		}
		return b.String(), true
	}
	return "", false
}

// decodeLiteral turns the source text of one Python string literal into
// its value. It reports false for bytes and f-strings.
func decodeLiteral(text string) (string, bool) {
	i := 0
	raw := false
	for i < len(text) && strings.ContainsRune("rRbBuUfFtT", rune(text[i])) {
		switch text[i] {
		case 'b', 'B', 'f', 'F', 't', 'T':
			return "", false
		case 'r', 'R':
			raw = true
		}
		i++
	}
	rest := text[i:]

	var quote string
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(rest, q) && strings.HasSuffix(rest, q) && len(rest) >= 2*len(q) {
			quote = q
			break
		}
	}
	if quote == "" {
		return "", false
	}
	body := rest[len(quote) : len(rest)-len(quote)]
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if raw {
		return body, true
	}
	return unescape(body), true
}

// unescape applies Python str escape sequences. Unknown escapes keep their
// backslash, as Python does.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			width := 2
			switch e {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if i+1+width <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
					b.WriteRune(rune(v))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}
