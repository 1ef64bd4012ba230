package ocrserver

import (
	"fmt"
	"unicode"
)

// ============================================================
// Token Walker — syntactic fallback
// ============================================================

// SyntaxError reports malformed LaTeX group nesting. Unlike
// *ParseError there is no further fallback; the request fails.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("latex syntax: %s at offset %d", e.Msg, e.Pos)
}

// TokenNode is the syntactic token tree. The variant set is closed:
// *MacroNode, *GroupNode, *MathNode, *CharNode.
type TokenNode interface {
	tokenType() string
}

// MacroNode is a control sequence with its arguments. Each braced
// argument's node list is flattened into the one combined Args list;
// argument boundaries are deliberately not preserved.
type MacroNode struct {
	Name string
	Args []TokenNode
}

// GroupNode is a brace-delimited group.
type GroupNode struct {
	Children []TokenNode
}

// MathNode is a math-mode span ($...$ or \(...\)).
type MathNode struct {
	Children []TokenNode
}

// CharNode is one non-whitespace literal character. Whitespace never
// appears in the tree at all.
type CharNode struct {
	Value rune
}

func (*MacroNode) tokenType() string { return "macro" }
func (*GroupNode) tokenType() string { return "group" }
func (*MathNode) tokenType() string  { return "math" }
func (*CharNode) tokenType() string  { return "char" }

// Argument counts for macros whose arguments the walker recovers.
// Everything else is treated as taking none, so a following group
// shows up as a sibling GroupNode. Read-only after init.
var macroArity = map[string]int{
	"frac":  2,
	"cfrac": 2,
	"dfrac": 2,
	"binom": 2,
	"sqrt":  1,
}

// WalkTokens parses s into a generic LaTeX token tree. It never
// consults the symbolic grammar: any input the semantic parser
// rejects still walks fine here, as long as braces balance.
func WalkTokens(s string) ([]TokenNode, error) {
	w := &tokenWalker{src: []rune(s)}
	nodes, err := w.walkList(0)
	if err != nil {
		return nil, err
	}
	if w.pos < len(w.src) {
		return nil, &SyntaxError{Pos: w.pos, Msg: fmt.Sprintf("unexpected %q", w.src[w.pos])}
	}
	return nodes, nil
}

type tokenWalker struct {
	src   []rune
	pos   int
	depth int
}

func (w *tokenWalker) peek() rune {
	if w.pos >= len(w.src) {
		return 0
	}
	return w.src[w.pos]
}

// walkList consumes nodes until the terminator (0 means end of
// input). The terminator itself is left unconsumed.
func (w *tokenWalker) walkList(term rune) ([]TokenNode, error) {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > maxParseDepth {
		return nil, &SyntaxError{Pos: w.pos, Msg: fmt.Sprintf("group nesting exceeds %d levels", maxParseDepth)}
	}

	var nodes []TokenNode
	for w.pos < len(w.src) {
		c := w.src[w.pos]
		switch {
		case c == term:
			return nodes, nil

		case unicode.IsSpace(c):
			w.pos++

		case c == '{':
			w.pos++
			children, err := w.walkList('}')
			if err != nil {
				return nil, err
			}
			if w.peek() != '}' {
				return nil, &SyntaxError{Pos: w.pos, Msg: "unclosed '{'"}
			}
			w.pos++
			nodes = append(nodes, &GroupNode{Children: children})

		case c == '}':
			return nil, &SyntaxError{Pos: w.pos, Msg: "unmatched '}'"}

		case c == '$':
			w.pos++
			children, err := w.walkList('$')
			if err != nil {
				return nil, err
			}
			if w.peek() != '$' {
				return nil, &SyntaxError{Pos: w.pos, Msg: "unclosed '$'"}
			}
			w.pos++
			nodes = append(nodes, &MathNode{Children: children})

		case c == '\\':
			node, err := w.walkMacro(term)
			if err != nil {
				return nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			} else {
				// \) closing a math span: hand control back.
				return nodes, nil
			}

		default:
			nodes = append(nodes, &CharNode{Value: c})
			w.pos++
		}
	}
	switch term {
	case 0:
		return nodes, nil
	case -1:
		return nil, &SyntaxError{Pos: w.pos, Msg: `missing closing \)`}
	}
	return nil, &SyntaxError{Pos: w.pos, Msg: fmt.Sprintf("missing closing %q", term)}
}

// walkMacro consumes a control sequence at the cursor. Returning a
// nil node with nil error signals `\)` seen while inside a `\(` span.
func (w *tokenWalker) walkMacro(term rune) (TokenNode, error) {
	w.pos++ // backslash
	if w.pos >= len(w.src) {
		return nil, &SyntaxError{Pos: w.pos, Msg: "lone backslash at end of input"}
	}

	c := w.src[w.pos]
	if !unicode.IsLetter(c) {
		w.pos++
		switch c {
		case '(':
			children, err := w.walkList(-1)
			if err != nil {
				return nil, err
			}
			return &MathNode{Children: children}, nil
		case ')':
			if term != -1 {
				return nil, &SyntaxError{Pos: w.pos - 2, Msg: `unmatched \)`}
			}
			return nil, nil
		}
		// One-character macro like \, or \\.
		return &MacroNode{Name: `\` + string(c)}, nil
	}

	start := w.pos
	for w.pos < len(w.src) && unicode.IsLetter(w.src[w.pos]) {
		w.pos++
	}
	name := string(w.src[start:w.pos])

	macro := &MacroNode{Name: `\` + name}
	arity := macroArity[name]

	// Optional bracketed argument (\sqrt[3]{x}); its nodes join the
	// same flattened list.
	if arity > 0 && w.peek() == '[' {
		w.pos++
		opt, err := w.walkOptional()
		if err != nil {
			return nil, err
		}
		macro.Args = append(macro.Args, opt...)
	}

	for i := 0; i < arity; i++ {
		w.skipSpace()
		if w.peek() != '{' {
			// Single-token argument form (\frac12) or a truncated
			// call; take one node if there is one, else stop.
			if w.pos >= len(w.src) {
				break
			}
			arg, err := w.walkOne(term)
			if err != nil {
				return nil, err
			}
			if arg != nil {
				macro.Args = append(macro.Args, arg)
			}
			continue
		}
		w.pos++
		children, err := w.walkList('}')
		if err != nil {
			return nil, err
		}
		if w.peek() != '}' {
			return nil, &SyntaxError{Pos: w.pos, Msg: "unclosed '{'"}
		}
		w.pos++
		// Flatten: argument boundaries are not kept.
		macro.Args = append(macro.Args, children...)
	}
	return macro, nil
}

// walkOne consumes exactly one node for a braceless macro argument.
func (w *tokenWalker) walkOne(term rune) (TokenNode, error) {
	c := w.peek()
	switch {
	case c == 0 || c == term || c == '}' || c == ']':
		return nil, nil
	case c == '{':
		w.pos++
		children, err := w.walkList('}')
		if err != nil {
			return nil, err
		}
		if w.peek() != '}' {
			return nil, &SyntaxError{Pos: w.pos, Msg: "unclosed '{'"}
		}
		w.pos++
		return &GroupNode{Children: children}, nil
	case c == '\\':
		return w.walkMacro(term)
	default:
		w.pos++
		return &CharNode{Value: c}, nil
	}
}

// walkOptional consumes nodes up to the closing ']' of an optional
// argument, which has already been opened.
func (w *tokenWalker) walkOptional() ([]TokenNode, error) {
	var nodes []TokenNode
	for w.pos < len(w.src) && w.peek() != ']' {
		n, err := w.walkOne(']')
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		nodes = append(nodes, n)
	}
	if w.peek() != ']' {
		return nil, &SyntaxError{Pos: w.pos, Msg: "unclosed '['"}
	}
	w.pos++
	return nodes, nil
}

func (w *tokenWalker) skipSpace() {
	for w.pos < len(w.src) && unicode.IsSpace(w.src[w.pos]) {
		w.pos++
	}
}
