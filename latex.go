package ocrserver

import (
	"fmt"
	"strconv"
	"unicode"
)

// ============================================================
// Symbolic Parser — LaTeX string to Expr
// ============================================================

// ParseError reports input the symbolic grammar cannot interpret.
// It is recoverable: the dispatcher falls back to the token walker.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("latex parse: %s at offset %d", e.Msg, e.Pos)
}

// maxParseDepth bounds recursion for both parsers and the token
// walker. The grammar itself imposes no limit, so adversarially
// nested input must be cut off before the stack is.
const maxParseDepth = 64

// Function vocabulary: LaTeX macro name to canonical function name.
// Process-wide and read-only after init.
var latexFunctions = map[string]string{
	"sin":    "sin",
	"cos":    "cos",
	"tan":    "tan",
	"cot":    "cot",
	"sec":    "sec",
	"csc":    "csc",
	"arcsin": "asin",
	"arccos": "acos",
	"arctan": "atan",
	"sinh":   "sinh",
	"cosh":   "cosh",
	"tanh":   "tanh",
	"coth":   "coth",
	"exp":    "exp",
	"ln":     "ln",
	"log":    "log",
}

// Macros parsed as plain symbols.
var latexSymbols = map[string]bool{
	"pi": true, "alpha": true, "beta": true, "gamma": true, "delta": true,
	"epsilon": true, "zeta": true, "eta": true, "theta": true, "iota": true,
	"kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"rho": true, "sigma": true, "tau": true, "phi": true, "chi": true,
	"psi": true, "omega": true,
}

// ParseLaTeX parses a LaTeX math expression into a semantic tree.
// All-or-nothing: anything the grammar does not recognize fails with
// *ParseError and leaves fallback handling to the caller.
func ParseLaTeX(s string) (Expr, error) {
	p := &latexParser{src: []rune(s)}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errf("unexpected %q", p.src[p.pos])
	}
	return e, nil
}

type latexParser struct {
	src   []rune
	pos   int
	depth int
}

func (p *latexParser) errf(format string, args ...interface{}) error {
	return &ParseError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *latexParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *latexParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *latexParser) enter() error {
	p.depth++
	if p.depth > maxParseDepth {
		return p.errf("expression nesting exceeds %d levels", maxParseDepth)
	}
	return nil
}

func (p *latexParser) leave() { p.depth-- }

// macroName reads the control-sequence name after a backslash.
func (p *latexParser) macroName() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errf("empty control sequence")
	}
	return string(p.src[start:p.pos]), nil
}

// parseExpr handles the additive level: term (('+'|'-') term)*.
// Subtraction lowers to Add(a, Mul(-1, b)).
func (p *latexParser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case '-':
			p.pos++
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, NewMul(N(-1), t))
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return NewAdd(terms...), nil
		}
	}
}

// parseTerm handles the multiplicative level, including implicit
// multiplication by juxtaposition ("2x", "x y", "2\sin(x)") and the
// division lowering a/b -> Mul(a, Pow(b, -1)).
func (p *latexParser) parseTerm() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{first}
	for {
		p.skipSpace()
		switch {
		case p.peek() == '*':
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case p.peek() == '/':
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, NewPow(f, N(-1)))
		case p.atMacro("cdot") || p.atMacro("times"):
			p.pos++ // backslash
			if _, err := p.macroName(); err != nil {
				return nil, err
			}
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case p.atFactorStart():
			f, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return NewMul(factors...), nil
		}
	}
}

// atMacro reports whether the input at the cursor is the given
// control sequence, without consuming it.
func (p *latexParser) atMacro(name string) bool {
	if p.peek() != '\\' {
		return false
	}
	i := p.pos + 1
	for _, r := range name {
		if i >= len(p.src) || p.src[i] != r {
			return false
		}
		i++
	}
	// The name must end here, not be a prefix of a longer one.
	return i >= len(p.src) || !unicode.IsLetter(p.src[i])
}

// atFactorStart reports whether the cursor begins a new factor, which
// makes the preceding factor an implicit multiplication.
func (p *latexParser) atFactorStart() bool {
	c := p.peek()
	switch {
	case c == '(' || c == '{':
		return true
	case unicode.IsDigit(c) || c == '.':
		return true
	case unicode.IsLetter(c):
		return true
	case c == '\\':
		// Operators and closing delimiters never start a factor.
		return !p.atMacro("cdot") && !p.atMacro("times") && !p.atMacro("right")
	}
	return false
}

func (p *latexParser) parseUnary() (Expr, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewMul(N(-1), e), nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePostfix()
}

// parsePostfix attaches exponents: primary ('^' exponent)*.
func (p *latexParser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '^' {
			return e, nil
		}
		p.pos++
		exp, err := p.parseExpArg()
		if err != nil {
			return nil, err
		}
		e = NewPow(e, exp)
	}
}

// parseExpArg parses an exponent: a braced expression or one token,
// matching TeX superscript scoping (x^23 is x^2 * 3).
func (p *latexParser) parseExpArg() (Expr, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == '{':
		return p.parseBraced()
	case c == '-':
		p.pos++
		e, err := p.parseExpArg()
		if err != nil {
			return nil, err
		}
		return NewMul(N(-1), e), nil
	case unicode.IsDigit(c):
		p.pos++
		return N(float64(c - '0')), nil
	case unicode.IsLetter(c):
		p.pos++
		return S(string(c)), nil
	case c == '\\':
		return p.parsePrimary()
	}
	return nil, p.errf("expected exponent")
}

func (p *latexParser) parseBraced() (Expr, error) {
	p.skipSpace()
	if p.peek() != '{' {
		return nil, p.errf("expected '{'")
	}
	p.pos++
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != '}' {
		return nil, p.errf("expected '}'")
	}
	p.pos++
	return e, nil
}

func (p *latexParser) parsePrimary() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errf("unexpected end of input")

	case unicode.IsDigit(c) || c == '.':
		return p.parseNumber()

	case unicode.IsLetter(c):
		// Single-letter symbol; letter runs are juxtaposition and
		// handled one factor at a time by parseTerm.
		p.pos++
		return S(string(c)), nil

	case c == '(':
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errf("expected ')'")
		}
		p.pos++
		return e, nil

	case c == '{':
		return p.parseBraced()

	case c == '\\':
		p.pos++
		name, err := p.macroName()
		if err != nil {
			return nil, err
		}
		return p.parseMacro(name)
	}
	return nil, p.errf("unexpected %q", c)
}

func (p *latexParser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.peek() == '.' {
		p.pos++
		for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	text := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errf("malformed number %q", text)
	}
	return N(v), nil
}

func (p *latexParser) parseMacro(name string) (Expr, error) {
	switch {
	case name == "frac" || name == "cfrac" || name == "dfrac":
		num, err := p.parseBraced()
		if err != nil {
			return nil, err
		}
		den, err := p.parseBraced()
		if err != nil {
			return nil, err
		}
		return NewMul(num, NewPow(den, N(-1))), nil

	case name == "sqrt":
		p.skipSpace()
		var exp Expr = N(0.5)
		if p.peek() == '[' {
			p.pos++
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if p.peek() != ']' {
				return nil, p.errf("expected ']'")
			}
			p.pos++
			exp = NewPow(n, N(-1))
		}
		arg, err := p.parseBraced()
		if err != nil {
			return nil, err
		}
		return NewPow(arg, exp), nil

	case name == "left":
		p.skipSpace()
		open := p.peek()
		if open != '(' && open != '[' {
			return nil, p.errf(`unsupported \left delimiter`)
		}
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.atMacro("right") {
			return nil, p.errf(`expected \right`)
		}
		p.pos++
		if _, err := p.macroName(); err != nil {
			return nil, err
		}
		closing := p.peek()
		if (open == '(' && closing != ')') || (open == '[' && closing != ']') {
			return nil, p.errf(`mismatched \right delimiter`)
		}
		p.pos++
		return e, nil

	case latexSymbols[name]:
		return S(name), nil

	case latexFunctions[name] != "":
		arg, err := p.parseFuncArg()
		if err != nil {
			return nil, err
		}
		return NewFunc(latexFunctions[name], arg), nil
	}
	return nil, p.errf("unsupported macro \\%s", name)
}

// parseFuncArg parses the argument of a function macro: a
// parenthesized expression, a braced group, or one tightly bound
// factor (\sin x^2 means sin(x^2)).
func (p *latexParser) parseFuncArg() (Expr, error) {
	p.skipSpace()
	switch {
	case p.peek() == '(':
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errf("expected ')'")
		}
		p.pos++
		return e, nil
	case p.peek() == '{':
		return p.parseBraced()
	case p.atMacro("left"):
		p.pos++
		name, err := p.macroName()
		if err != nil {
			return nil, err
		}
		return p.parseMacro(name)
	}
	return p.parsePostfix()
}
