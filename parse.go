package ocrserver

import (
	"fmt"
	"strconv"
	"unicode"
)

// ============================================================
// Plain-text expression parser
// ============================================================

// ParseExpr parses the plain form produced by Expr.String. The step
// evaluator re-parses every intermediate snapshot through here, so
// this grammar and String must stay inverse to each other (the round
// trip is covered by tests, not assumed).
func ParseExpr(s string) (Expr, error) {
	p := &textParser{src: []rune(s)}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", s, p.src[p.pos], p.pos)
	}
	return e, nil
}

type textParser struct {
	src   []rune
	pos   int
	depth int
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *textParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *textParser) enter() error {
	p.depth++
	if p.depth > maxParseDepth {
		return fmt.Errorf("parse: expression nesting exceeds %d levels", maxParseDepth)
	}
	return nil
}

func (p *textParser) leave() { p.depth-- }

func (p *textParser) parseSum() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	first, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case '-':
			p.pos++
			t, err := p.parseProduct()
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

func (p *textParser) parseProduct() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{first}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case '/':
			p.pos++
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, NewPow(f, N(-1)))
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return NewMul(factors...), nil
		}
	}
}

func (p *textParser) parseUnary() (Expr, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if n, ok := e.(*Num); ok {
			return N(-n.val), nil
		}
		return NewMul(N(-1), e), nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *textParser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	// Right-associative, matching how String parenthesizes.
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return NewPow(base, exp), nil
}

func (p *textParser) parseAtom() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, fmt.Errorf("parse: unexpected end of input")

	case unicode.IsDigit(c) || c == '.':
		return p.parseNumber()

	case unicode.IsLetter(c) || c == '_':
		name := p.parseIdent()
		p.skipSpace()
		if p.peek() != '(' {
			return S(name), nil
		}
		p.pos++
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return NewFunc(name, args...), nil

	case c == '(':
		p.pos++
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("parse: expected ')' at offset %d", p.pos)
		}
		p.pos++
		return e, nil
	}
	return nil, fmt.Errorf("parse: unexpected %q at offset %d", c, p.pos)
}

func (p *textParser) parseArgs() ([]Expr, error) {
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return nil, nil
	}
	var args []Expr
	for {
		a, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("parse: expected ',' or ')' at offset %d", p.pos)
		}
	}
}

func (p *textParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *textParser) parseNumber() (Expr, error) {
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
	// strconv's 'g' format emits exponent notation for very large or
	// very small magnitudes; accept it back.
	if c := p.peek(); c == 'e' || c == 'E' {
		mark := p.pos
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
			for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
				p.pos++
			}
		} else {
			p.pos = mark
		}
	}
	text := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("parse: malformed number %q", text)
	}
	return N(v), nil
}
