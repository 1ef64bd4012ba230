package ocrserver

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Expression Core
// ============================================================

// Expr is the semantic expression tree produced by ParseLaTeX.
//
// The variant set is closed: *Num, *Sym, *Add, *Mul, *Pow, *Func and
// *Unknown. The unexported exprType method keeps it closed, so every
// switch over kinds can be exhaustive.
type Expr interface {
	// Simplify returns an equivalent, possibly reduced expression.
	// It never fails; irreducible forms come back unchanged.
	Simplify() Expr
	// String renders the plain-text form. ParseExpr accepts this
	// grammar back; the round trip is relied on by EvaluateSteps.
	String() string
	// LaTeX renders the expression back into LaTeX.
	LaTeX() string
	// Eval computes a numeric value when every leaf is numeric.
	Eval() (float64, bool)
	Equal(other Expr) bool
	exprType() string
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ============================================================
// Num — numeric literal (IEEE double)
// ============================================================

type Num struct{ val float64 }

func N(v float64) *Num { return &Num{val: v} }

func (n *Num) Simplify() Expr { return n }
func (n *Num) String() string { return formatNum(n.val) }
func (n *Num) LaTeX() string { return formatNum(n.val) }
func (n *Num) Eval() (float64, bool) { return n.val, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val == o.val }
func (n *Num) exprType() string { return "number" }
func (n *Num) Value() float64 { return n.val }
func (n *Num) IsZero() bool { return n.val == 0 }
func (n *Num) IsOne() bool { return n.val == 1 }
func (n *Num) IsNegOne() bool { return n.val == -1 }

// ============================================================
// Sym — symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string { return s.name }
func (s *Sym) Eval() (float64, bool) { return 0, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string { return "symbol" }
func (s *Sym) Name() string { return s.name }

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

// NewAdd builds the node as-is, without simplification. Parsers use
// this so that argument order survives into the normalized AST.
func NewAdd(terms ...Expr) *Add { return &Add{terms: terms} }

// AddOf simplifies on construction.
func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	// Fold numeric terms and collect repeated bare symbols, keeping
	// the first-seen order of everything else. Input order is part of
	// the public contract, so no sorting here.
	numAccum := 0.0
	symCoeffs := map[string]float64{}
	symOrder := []string{}
	others := []Expr{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum += v.val
		case *Sym:
			if _, seen := symCoeffs[v.name]; !seen {
				symOrder = append(symOrder, v.name)
			}
			symCoeffs[v.name]++
		default:
			others = append(others, t)
		}
	}
	result := []Expr{}
	for _, name := range symOrder {
		coeff := symCoeffs[name]
		switch coeff {
		case 0:
		case 1:
			result = append(result, S(name))
		default:
			result = append(result, &Mul{factors: []Expr{N(coeff), S(name)}})
		}
	}
	result = append(result, others...)
	if numAccum != 0 {
		result = append(result, N(numAccum))
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) LaTeX() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Eval() (float64, bool) {
	acc := 0.0
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return 0, false
		}
		acc += v
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func NewMul(factors ...Expr) *Mul { return &Mul{factors: factors} }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	coeff := 1.0
	others := []Expr{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff *= v.val
		} else {
			others = append(others, f)
		}
	}
	if coeff == 0 {
		return N(0)
	}
	if len(others) == 0 {
		return N(coeff)
	}
	if coeff == 1 {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{N(coeff)}, others...)}
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return strings.Join(parts, " ")
}

func (m *Mul) Eval() (float64, bool) {
	acc := 1.0
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return 0, false
		}
		acc *= v
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow — strictly binary exponentiation
// ============================================================

type Pow struct{ base, exp Expr }

func NewPow(base, exp Expr) *Pow { return &Pow{base: base, exp: exp} }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			// 0^0 stays indeterminate.
			if bn, ok2 := base.(*Num); ok2 && bn.IsZero() {
				return &Pow{base: base, exp: exp}
			}
			return N(1)
		}
		if en.IsOne() {
			return base
		}
	}
	if bn, ok := base.(*Num); ok {
		if bn.IsOne() {
			return N(1)
		}
		if en, ok2 := exp.(*Num); ok2 {
			v := math.Pow(bn.val, en.val)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return N(v)
			}
			return &Pow{base: base, exp: exp}
		}
	}
	if inner, ok := base.(*Pow); ok {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if strings.HasPrefix(baseStr, "-") {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch p.exp.(type) {
	case *Add, *Mul, *Pow:
		expStr = "(" + expStr + ")"
	case *Num:
		if strings.HasPrefix(expStr, "-") {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Eval() (float64, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return 0, false
	}
	v := math.Pow(b, e)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) Base() Expr { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

// ============================================================
// Func — named function application
// ============================================================

type Func struct {
	name string
	args []Expr
}

func NewFunc(name string, args ...Expr) *Func { return &Func{name: name, args: args} }

func FuncOf(name string, args ...Expr) Expr {
	return (&Func{name: name, args: args}).Simplify()
}

func (f *Func) Simplify() Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Simplify()
	}
	if len(args) == 1 {
		if n, ok := args[0].(*Num); ok {
			if v, ok2 := evalFunc(f.name, n.val); ok2 {
				return N(v)
			}
		}
		switch f.name {
		case "ln", "log":
			if inner, ok := args[0].(*Func); ok && inner.name == "exp" && len(inner.args) == 1 {
				return inner.args[0]
			}
		case "exp":
			if inner, ok := args[0].(*Func); ok && (inner.name == "ln" || inner.name == "log") && len(inner.args) == 1 {
				return inner.args[0]
			}
		}
	}
	return &Func{name: f.name, args: args}
}

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) LaTeX() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.LaTeX()
	}
	inner := strings.Join(parts, ", ")
	switch f.name {
	case "sin", "cos", "tan", "cot", "sec", "csc", "exp", "ln", "log", "sinh", "cosh", "tanh", "coth":
		return "\\" + f.name + "\\left(" + inner + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + inner + "\\right)"
	case "acos":
		return "\\arccos\\left(" + inner + "\\right)"
	case "atan":
		return "\\arctan\\left(" + inner + "\\right)"
	}
	return "\\operatorname{" + f.name + "}\\left(" + inner + "\\right)"
}

func (f *Func) Eval() (float64, bool) {
	if len(f.args) != 1 {
		return 0, false
	}
	v, ok := f.args[0].Eval()
	if !ok {
		return 0, false
	}
	return evalFunc(f.name, v)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	if !ok || f.name != o.name || len(f.args) != len(o.args) {
		return false
	}
	for i := range f.args {
		if !f.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (f *Func) exprType() string { return "func" }
func (f *Func) FuncName() string { return f.name }
func (f *Func) Args() []Expr { return f.args }

func evalFunc(name string, v float64) (float64, bool) {
	var r float64
	switch name {
	case "sin":
		r = math.Sin(v)
	case "cos":
		r = math.Cos(v)
	case "tan":
		r = math.Tan(v)
	case "cot":
		r = 1 / math.Tan(v)
	case "sec":
		r = 1 / math.Cos(v)
	case "csc":
		r = 1 / math.Sin(v)
	case "asin":
		r = math.Asin(v)
	case "acos":
		r = math.Acos(v)
	case "atan":
		r = math.Atan(v)
	case "sinh":
		r = math.Sinh(v)
	case "cosh":
		r = math.Cosh(v)
	case "tanh":
		r = math.Tanh(v)
	case "coth":
		r = 1 / math.Tanh(v)
	case "exp":
		r = math.Exp(v)
	case "ln", "log":
		r = math.Log(v)
	case "sqrt":
		r = math.Sqrt(v)
	case "abs":
		r = math.Abs(v)
	case "floor":
		r = math.Floor(v)
	case "ceil":
		r = math.Ceil(v)
	default:
		return 0, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// ============================================================
// Unknown — opaque display form
// ============================================================

// Unknown carries the textual form of anything outside the other six
// variants. It is never recursed into.
type Unknown struct{ repr string }

func NewUnknown(repr string) *Unknown { return &Unknown{repr: repr} }

func (u *Unknown) Simplify() Expr { return u }
func (u *Unknown) String() string { return u.repr }
func (u *Unknown) LaTeX() string { return u.repr }
func (u *Unknown) Eval() (float64, bool) { return 0, false }
func (u *Unknown) Equal(other Expr) bool {
	o, ok := other.(*Unknown)
	return ok && u.repr == o.repr
}
func (u *Unknown) exprType() string { return "unknown" }
func (u *Unknown) Repr() string { return u.repr }
