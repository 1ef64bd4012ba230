package ocrserver

// ============================================================
// AST Normalizer
// ============================================================

// SemNode is the JSON shape of a semantic parse. Exactly one of the
// optional field groups is populated, selected by Type: number
// (value), symbol (name), add/mul (args), pow (base, exp), func
// (name, args), unknown (repr).
type SemNode struct {
	Type  string     `json:"type"`
	Value *float64   `json:"value,omitempty"`
	Name  string     `json:"name,omitempty"`
	Args  []*SemNode `json:"args,omitempty"`
	Base  *SemNode   `json:"base,omitempty"`
	Exp   *SemNode   `json:"exp,omitempty"`
	Repr  string     `json:"repr,omitempty"`
}

// SynNode is the JSON shape of one syntactic token-tree node: macro
// (name, args), group (children), math (children), char (value).
type SynNode struct {
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	Args     []*SynNode `json:"args,omitempty"`
	Children []*SynNode `json:"children,omitempty"`
	Value    string     `json:"value,omitempty"`
}

// SynRoot wraps a syntactic parse so the shape is self-describing.
type SynRoot struct {
	Type     string     `json:"type"`
	Children []*SynNode `json:"children"`
}

// SemanticAST maps an expression tree onto the public semantic AST.
// Pure and order-preserving: args come out exactly as parsed.
func SemanticAST(e Expr) *SemNode {
	switch v := e.(type) {
	case *Num:
		val := v.Value()
		return &SemNode{Type: "number", Value: &val}
	case *Sym:
		return &SemNode{Type: "symbol", Name: v.Name()}
	case *Add:
		return &SemNode{Type: "add", Args: semanticList(v.Terms())}
	case *Mul:
		return &SemNode{Type: "mul", Args: semanticList(v.Factors())}
	case *Pow:
		return &SemNode{Type: "pow", Base: SemanticAST(v.Base()), Exp: SemanticAST(v.Exponent())}
	case *Func:
		return &SemNode{Type: "func", Name: v.FuncName(), Args: semanticList(v.Args())}
	case *Unknown:
		return &SemNode{Type: "unknown", Repr: v.Repr()}
	}
	// Unreachable while the variant set stays closed; degrade rather
	// than fail if it ever grows.
	return &SemNode{Type: "unknown", Repr: e.String()}
}

func semanticList(exprs []Expr) []*SemNode {
	out := make([]*SemNode, len(exprs))
	for i, e := range exprs {
		out[i] = SemanticAST(e)
	}
	return out
}

// SyntacticAST maps a token tree onto the public syntactic AST.
func SyntacticAST(nodes []TokenNode) *SynRoot {
	return &SynRoot{Type: "latex_token_ast", Children: syntacticList(nodes)}
}

func syntacticList(nodes []TokenNode) []*SynNode {
	out := make([]*SynNode, len(nodes))
	for i, n := range nodes {
		out[i] = syntacticNode(n)
	}
	return out
}

func syntacticNode(n TokenNode) *SynNode {
	switch v := n.(type) {
	case *MacroNode:
		return &SynNode{Type: "macro", Name: v.Name, Args: syntacticList(v.Args)}
	case *GroupNode:
		return &SynNode{Type: "group", Children: syntacticList(v.Children)}
	case *MathNode:
		return &SynNode{Type: "math", Children: syntacticList(v.Children)}
	case *CharNode:
		return &SynNode{Type: "char", Value: string(v.Value)}
	}
	return &SynNode{Type: "char"}
}
