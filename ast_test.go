package ocrserver_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	ocrserver "github.com/TDE144/ocr-server"
)

// ============================================================
// Normalizer tests
// ============================================================

func TestSemanticAST_OrderPreserved(t *testing.T) {
	// Add is commutative mathematically, but the AST keeps the
	// argument order the parse produced.
	expr, err := ocrserver.ParseLaTeX(`b+a`)
	if err != nil {
		t.Fatal(err)
	}
	node := ocrserver.SemanticAST(expr)
	want := &ocrserver.SemNode{
		Type: "add",
		Args: []*ocrserver.SemNode{
			{Type: "symbol", Name: "b"},
			{Type: "symbol", Name: "a"},
		},
	}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Errorf("AST mismatch:\n%s", diff)
	}
}

func TestSemanticAST_PowAsymmetry(t *testing.T) {
	// Pow gets explicit base/exp fields, not an args list.
	node := ocrserver.SemanticAST(ocrserver.NewPow(ocrserver.S("x"), ocrserver.N(2)))
	if node.Type != "pow" || node.Base == nil || node.Exp == nil || node.Args != nil {
		t.Errorf("pow shape wrong: %+v", node)
	}
	if node.Base.Name != "x" || node.Exp.Value == nil || *node.Exp.Value != 2 {
		t.Errorf("pow fields wrong: %+v", node)
	}
}

func TestSemanticAST_Func(t *testing.T) {
	node := ocrserver.SemanticAST(ocrserver.NewFunc("sin", ocrserver.S("x")))
	want := &ocrserver.SemNode{
		Type: "func",
		Name: "sin",
		Args: []*ocrserver.SemNode{{Type: "symbol", Name: "x"}},
	}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Errorf("AST mismatch:\n%s", diff)
	}
}

func TestSemanticAST_Unknown(t *testing.T) {
	node := ocrserver.SemanticAST(ocrserver.NewUnknown(`\oint f`))
	if node.Type != "unknown" || node.Repr != `\oint f` {
		t.Errorf("unknown shape wrong: %+v", node)
	}
	if node.Args != nil || node.Base != nil {
		t.Error("unknown nodes must stay opaque")
	}
}

func TestSemanticAST_NumberValue(t *testing.T) {
	node := ocrserver.SemanticAST(ocrserver.N(5.0))
	if node.Type != "number" || node.Value == nil || *node.Value != 5.0 {
		t.Errorf("number shape wrong: %+v", node)
	}
	data, err := json.Marshal(node)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"value":5`) {
		t.Errorf("number JSON should carry the value, got %s", data)
	}
}

func TestSyntacticAST_Shape(t *testing.T) {
	nodes, err := ocrserver.WalkTokens(`\frac{a}{b}`)
	if err != nil {
		t.Fatal(err)
	}
	root := ocrserver.SyntacticAST(nodes)
	want := &ocrserver.SynRoot{
		Type: "latex_token_ast",
		Children: []*ocrserver.SynNode{
			{
				Type: "macro",
				Name: `\frac`,
				Args: []*ocrserver.SynNode{
					{Type: "char", Value: "a"},
					{Type: "char", Value: "b"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("AST mismatch:\n%s", diff)
	}
}

func TestSyntacticAST_MathAndGroup(t *testing.T) {
	nodes, err := ocrserver.WalkTokens(`$x$ {y}`)
	if err != nil {
		t.Fatal(err)
	}
	root := ocrserver.SyntacticAST(nodes)
	want := &ocrserver.SynRoot{
		Type: "latex_token_ast",
		Children: []*ocrserver.SynNode{
			{Type: "math", Children: []*ocrserver.SynNode{{Type: "char", Value: "x"}}},
			{Type: "group", Children: []*ocrserver.SynNode{{Type: "char", Value: "y"}}},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("AST mismatch:\n%s", diff)
	}
}
