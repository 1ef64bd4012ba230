package ocrserver_test

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	ocrserver "github.com/TDE144/ocr-server"
)

// ============================================================
// Dispatcher tests
// ============================================================

func fptr(v float64) *float64 { return &v }

func TestProcess_Semantic(t *testing.T) {
	res, err := ocrserver.Process(`1+2`, ocrserver.AllSteps)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ocrserver.ModeSemantic {
		t.Fatalf("want semantic mode, got %s", res.Mode)
	}
	wantAST := &ocrserver.SemNode{
		Type: "add",
		Args: []*ocrserver.SemNode{
			{Type: "number", Value: fptr(1)},
			{Type: "number", Value: fptr(2)},
		},
	}
	if diff := cmp.Diff(wantAST, res.AST); diff != "" {
		t.Errorf("AST mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1 + 2", "3"}, res.Steps); diff != "" {
		t.Errorf("steps mismatch:\n%s", diff)
	}
	if res.FinalResult != "3" {
		t.Errorf("want final_result 3, got %s", res.FinalResult)
	}
	if res.Error != "" {
		t.Errorf("semantic mode should carry no error, got %q", res.Error)
	}
}

func TestProcess_Irreducible(t *testing.T) {
	res, err := ocrserver.Process(`\sin(x)`, ocrserver.AllSteps)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ocrserver.ModeSemantic {
		t.Fatalf("want semantic mode, got %s", res.Mode)
	}
	if diff := cmp.Diff([]string{"sin(x)"}, res.Steps); diff != "" {
		t.Errorf("steps mismatch:\n%s", diff)
	}
	if res.FinalResult != "sin(x)" {
		t.Errorf("want final_result sin(x), got %s", res.FinalResult)
	}
	if res.LaTeX != `\sin\left(x\right)` {
		t.Errorf("unexpected latex rendering %q", res.LaTeX)
	}
}

func TestProcess_Truncation(t *testing.T) {
	full, err := ocrserver.Process(`((2^2)^2)^2+1`, ocrserver.AllSteps)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Steps) != 5 {
		t.Fatalf("expected 5 full steps, got %v", full.Steps)
	}

	res, err := ocrserver.Process(`((2^2)^2)^2+1`, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("expected 2 reported steps, got %v", res.Steps)
	}
	if diff := cmp.Diff(full.Steps[:2], res.Steps); diff != "" {
		t.Errorf("truncated steps mismatch:\n%s", diff)
	}
	if res.FinalResult != "257" {
		t.Errorf("final_result must be the true last step, got %s", res.FinalResult)
	}
}

func TestProcess_NoSteps(t *testing.T) {
	res, err := ocrserver.Process(`1+2`, ocrserver.NoSteps)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Steps) != 0 {
		t.Errorf("NoSteps should suppress the sequence, got %v", res.Steps)
	}
	if res.FinalResult != "3" {
		t.Errorf("final_result must still be computed, got %s", res.FinalResult)
	}
}

func TestProcess_SyntacticFallback(t *testing.T) {
	input := `\mathbb{R} \subseteq \mathbb{C}`
	res, err := ocrserver.Process(input, ocrserver.AllSteps)
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ocrserver.ModeSyntactic {
		t.Fatalf("want syntactic mode, got %s", res.Mode)
	}
	root, ok := res.AST.(*ocrserver.SynRoot)
	if !ok {
		t.Fatalf("want *SynRoot AST, got %T", res.AST)
	}
	if root.Type != "latex_token_ast" {
		t.Errorf("want latex_token_ast root, got %s", root.Type)
	}
	if len(res.Steps) != 0 {
		t.Errorf("syntactic mode must report no steps, got %v", res.Steps)
	}
	if res.FinalResult != input {
		t.Errorf("syntactic final_result must echo the input, got %q", res.FinalResult)
	}
	if res.Error == "" {
		t.Error("syntactic mode should record why the semantic parse failed")
	}
}

func TestProcess_UnbalancedBraces(t *testing.T) {
	_, err := ocrserver.Process(`\frac{1}{2`, ocrserver.AllSteps)
	if err == nil {
		t.Fatal("unbalanced braces must be a hard error")
	}
	var syntaxErr *ocrserver.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("want *SyntaxError, got %T", err)
	}
}

func TestProcess_JSONShape(t *testing.T) {
	res, err := ocrserver.Process(`1+2`, ocrserver.AllSteps)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"mode":"semantic"`,
		`"type":"add"`,
		`"final_result":"3"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s should contain %s", s, want)
		}
	}
}

func TestProcess_NumberRoundTrip(t *testing.T) {
	res, err := ocrserver.Process(`5`, ocrserver.NoSteps)
	if err != nil {
		t.Fatal(err)
	}
	node, ok := res.AST.(*ocrserver.SemNode)
	if !ok {
		t.Fatalf("want *SemNode AST, got %T", res.AST)
	}
	if node.Type != "number" || node.Value == nil || *node.Value != 5.0 {
		t.Errorf("normalizing 5 should yield a number node with value 5, got %+v", node)
	}
}

func TestProcess_Concurrent(t *testing.T) {
	// The core is pure: parallel calls must not interfere.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res, err := ocrserver.Process(`\sin(2^3) + 1`, ocrserver.AllSteps)
				if err != nil {
					t.Error(err)
					return
				}
				if res.Mode != ocrserver.ModeSemantic || len(res.Steps) == 0 {
					t.Error("unexpected result under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}
