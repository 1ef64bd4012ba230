package ocrserver_test

import (
	"strings"
	"testing"

	ocrserver "github.com/TDE144/ocr-server"
)

// ============================================================
// Symbolic parser tests
// ============================================================

func TestParseLaTeX(t *testing.T) {
	tests := []struct {
		input string
		want  ocrserver.Expr
	}{
		{
			input: `1+2`,
			want:  ocrserver.NewAdd(ocrserver.N(1), ocrserver.N(2)),
		},
		{
			input: `2x`,
			want:  ocrserver.NewMul(ocrserver.N(2), ocrserver.S("x")),
		},
		{
			input: `a b`,
			want:  ocrserver.NewMul(ocrserver.S("a"), ocrserver.S("b")),
		},
		{
			input: `x^2`,
			want:  ocrserver.NewPow(ocrserver.S("x"), ocrserver.N(2)),
		},
		{
			input: `x^{n+1}`,
			want:  ocrserver.NewPow(ocrserver.S("x"), ocrserver.NewAdd(ocrserver.S("n"), ocrserver.N(1))),
		},
		{
			// TeX superscripts bind one token: x^23 is (x^2)*3.
			input: `x^23`,
			want: ocrserver.NewMul(
				ocrserver.NewPow(ocrserver.S("x"), ocrserver.N(2)),
				ocrserver.N(3),
			),
		},
		{
			input: `a-b`,
			want: ocrserver.NewAdd(
				ocrserver.S("a"),
				ocrserver.NewMul(ocrserver.N(-1), ocrserver.S("b")),
			),
		},
		{
			input: `a/b`,
			want: ocrserver.NewMul(
				ocrserver.S("a"),
				ocrserver.NewPow(ocrserver.S("b"), ocrserver.N(-1)),
			),
		},
		{
			input: `\frac{1}{2}`,
			want: ocrserver.NewMul(
				ocrserver.N(1),
				ocrserver.NewPow(ocrserver.N(2), ocrserver.N(-1)),
			),
		},
		{
			input: `\frac{a+b}{c+d}`,
			want: ocrserver.NewMul(
				ocrserver.NewAdd(ocrserver.S("a"), ocrserver.S("b")),
				ocrserver.NewPow(ocrserver.NewAdd(ocrserver.S("c"), ocrserver.S("d")), ocrserver.N(-1)),
			),
		},
		{
			input: `\sqrt{x}`,
			want:  ocrserver.NewPow(ocrserver.S("x"), ocrserver.N(0.5)),
		},
		{
			input: `\sqrt[3]{x}`,
			want: ocrserver.NewPow(
				ocrserver.S("x"),
				ocrserver.NewPow(ocrserver.N(3), ocrserver.N(-1)),
			),
		},
		{
			input: `\sin(x)`,
			want:  ocrserver.NewFunc("sin", ocrserver.S("x")),
		},
		{
			input: `\sin x^2`,
			want:  ocrserver.NewFunc("sin", ocrserver.NewPow(ocrserver.S("x"), ocrserver.N(2))),
		},
		{
			input: `\arctan(y)`,
			want:  ocrserver.NewFunc("atan", ocrserver.S("y")),
		},
		{
			input: `2 \cdot 3`,
			want:  ocrserver.NewMul(ocrserver.N(2), ocrserver.N(3)),
		},
		{
			input: `\pi r^2`,
			want: ocrserver.NewMul(
				ocrserver.S("pi"),
				ocrserver.NewPow(ocrserver.S("r"), ocrserver.N(2)),
			),
		},
		{
			input: `-x`,
			want:  ocrserver.NewMul(ocrserver.N(-1), ocrserver.S("x")),
		},
		{
			input: `\left( a+b \right) c`,
			want: ocrserver.NewMul(
				ocrserver.NewAdd(ocrserver.S("a"), ocrserver.S("b")),
				ocrserver.S("c"),
			),
		},
		{
			input: `3.14`,
			want:  ocrserver.N(3.14),
		},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ocrserver.ParseLaTeX(test.input)
			if err != nil {
				t.Fatalf("ParseLaTeX(%q): %v", test.input, err)
			}
			if !got.Equal(test.want) {
				t.Errorf("ParseLaTeX(%q) = %s, want %s", test.input, got.String(), test.want.String())
			}
		})
	}
}

func TestParseLaTeX_Rejects(t *testing.T) {
	inputs := []string{
		``,
		`1+`,
		`\mathbb{R}`,
		`\frac{1}{2`,
		`(a+b`,
		`a+b)`,
		`x = y`,
		`$1+2$`,
		`\sin^2(x)`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, err := ocrserver.ParseLaTeX(input); err == nil {
				t.Errorf("ParseLaTeX(%q) should fail", input)
			}
		})
	}
}

func TestParseLaTeX_NoPartialResults(t *testing.T) {
	e, err := ocrserver.ParseLaTeX(`1+2 \oops`)
	if err == nil {
		t.Fatalf("trailing unsupported macro should fail, got %s", e.String())
	}
	if e != nil {
		t.Error("failed parse must not return a partial tree")
	}
}

func TestParseLaTeX_DepthGuard(t *testing.T) {
	deep := strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200)
	if _, err := ocrserver.ParseLaTeX(deep); err == nil {
		t.Error("deeply nested input should be cut off")
	}
}
