package ocrserver

// ============================================================
// Step Evaluator
// ============================================================

// EvaluateSteps walks the expression bottom-up and returns the
// ordered textual snapshots of its reduction. The sequence is never
// empty and its last element is the final value. Leaves hold a
// single snapshot; combining nodes align their children's sequences
// by repeating a finished child's last step while longer siblings
// keep reducing, then append one reduced form at the end when
// simplification still changes something.
func EvaluateSteps(e Expr) []string {
	switch v := e.(type) {
	case *Num, *Sym, *Unknown:
		return []string{e.String()}
	case *Add:
		return combineSteps(v.Terms(), func(parts []Expr) Expr { return NewAdd(parts...) })
	case *Mul:
		return combineSteps(v.Factors(), func(parts []Expr) Expr { return NewMul(parts...) })
	case *Func:
		return combineSteps(v.Args(), func(parts []Expr) Expr { return NewFunc(v.FuncName(), parts...) })
	case *Pow:
		return combineSteps([]Expr{v.Base(), v.Exponent()}, func(parts []Expr) Expr {
			return NewPow(parts[0], parts[1])
		})
	}
	return []string{e.String()}
}

// combineSteps realizes the alignment-by-repetition policy for one
// node over its child sequences.
func combineSteps(children []Expr, rebuild func([]Expr) Expr) []string {
	if len(children) == 0 {
		// Degenerate variadic node; report its identity form.
		return []string{rebuild(nil).String()}
	}

	seqs := make([][]string, len(children))
	k := 0
	for i, c := range children {
		seqs[i] = EvaluateSteps(c)
		if len(seqs[i]) > k {
			k = len(seqs[i])
		}
	}

	out := make([]string, 0, k+1)
	var last Expr
	for i := 0; i < k; i++ {
		parts := make([]Expr, len(children))
		for j, seq := range seqs {
			parts[j] = reparseStep(seq[min(i, len(seq)-1)])
		}
		last = rebuild(parts)
		out = append(out, last.String())
	}

	// Best-effort reduction of the final candidate. Failure is
	// absorbed: the unsimplified snapshot already sits in out.
	if reduced := simplifyStep(last); reduced != "" && reduced != out[len(out)-1] {
		out = append(out, reduced)
	}
	return out
}

// reparseStep turns a snapshot back into a tree. A snapshot that no
// longer round-trips degrades to an opaque Unknown instead of
// aborting the evaluation.
func reparseStep(s string) Expr {
	e, err := ParseExpr(s)
	if err != nil {
		return NewUnknown(s)
	}
	return e
}

func simplifyStep(e Expr) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	return e.Simplify().String()
}
