// Package ocrserver parses LaTeX math expressions into structured
// ASTs and, when the input parses semantically, traces its stepwise
// numeric reduction.
//
// Two parsers cooperate: a symbolic parser that accepts only valid
// mathematical expressions, and a token walker that accepts any
// well-formed LaTeX as a universal fallback. Process ties them
// together and is the one entry point callers need. The LaTeX input
// typically comes from an external formula recognizer (see
// Recognizer); any string, however malformed, is legal input here.
package ocrserver

// Result modes.
const (
	ModeSemantic  = "semantic"
	ModeSyntactic = "syntactic"
)

// Step-count requests for Process.
const (
	AllSteps = -1
	NoSteps  = 0
)

// Result is the discriminated outcome of one Process call. Mode
// tells the caller which AST shape it received: semantic results
// carry a *SemNode, syntactic results a *SynRoot.
type Result struct {
	Mode        string   `json:"mode"`
	AST         any      `json:"ast"`
	LaTeX       string   `json:"latex,omitempty"`
	Steps       []string `json:"steps"`
	FinalResult string   `json:"final_result"`
	Error       string   `json:"error,omitempty"`
}

// Process parses latex and, in semantic mode, evaluates it stepwise.
//
// maxSteps controls the reported step sequence: AllSteps (or any
// negative value) reports everything, NoSteps suppresses the
// sequence, and a positive n truncates it to the first n entries.
// FinalResult always reflects the true last computed step.
//
// A semantic parse failure is recovered silently by falling back to
// the token walker; in that mode Steps is empty, FinalResult echoes
// the input, and Error records why the semantic parse was rejected.
// The only hard failure is malformed brace nesting, which not even
// the walker can represent.
func Process(latex string, maxSteps int) (*Result, error) {
	expr, perr := ParseLaTeX(latex)
	if perr != nil {
		nodes, serr := WalkTokens(latex)
		if serr != nil {
			return nil, serr
		}
		return &Result{
			Mode:        ModeSyntactic,
			AST:         SyntacticAST(nodes),
			Steps:       []string{},
			FinalResult: latex,
			Error:       perr.Error(),
		}, nil
	}

	steps := EvaluateSteps(expr)
	res := &Result{
		Mode:        ModeSemantic,
		AST:         SemanticAST(expr),
		LaTeX:       expr.LaTeX(),
		Steps:       steps,
		FinalResult: steps[len(steps)-1],
	}
	switch {
	case maxSteps < 0:
		// Report everything.
	case maxSteps == 0:
		res.Steps = []string{}
	case maxSteps < len(steps):
		res.Steps = steps[:maxSteps]
	}
	return res, nil
}
