package ranking

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"evalconsole/internal/model"
)

// ScoreExpr is a compiled CEL scoring expression over one candidate's
// features, exposed as c.len_chars, c.len_words, c.has_code, c.step_score,
// c.has_bullets and c.has_warning. Programs are safe for concurrent use.
type ScoreExpr struct {
	source string
	prg    cel.Program
}

// CompileScoreExpr compiles expr and checks it yields a number
func CompileScoreExpr(expr string) (*ScoreExpr, error) {
	env, err := cel.NewEnv(
		cel.Variable("c", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	e := &ScoreExpr{source: expr, prg: prg}
	if _, err := e.Score(model.Features{}); err != nil {
		return nil, err
	}
	return e, nil
}

// Source returns the expression text
func (e *ScoreExpr) Source() string { return e.source }

// Score evaluates the expression for one candidate
func (e *ScoreExpr) Score(f model.Features) (float64, error) {
	out, _, err := e.prg.Eval(map[string]interface{}{
		"c": map[string]interface{}{
			"len_chars":   int64(f.LenChars),
			"len_words":   int64(f.LenWords),
			"has_code":    f.HasCode,
			"step_score":  int64(f.StepScore),
			"has_bullets": f.HasBullets,
			"has_warning": f.HasWarning,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("eval error: %v", err)
	}
	return toFloat(out)
}

func toFloat(v ref.Val) (float64, error) {
	switch n := v.Value().(type) {
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case bool:
		return boolFloat(n), nil
	}
	return 0, fmt.Errorf("expression must return a number, got %T", v.Value())
}
