package expression

import (
	"github.com/expr-lang/expr"
	"github.com/pkg/errors"
)

// CheckFileSingleMatchWithReason returns true and the matching expression text
// as soon as one expression evaluates to true.
func CheckFileSingleMatchWithReason(f *File, expressions []CompiledExpression) (bool, string, error) {
	env := newEvalContext(f)

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", errors.Wrap(err, "check expression")
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", errors.Errorf("type assert expression result: %T", result)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}

// CheckFileAllMatchWithReason returns true when every expression evaluates to true,
// otherwise the text of each expression that did not.
func CheckFileAllMatchWithReason(f *File, expressions []CompiledExpression) (bool, []string, error) {
	env := newEvalContext(f)
	var failedExpressions []string

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, nil, errors.Wrap(err, "check expression")
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, nil, errors.Errorf("type assert expression result: %T", result)
		}

		if !expResult {
			failedExpressions = append(failedExpressions, expression.Text)
		}
	}

	if len(failedExpressions) > 0 {
		return false, failedExpressions, nil
	}

	return true, nil, nil
}
