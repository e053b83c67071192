package template

import "fmt"

// UndefinedVariableError is returned when a placeholder names a variable
// that is not in the store.
type UndefinedVariableError struct {
	// Name is the variable name (first path segment).
	Name string
	// Expression is the full placeholder expression.
	Expression string
}

func (e *UndefinedVariableError) Error() string {
	if e.Expression != "" && e.Expression != e.Name {
		return fmt.Sprintf("undefined variable %q in {{%s}}", e.Name, e.Expression)
	}
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *UndefinedVariableError) Hint() string {
	return fmt.Sprintf("Set %q on the test's variable store before the request is made, or capture it from an earlier fixture response.", e.Name)
}

// ExpressionError is returned for a placeholder that cannot be evaluated.
type ExpressionError struct {
	Expression string
	Reason     string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid template expression {{%s}}: %s", e.Expression, e.Reason)
}
