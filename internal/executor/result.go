package executor

import (
	"slices"

	"github.com/hanpama/blockql/internal/value"
)

// ExecutionResult is the answer to a query: data, or a non-empty error list.
type ExecutionResult struct {
	Data   *value.Object
	Errors []error
}

func resultOf(data *value.Object, errs []error) *ExecutionResult {
	if len(errs) > 0 {
		return &ExecutionResult{Errors: errs}
	}
	return &ExecutionResult{Data: data}
}

// HasErrors reports whether execution failed.
func (r *ExecutionResult) HasErrors() bool { return len(r.Errors) > 0 }

// Clone copies the data tree. Errors are immutable and shared.
func (r *ExecutionResult) Clone() *ExecutionResult {
	if r == nil {
		return nil
	}
	return &ExecutionResult{Data: r.Data.Clone(), Errors: slices.Clone(r.Errors)}
}
