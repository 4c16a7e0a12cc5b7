package executor

import (
	"errors"
	"fmt"
	"strings"

	language "github.com/hanpama/blockql/internal/language"
)

// ErrTimeout is reported when the execution deadline passes between fields.
var ErrTimeout = errors.New("query timed out")

// Located is implemented by errors that point at a place in the query text.
type Located interface {
	Location() *language.Position
}

type located struct{ Pos *language.Position }

func (l located) Location() *language.Position { return l.Pos }

// UnknownFieldError is reported for a selected field the type does not define.
type UnknownFieldError struct {
	located
	Type  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("Type `%s` has no field `%s`", e.Type, e.Field)
}

// EmptySelectionSetError is reported when an object produces no fields.
type EmptySelectionSetError struct {
	Type string
}

func (e *EmptySelectionSetError) Error() string {
	return fmt.Sprintf("Value of type `%s` must have a selection of subfields", e.Type)
}

// NonNullError is reported when a non-null field completes to null.
type NonNullError struct {
	located
	Field string
}

func (e *NonNullError) Error() string {
	return fmt.Sprintf("Null value resolved for non-null field `%s`", e.Field)
}

// ListValueError is reported when a list field resolves to something other
// than a list.
type ListValueError struct {
	located
	Field string
}

func (e *ListValueError) Error() string {
	return fmt.Sprintf("Non-list value resolved for list field `%s`", e.Field)
}

// ScalarCoercionError is reported when a value does not fit a scalar type.
type ScalarCoercionError struct {
	located
	Field string
	Value any
	Type  string
}

func (e *ScalarCoercionError) Error() string {
	return fmt.Sprintf("Failed to coerce value `%v` of field `%s` to scalar type `%s`", e.Value, e.Field, e.Type)
}

// EnumCoercionError is reported when a value is not one of the enum's values.
type EnumCoercionError struct {
	located
	Field  string
	Value  any
	Type   string
	Values []string
}

func (e *EnumCoercionError) Error() string {
	return fmt.Sprintf("Failed to coerce value `%v` of field `%s` to enum type `%s`. Possible values are: %s",
		e.Value, e.Field, e.Type, strings.Join(e.Values, ", "))
}

// NamedTypeError is reported when a type name does not exist in the schema.
type NamedTypeError struct {
	Name string
}

func (e *NamedTypeError) Error() string {
	return fmt.Sprintf("Type `%s` is not defined in the schema", e.Name)
}

// AbstractTypeError is reported when an interface or union value cannot be
// resolved to one of its object types.
type AbstractTypeError struct {
	Name string
}

func (e *AbstractTypeError) Error() string {
	return fmt.Sprintf("Failed to resolve value of abstract type `%s` to an object type", e.Name)
}

// UnimplementedError is reported for query features this executor does not support.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("Feature `%s` is not implemented", e.Feature)
}

// ArgumentError is reported for an argument that cannot be coerced to its
// declared type.
type ArgumentError struct {
	located
	Argument string
	Err      error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("Invalid value for argument `%s`: %v", e.Argument, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ResolverError wraps an error returned by a Resolver for a field.
type ResolverError struct {
	located
	Field string
	Err   error
}

func (e *ResolverError) Error() string { return e.Err.Error() }

func (e *ResolverError) Unwrap() error { return e.Err }

// Errors is a list of errors reported together.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error { return e }

// flatten turns err into a list, expanding Errors.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if list, ok := err.(Errors); ok {
		out := make([]error, 0, len(list))
		for _, e := range list {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func at(field *language.Field) located {
	if field == nil {
		return located{}
	}
	return located{Pos: field.Position}
}
