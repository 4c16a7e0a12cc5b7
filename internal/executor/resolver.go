package executor

import (
	"context"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// Resolver supplies raw field values to the executor. The executor completes
// every value it receives against the field's declared type, so resolvers
// need not coerce or validate their results.
//
// fieldValue is the value the parent object holds for the field, taken from
// the prefetched or parent object. It is nil when the parent has no entry.
type Resolver interface {
	// Prefetch loads values for the root selection set in one go. Values are
	// returned under "prefetch:<response key>" or under the field name.
	Prefetch(ectx *ExecutionContext, selectionSet language.SelectionSet) (*value.Object, error)

	// ResolveObject returns the value of a field whose type is an object or
	// interface type.
	ResolveObject(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error)

	// ResolveObjects returns the list value of a field whose element type is
	// an object or interface type.
	ResolveObjects(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error)

	ResolveEnumValue(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error)
	ResolveEnumValues(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error)

	ResolveScalarValue(ctx context.Context, parentType *schema.Type, field *language.Field, scalarType *schema.Type, fieldValue any, args map[string]any) (any, error)
	ResolveScalarValues(ctx context.Context, field *language.Field, scalarType *schema.Type, fieldValue any) (any, error)

	// ResolveAbstractType picks the object type of a value declared with an
	// interface or union type. It returns nil when no type fits.
	ResolveAbstractType(sch *schema.Schema, abstractType *schema.Type, fieldValue any) *schema.Type
}
