// Package introspection answers __schema and __type queries about a schema.
//
// Introspection runs against its own meta schema. The resolver turns schema
// definitions into result objects one level at a time: each object carries
// its scalar fields and the raw definitions of its children, which are
// materialised only when selected.
package introspection

import (
	"context"
	"sort"
	"strings"

	executor "github.com/hanpama/blockql/internal/executor"
	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// New binds introspection of sch for use by the executor.
func New(sch *schema.Schema) *executor.Introspection {
	meta := metaSchema(sch.ID)
	return &executor.Introspection{
		Schema:   meta,
		Resolver: &resolver{schema: sch, meta: meta},
	}
}

type resolver struct {
	schema *schema.Schema
	meta   *schema.Schema
}

var _ executor.Resolver = (*resolver)(nil)

func (r *resolver) Prefetch(*executor.ExecutionContext, language.SelectionSet) (*value.Object, error) {
	return value.NewObject(), nil
}

func (r *resolver) ResolveObject(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	switch field.Name {
	case "__schema":
		if fieldValue == nil {
			return r.schemaObject(), nil
		}
	case "__type":
		if fieldValue == nil {
			name, _ := args["name"].(string)
			if t := r.lookupType(name); t != nil {
				return r.typeObject(t), nil
			}
			return nil, nil
		}
	}
	return r.object(fieldValue), nil
}

func (r *resolver) ResolveObjects(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	withDeprecated, _ := args["includeDeprecated"].(bool)
	out := []any{}
	switch items := fieldValue.(type) {
	case []*schema.Type:
		for _, t := range items {
			out = append(out, r.typeObject(t))
		}
	case []*schema.Field:
		for _, f := range items {
			if f.IsDeprecated && !withDeprecated {
				continue
			}
			out = append(out, r.fieldObject(f))
		}
	case []*schema.InputValue:
		for _, v := range items {
			if v.IsDeprecated && !withDeprecated {
				continue
			}
			out = append(out, r.inputValueObject(v))
		}
	case []*schema.EnumValue:
		for _, v := range items {
			if v.IsDeprecated && !withDeprecated {
				continue
			}
			out = append(out, enumValueObject(v))
		}
	case []*schema.Directive:
		for _, d := range items {
			out = append(out, r.directiveObject(d))
		}
	default:
		return nil, nil
	}
	if len(out) == 0 && isNilList(fieldValue) {
		return nil, nil
	}
	return out, nil
}

func (r *resolver) ResolveEnumValue(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

func (r *resolver) ResolveEnumValues(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

func (r *resolver) ResolveScalarValue(ctx context.Context, parentType *schema.Type, field *language.Field, scalarType *schema.Type, fieldValue any, args map[string]any) (any, error) {
	return fieldValue, nil
}

func (r *resolver) ResolveScalarValues(ctx context.Context, field *language.Field, scalarType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

// ResolveAbstractType is never consulted: the meta schema has no
// interfaces or unions.
func (r *resolver) ResolveAbstractType(*schema.Schema, *schema.Type, any) *schema.Type {
	return nil
}

// lookupType finds a type of the introspected schema or one of the meta types.
func (r *resolver) lookupType(name string) *schema.Type {
	if t := r.schema.Types[name]; t != nil {
		return t
	}
	if strings.HasPrefix(name, "__") {
		return r.meta.Types[name]
	}
	return nil
}

func (r *resolver) object(raw any) any {
	switch v := raw.(type) {
	case *schema.Type:
		if v == nil {
			return nil
		}
		return r.typeObject(v)
	case *schema.TypeRef:
		if v == nil {
			return nil
		}
		return r.typeRefObject(v)
	case *value.Object:
		return v
	}
	return nil
}

func (r *resolver) schemaObject() *value.Object {
	sch := r.schema
	types := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		types = append(types, t)
	}
	for name, t := range r.meta.Types {
		if strings.HasPrefix(name, "__") {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	directives := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		directives = append(directives, d)
	}
	sort.Slice(directives, func(i, j int) bool { return directives[i].Name < directives[j].Name })

	return value.ObjectOf(
		"description", optional(sch.Description),
		"types", types,
		"queryType", sch.GetQueryType(),
		"mutationType", sch.GetMutationType(),
		"subscriptionType", sch.GetSubscriptionType(),
		"directives", directives,
	)
}

func (r *resolver) typeObject(t *schema.Type) *value.Object {
	obj := value.ObjectOf(
		"kind", string(t.Kind),
		"name", t.Name,
		"description", optional(t.Description),
		"ofType", nil,
	)
	var specifiedBy any
	if t.SpecifiedByURL != nil {
		specifiedBy = *t.SpecifiedByURL
	}
	obj.Set("specifiedByURL", specifiedBy)

	var fields []*schema.Field
	var interfaces, possibleTypes []*schema.Type
	var enumValues []*schema.EnumValue
	var inputFields []*schema.InputValue
	var oneOf any

	switch t.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		fields = nonNilSlice(t.Fields)
		interfaces = r.namedTypes(t.Interfaces)
	}
	switch t.Kind {
	case schema.TypeKindInterface, schema.TypeKindUnion:
		possibleTypes = r.namedTypes(t.PossibleTypes)
	case schema.TypeKindEnum:
		enumValues = nonNilSlice(t.EnumValues)
	case schema.TypeKindInputObject:
		inputFields = nonNilSlice(t.InputFields)
		oneOf = t.OneOf
	}
	obj.Set("fields", fields)
	obj.Set("interfaces", interfaces)
	obj.Set("possibleTypes", possibleTypes)
	obj.Set("enumValues", enumValues)
	obj.Set("inputFields", inputFields)
	obj.Set("isOneOf", oneOf)
	return obj
}

// typeRefObject describes a type reference. Named references describe the
// named type itself; wrappers describe LIST and NON_NULL with their inner type.
func (r *resolver) typeRefObject(ref *schema.TypeRef) *value.Object {
	if ref.Kind == schema.TypeRefKindNamed {
		if t := r.lookupType(ref.Named); t != nil {
			return r.typeObject(t)
		}
		return value.ObjectOf("kind", string(schema.TypeKindScalar), "name", ref.Named)
	}
	return value.ObjectOf(
		"kind", string(ref.Kind),
		"name", nil,
		"description", nil,
		"ofType", ref.OfType,
	)
}

func (r *resolver) fieldObject(f *schema.Field) *value.Object {
	return value.ObjectOf(
		"name", f.Name,
		"description", optional(f.Description),
		"args", nonNilSlice(f.Arguments),
		"type", f.Type,
		"isDeprecated", f.IsDeprecated,
		"deprecationReason", deprecationReason(f.IsDeprecated, f.DeprecationReason),
	)
}

func (r *resolver) inputValueObject(v *schema.InputValue) *value.Object {
	var defaultValue any
	if v.HasDefault {
		defaultValue = schema.DefaultLiteral(v)
	}
	return value.ObjectOf(
		"name", v.Name,
		"description", optional(v.Description),
		"type", v.Type,
		"defaultValue", defaultValue,
		"isDeprecated", v.IsDeprecated,
		"deprecationReason", deprecationReason(v.IsDeprecated, v.DeprecationReason),
	)
}

func enumValueObject(v *schema.EnumValue) *value.Object {
	return value.ObjectOf(
		"name", v.Name,
		"description", optional(v.Description),
		"isDeprecated", v.IsDeprecated,
		"deprecationReason", deprecationReason(v.IsDeprecated, v.DeprecationReason),
	)
}

func (r *resolver) directiveObject(d *schema.Directive) *value.Object {
	locations := make([]any, len(d.Locations))
	for i, l := range d.Locations {
		locations[i] = l
	}
	return value.ObjectOf(
		"name", d.Name,
		"description", optional(d.Description),
		"isRepeatable", d.IsRepeatable,
		"locations", locations,
		"args", nonNilSlice(d.Arguments),
	)
}

func (r *resolver) namedTypes(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if t := r.lookupType(name); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// isNilList reports whether v is a nil definition list, which stands for a
// list that does not apply to the type kind.
func isNilList(v any) bool {
	switch items := v.(type) {
	case []*schema.Type:
		return items == nil
	case []*schema.Field:
		return items == nil
	case []*schema.InputValue:
		return items == nil
	case []*schema.EnumValue:
		return items == nil
	case []*schema.Directive:
		return items == nil
	}
	return true
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
