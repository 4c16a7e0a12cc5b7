package executor

import (
	"reflect"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

const prefetchKeyPrefix = "prefetch:"

// ExecuteSelectionSet executes the selection sets against an object of
// objectType. prefetched holds the raw values of the object's fields; entries
// consumed by the execution are removed from it.
//
// The result is the completed object, or the errors of every failing field.
// A selection that produces no fields at all is an EmptySelectionSetError.
func ExecuteSelectionSet(ectx *ExecutionContext, selectionSets []language.SelectionSet, objectType *schema.Type, prefetched any) (*value.Object, []error) {
	values, errs := executeSelectionSetToMap(ectx, selectionSets, objectType, prefetched)
	if len(errs) > 0 {
		return nil, errs
	}
	if values.Len() == 0 {
		return nil, []error{&EmptySelectionSetError{Type: objectType.Name}}
	}
	return values, nil
}

func executeSelectionSetToMap(ectx *ExecutionContext, selectionSets []language.SelectionSet, objectType *schema.Type, prefetched any) (*value.Object, []error) {
	source, _ := prefetched.(*value.Object)
	var errs []error
	result := value.NewObject()

	grouped := CollectFields(ectx, objectType, selectionSets)
	sharedNames := multipleResponseKeys(grouped)

	for _, group := range grouped.Ordered() {
		if ectx.timedOut() {
			errs = append(errs, ErrTimeout)
			break
		}
		field := group.Fields[0]
		fieldDef := getFieldDefinition(objectType, field.Name)
		if fieldDef == nil {
			errs = append(errs, &UnknownFieldError{located: at(field), Type: objectType.Name, Field: field.Name})
			continue
		}

		var fieldValue any
		if source != nil {
			if v, ok := source.Delete(prefetchKeyPrefix + group.ResponseKey); ok {
				fieldValue = v
			} else if sharedNames[field.Name] {
				v, _ := source.Get(field.Name)
				fieldValue = value.Clone(v)
			} else {
				fieldValue, _ = source.Delete(field.Name)
			}
		}

		v, fieldErrs := executeField(ectx, objectType, fieldValue, field, fieldDef, group.Fields)
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		result.Set(group.ResponseKey, v)
	}
	return result, errs
}

// multipleResponseKeys returns the field names selected under more than one
// response key. Their prefetched values are shared between the keys.
func multipleResponseKeys(grouped *CollectedFields) map[string]bool {
	seen := make(map[string]bool)
	multiple := make(map[string]bool)
	for _, group := range grouped.Ordered() {
		names := make(map[string]bool)
		for _, f := range group.Fields {
			names[f.Name] = true
		}
		for name := range names {
			if seen[name] {
				multiple[name] = true
			}
			seen[name] = true
		}
	}
	return multiple
}

func executeField(ectx *ExecutionContext, objectType *schema.Type, fieldValue any, field *language.Field, fieldDef *schema.Field, fields []*language.Field) (any, []error) {
	if fieldDef == typenameField {
		return objectType.Name, nil
	}
	args, errs := CoerceArgumentValues(ectx, objectType, field)
	if len(errs) > 0 {
		return nil, errs
	}
	resolved, err := resolveFieldValue(ectx, objectType, fieldValue, field, fieldDef, fieldDef.Type, args)
	if err != nil {
		return nil, []error{resolverError(field, err)}
	}
	return completeValue(ectx, field, fieldDef.Type, fields, resolved)
}

func resolverError(field *language.Field, err error) error {
	switch err.(type) {
	case Located, *UnimplementedError, *NamedTypeError:
		return err
	}
	return &ResolverError{located: at(field), Field: field.Name, Err: err}
}

func resolveFieldValue(ectx *ExecutionContext, objectType *schema.Type, fieldValue any, field *language.Field, fieldDef *schema.Field, fieldType *schema.TypeRef, args map[string]any) (any, error) {
	ctx := ectx.Context()
	switch fieldType.Kind {
	case schema.TypeRefKindNonNull:
		return resolveFieldValue(ectx, objectType, fieldValue, field, fieldDef, fieldType.OfType, args)
	case schema.TypeRefKindList:
		return resolveFieldValueForListType(ectx, fieldValue, field, fieldDef, fieldType.OfType, args)
	}

	namedType := ectx.Query.Schema.Types[fieldType.Named]
	if namedType == nil {
		return nil, &NamedTypeError{Name: fieldType.Named}
	}
	switch namedType.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		return ectx.Resolver.ResolveObject(ctx, fieldValue, field, fieldDef, namedType, args)
	case schema.TypeKindEnum:
		return ectx.Resolver.ResolveEnumValue(ctx, field, namedType, fieldValue)
	case schema.TypeKindScalar:
		return ectx.Resolver.ResolveScalarValue(ctx, objectType, field, namedType, fieldValue, args)
	case schema.TypeKindUnion:
		return nil, &UnimplementedError{Feature: "unions"}
	default:
		return nil, &UnimplementedError{Feature: "input object output fields"}
	}
}

func resolveFieldValueForListType(ectx *ExecutionContext, fieldValue any, field *language.Field, fieldDef *schema.Field, innerType *schema.TypeRef, args map[string]any) (any, error) {
	ctx := ectx.Context()
	switch innerType.Kind {
	case schema.TypeRefKindNonNull:
		return resolveFieldValueForListType(ectx, fieldValue, field, fieldDef, innerType.OfType, args)
	case schema.TypeRefKindList:
		return nil, &UnimplementedError{Feature: "nested list types"}
	}

	namedType := ectx.Query.Schema.Types[innerType.Named]
	if namedType == nil {
		return nil, &NamedTypeError{Name: innerType.Named}
	}
	switch namedType.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		return ectx.Resolver.ResolveObjects(ctx, fieldValue, field, fieldDef, namedType, args)
	case schema.TypeKindEnum:
		return ectx.Resolver.ResolveEnumValues(ctx, field, namedType, fieldValue)
	case schema.TypeKindScalar:
		return ectx.Resolver.ResolveScalarValues(ctx, field, namedType, fieldValue)
	case schema.TypeKindUnion:
		return nil, &UnimplementedError{Feature: "unions"}
	default:
		return nil, &UnimplementedError{Feature: "input object output fields"}
	}
}

// completeValue checks a resolved value against fieldType and turns it into
// a result value. A null for a non-null type fails the field itself; the
// failure is not propagated to enclosing fields.
func completeValue(ectx *ExecutionContext, field *language.Field, fieldType *schema.TypeRef, fields []*language.Field, resolved any) (any, []error) {
	switch fieldType.Kind {
	case schema.TypeRefKindNonNull:
		v, errs := completeValue(ectx, field, fieldType.OfType, fields, resolved)
		if len(errs) > 0 {
			return nil, errs
		}
		if v == nil {
			return nil, []error{&NonNullError{located: at(field), Field: field.Name}}
		}
		return v, nil
	}

	if isNullish(resolved) {
		return nil, nil
	}

	if fieldType.Kind == schema.TypeRefKindList {
		items, ok := listItems(resolved)
		if !ok {
			return nil, []error{&ListValueError{located: at(field), Field: field.Name}}
		}
		var errs []error
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, itemErrs := completeValue(ectx, field, fieldType.OfType, fields, item)
			if len(itemErrs) > 0 {
				errs = append(errs, itemErrs...)
				continue
			}
			out = append(out, v)
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	}

	namedType := ectx.Query.Schema.Types[fieldType.Named]
	if namedType == nil {
		return nil, []error{&NamedTypeError{Name: fieldType.Named}}
	}
	switch namedType.Kind {
	case schema.TypeKindScalar:
		v, ok := value.CoerceScalar(resolved, namedType)
		if !ok {
			return nil, []error{&ScalarCoercionError{located: at(field), Field: field.Name, Value: resolved, Type: namedType.Name}}
		}
		return v, nil
	case schema.TypeKindEnum:
		v, ok := value.CoerceEnum(resolved, namedType)
		if !ok {
			names := make([]string, len(namedType.EnumValues))
			for i, ev := range namedType.EnumValues {
				names[i] = ev.Name
			}
			return nil, []error{&EnumCoercionError{located: at(field), Field: field.Name, Value: resolved, Type: namedType.Name, Values: names}}
		}
		return v, nil
	case schema.TypeKindObject:
		return completeObjectValue(ectx, namedType, fields, resolved)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		objectType := resolveAbstractType(ectx, namedType, resolved)
		if objectType == nil {
			return nil, []error{&AbstractTypeError{Name: namedType.Name}}
		}
		return completeObjectValue(ectx, objectType, fields, resolved)
	default:
		return nil, []error{&UnimplementedError{Feature: "input object output fields"}}
	}
}

func completeObjectValue(ectx *ExecutionContext, objectType *schema.Type, fields []*language.Field, resolved any) (any, []error) {
	obj, errs := ExecuteSelectionSet(ectx, mergeSelectionSets(fields), objectType, resolved)
	if len(errs) > 0 {
		return nil, errs
	}
	return obj, nil
}

func resolveAbstractType(ectx *ExecutionContext, abstractType *schema.Type, resolved any) *schema.Type {
	sch := ectx.Query.Schema
	t := ectx.Resolver.ResolveAbstractType(sch, abstractType, resolved)
	if t == nil || !sch.IsPossibleType(abstractType, t) {
		return nil
	}
	return t
}

func listItems(v any) ([]any, bool) {
	if direct, ok := v.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
