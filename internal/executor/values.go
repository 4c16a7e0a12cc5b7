package executor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// textArgument is the argument name whose value is wrapped as
// {<field name>: value} before it reaches the resolver.
const textArgument = "text"

// coerceVariableValues coerces variable values according to their types
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if v2, ok2 := variableValues[strings.TrimPrefix(name, "$")]; ok2 {
				val = v2
				ok = true
			}
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = language.ValueToGo(varDef.DefaultValue, nil)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(val, schema.TypeRefFromAST(t), sch)
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// CoerceArgumentValues coerces the arguments of a field against their
// definitions on objectType. Arguments without a value and without a default
// are left out. Every failing argument contributes one error.
func CoerceArgumentValues(ectx *ExecutionContext, objectType *schema.Type, field *language.Field) (map[string]any, []error) {
	coerced := make(map[string]any)
	fieldDef := getFieldDefinition(objectType, field.Name)
	if fieldDef == nil {
		return coerced, nil
	}
	var errs []error
	for _, argDef := range fieldDef.Arguments {
		v, present, err := coerceArgument(ectx, argDef, field.Arguments.ForName(argDef.Name))
		if err != nil {
			errs = append(errs, &ArgumentError{located: at(field), Argument: argDef.Name, Err: err})
			continue
		}
		if !present {
			continue
		}
		if argDef.Name == textArgument {
			v = value.ObjectOf(field.Name, v)
		}
		coerced[argDef.Name] = v
	}
	return coerced, errs
}

func coerceArgument(ectx *ExecutionContext, argDef *schema.InputValue, arg *language.Argument) (any, bool, error) {
	vars := ectx.Query.Variables
	if arg == nil || language.ReferencesUnboundVariable(arg.Value, vars) {
		if argDef.HasDefault {
			return argDef.DefaultValue, true, nil
		}
		if schema.IsNonNull(argDef.Type) {
			return nil, false, fmt.Errorf("required argument of type %s was not provided", argDef.Type)
		}
		return nil, false, nil
	}
	v, err := coerceValue(language.ValueToGo(arg.Value, vars), argDef.Type, ectx.Query.Schema)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// coerceValue coerces an input value to the specified GraphQL type
func coerceValue(val any, targetType *schema.TypeRef, sch *schema.Schema) (any, error) {
	if schema.IsNonNull(targetType) {
		if val == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return coerceValue(val, schema.Unwrap(targetType), sch)
	}
	if val == nil {
		return nil, nil
	}
	if targetType.Kind == schema.TypeRefKindList {
		return coerceListValue(val, targetType, sch)
	}

	namedType := targetType.Named
	switch namedType {
	case "Int":
		return coerceToInt(val)
	case "Float":
		return coerceToFloat(val)
	case "String":
		return coerceToString(val)
	case "Boolean":
		return coerceToBoolean(val)
	case "ID":
		return coerceToID(val)
	}

	t := sch.Types[namedType]
	if t == nil {
		return nil, fmt.Errorf("unknown input type %s", namedType)
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(val, t)
	case schema.TypeKindInputObject:
		return coerceInputObject(val, t, sch)
	case schema.TypeKindScalar:
		return val, nil
	default:
		return nil, fmt.Errorf("type %s cannot be used as input", namedType)
	}
}

// coerceListValue coerces a value to a list
func coerceListValue(val any, listType *schema.TypeRef, sch *schema.Schema) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := val.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(item, innerType, sch)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	// Single value becomes a list of one
	coercedItem, err := coerceValue(val, innerType, sch)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceInputObject(val any, t *schema.Type, sch *schema.Schema) (any, error) {
	var fields map[string]any
	switch v := val.(type) {
	case map[string]any:
		fields = v
	case *value.Object:
		fields = make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			fields[k], _ = v.Get(k)
		}
	default:
		return nil, fmt.Errorf("expected an object for input type %s, got %T", t.Name, val)
	}
	for name := range fields {
		if t.InputField(name) == nil {
			return nil, fmt.Errorf("field '%s' is not defined by input type %s", name, t.Name)
		}
	}
	out := make(map[string]any, len(t.InputFields))
	for _, def := range t.InputFields {
		fv, ok := fields[def.Name]
		if !ok {
			if def.HasDefault {
				out[def.Name] = def.DefaultValue
			} else if schema.IsNonNull(def.Type) {
				return nil, fmt.Errorf("required field '%s' of input type %s was not provided", def.Name, t.Name)
			}
			continue
		}
		cv, err := coerceValue(fv, def.Type, sch)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", def.Name, err)
		}
		out[def.Name] = cv
	}
	return out, nil
}

func coerceToEnum(val any, t *schema.Type) (any, error) {
	if v, ok := value.CoerceEnum(val, t); ok {
		return string(v.(value.Enum)), nil
	}
	return nil, fmt.Errorf("%v is not a value of enum %s", val, t.Name)
}

func coerceToInt(val any) (any, error) {
	switch v := val.(type) {
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return v, nil
		}
	case int32:
		return int(v), nil
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", val, val)
}

func coerceToFloat(val any) (any, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", val, val)
}

func coerceToString(val any) (any, error) {
	if v, ok := val.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", val, val)
}

func coerceToBoolean(val any) (any, error) {
	if v, ok := val.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", val, val)
}

func coerceToID(val any) (any, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", val, val)
}
