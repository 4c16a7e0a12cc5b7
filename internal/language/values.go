package language

import "strconv"

// ValueToGo converts an AST value into a Go value. Variables are looked up in
// vars at any depth; an unbound variable converts to nil. Input objects become
// map[string]any and lists []any.
func ValueToGo(value *Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		return vars[value.Raw]
	case IntValue:
		if iv, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
			return int(iv)
		}
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case EnumValue:
		return value.Raw
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value, vars)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = ValueToGo(f.Value, vars)
		}
		return m
	default:
		return nil
	}
}

// ReferencesUnboundVariable reports whether value is a variable that vars
// does not bind.
func ReferencesUnboundVariable(value *Value, vars map[string]any) bool {
	if value == nil || value.Kind != Variable {
		return false
	}
	_, ok := vars[value.Raw]
	return !ok
}
