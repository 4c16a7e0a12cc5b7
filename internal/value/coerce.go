package value

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	schema "github.com/hanpama/blockql/internal/schema"
)

// CoerceScalar converts a resolved value into the output representation of
// the scalar type. The second result is false when v does not fit the type.
func CoerceScalar(v any, scalarType *schema.Type) (any, bool) {
	switch scalarType.Name {
	case "Boolean":
		b, ok := v.(bool)
		return b, ok
	case "Int":
		n, ok := toInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false
		}
		return int(n), true
	case "Float":
		return toFloat64(v)
	case "String":
		s, ok := v.(string)
		return s, ok
	case "ID":
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		}
		if n, ok := toInt64(v); ok {
			return strconv.FormatInt(n, 10), true
		}
		return nil, false
	case "BigInt", "BigDecimal":
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		case *big.Int:
			return t.String(), true
		case *big.Float:
			return t.Text('f', -1), true
		}
		if n, ok := toInt64(v); ok {
			return strconv.FormatInt(n, 10), true
		}
		return nil, false
	case "Bytes":
		switch t := v.(type) {
		case string:
			return t, true
		case []byte:
			return fmt.Sprintf("0x%x", t), true
		}
		return nil, false
	default:
		return v, true
	}
}

// CoerceEnum converts a resolved value into one of the declared values of
// enumType.
func CoerceEnum(v any, enumType *schema.Type) (any, bool) {
	var name string
	switch t := v.(type) {
	case string:
		name = t
	case Enum:
		name = string(t)
	default:
		return nil, false
	}
	for _, ev := range enumType.EnumValues {
		if ev.Name == name {
			return Enum(name), true
		}
	}
	return nil, false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

func toFloat64(v any) (any, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return nil, false
}
