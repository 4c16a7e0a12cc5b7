package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Types and directives are sorted by
// name; builtin scalars and directives are left out.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	if s.QueryType != "Query" || (s.MutationType != "" && s.MutationType != "Mutation") ||
		(s.SubscriptionType != "" && s.SubscriptionType != "Subscription") {
		renderDescription(&b, "", s.Description)
		b.WriteString("schema {\n")
		for _, op := range [][2]string{{"query", s.QueryType}, {"mutation", s.MutationType}, {"subscription", s.SubscriptionType}} {
			if op[1] != "" {
				fmt.Fprintf(&b, "  %s: %s\n", op[0], op[1])
			}
		}
		b.WriteString("}\n\n")
	}

	for _, name := range sortedTypeNames(s) {
		typ := s.Types[name]
		if isBuiltinType(typ) {
			continue
		}
		renderDescription(&b, "", typ.Description)
		switch typ.Kind {
		case TypeKindScalar:
			b.WriteString("scalar " + typ.Name)
			if typ.SpecifiedByURL != nil {
				fmt.Fprintf(&b, " @specifiedBy(url: %s)", strconv.Quote(*typ.SpecifiedByURL))
			}
			b.WriteString("\n\n")
		case TypeKindEnum:
			b.WriteString("enum " + typ.Name + " {\n")
			for _, val := range typ.EnumValues {
				renderDescription(&b, "  ", val.Description)
				b.WriteString("  " + val.Name)
				renderDeprecation(&b, val.IsDeprecated, val.DeprecationReason)
				b.WriteString("\n")
			}
			b.WriteString("}\n\n")
		case TypeKindInputObject:
			b.WriteString("input " + typ.Name)
			if typ.OneOf {
				b.WriteString(" @oneOf")
			}
			b.WriteString(" {\n")
			for _, field := range typ.InputFields {
				renderDescription(&b, "  ", field.Description)
				b.WriteString("  " + renderInputValue(field) + "\n")
			}
			b.WriteString("}\n\n")
		case TypeKindObject, TypeKindInterface:
			keyword := "type "
			if typ.Kind == TypeKindInterface {
				keyword = "interface "
			}
			b.WriteString(keyword + typ.Name)
			if len(typ.Interfaces) > 0 {
				b.WriteString(" implements " + strings.Join(typ.Interfaces, " & "))
			}
			b.WriteString(" {\n")
			for _, field := range typ.Fields {
				renderField(&b, field)
			}
			b.WriteString("}\n\n")
		case TypeKindUnion:
			b.WriteString("union " + typ.Name + " = " + strings.Join(typ.PossibleTypes, " | ") + "\n\n")
		}
	}

	directiveNames := make([]string, 0, len(s.Directives))
	for name, directive := range s.Directives {
		if isBuiltinDirective(directive) {
			continue
		}
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		d := s.Directives[name]
		renderDescription(&b, "", d.Description)
		b.WriteString("directive @" + d.Name + renderArguments(d.Arguments))
		if d.IsRepeatable {
			b.WriteString(" repeatable")
		}
		b.WriteString(" on " + strings.Join(d.Locations, " | ") + "\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderDescription(b *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	b.WriteString(indent + `"""` + "\n")
	for _, line := range strings.Split(strings.ReplaceAll(desc, `"""`, `\"""`), "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString(indent + `"""` + "\n")
}

func renderDeprecation(b *strings.Builder, deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" && reason != defaultDeprecationReason {
		b.WriteString("(reason: " + strconv.Quote(reason) + ")")
	}
}

func renderField(b *strings.Builder, field *Field) {
	renderDescription(b, "  ", field.Description)
	b.WriteString("  " + field.Name + renderArguments(field.Arguments) + ": " + field.Type.String())
	renderDeprecation(b, field.IsDeprecated, field.DeprecationReason)
	b.WriteString("\n")
}

func renderArguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = renderInputValue(arg)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderInputValue(v *InputValue) string {
	var b strings.Builder
	b.WriteString(v.Name + ": " + v.Type.String())
	if v.HasDefault {
		b.WriteString(" = " + renderValue(v.DefaultValue, v.Type))
	}
	renderDeprecation(&b, v.IsDeprecated, v.DeprecationReason)
	return b.String()
}

// DefaultLiteral renders the default value of v as a GraphQL literal.
func DefaultLiteral(v *InputValue) string {
	return renderValue(v.DefaultValue, v.Type)
}

// renderValue renders a default value. Strings declared against an enum
// typed input are written unquoted.
func renderValue(value any, t *TypeRef) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		if t != nil && t.GetNamedType() != "String" && t.GetNamedType() != "ID" && isEnumLike(v) {
			return v
		}
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item, elemType(t))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderValue(v[k], nil)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

func elemType(t *TypeRef) *TypeRef {
	for t != nil && t.Kind != TypeRefKindList {
		t = t.OfType
	}
	if t == nil {
		return nil
	}
	return t.OfType
}

func isEnumLike(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "null" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}
