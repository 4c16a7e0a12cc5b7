package schema

func builtinScalar(name, description string) *Type {
	return &Type{Name: name, Kind: TypeKindScalar, Description: description}
}

var builtinScalars = []*Type{
	builtinScalar("String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."),
	builtinScalar("Int", "The `Int` scalar type represents non-fractional signed whole numeric values."),
	builtinScalar("Float", "The `Float` scalar type represents signed double-precision fractional values."),
	builtinScalar("Boolean", "The `Boolean` scalar type represents `true` or `false`."),
	builtinScalar("ID", "The `ID` scalar type represents a unique identifier, used as an entity id and in cache keys."),
}

// conditionDirective builds @include or @skip. Both take a required
// Boolean `if` and apply to fields and fragments.
func conditionDirective(name, description, ifDescription string) *Directive {
	return &Directive{
		Name:        name,
		Description: description,
		Arguments: []*InputValue{{
			Name:        "if",
			Description: ifDescription,
			Type:        NonNullType(NamedType("Boolean")),
		}},
		Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	}
}

var builtinDirectives = []*Directive{
	conditionDirective("include", "Directs the executor to include this field or fragment only when the `if` argument is true.", "Included when true."),
	conditionDirective("skip", "Directs the executor to skip this field or fragment when the `if` argument is true.", "Skipped when true."),
	{
		Name:        "deprecated",
		Description: "Marks an element of a schema as no longer supported.",
		Arguments: []*InputValue{{
			Name:         "reason",
			Type:         NamedType("String"),
			DefaultValue: "No longer supported",
			HasDefault:   true,
		}},
		Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
	},
}

func isBuiltinScalar(name string) bool {
	for _, t := range builtinScalars {
		if t.Name == name {
			return true
		}
	}
	return false
}

func isBuiltinType(t *Type) bool {
	for _, b := range builtinScalars {
		if b == t {
			return true
		}
	}
	return false
}

func isBuiltinDirective(d *Directive) bool {
	for _, b := range builtinDirectives {
		if b == d {
			return true
		}
	}
	return false
}
