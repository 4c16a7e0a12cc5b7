package introspection

import (
	schema "github.com/hanpama/blockql/internal/schema"
)

// metaSchema returns the schema that introspection queries are executed
// against. Its query type holds only __schema and __type.
func metaSchema(id string) *schema.Schema {
	sch := schema.NewSchema(id).SetQueryType(queryTypeName)
	for _, t := range metaTypes() {
		sch.AddType(t)
	}
	sch.AddType(schema.NewType(queryTypeName, schema.TypeKindObject, "").
		AddField(schema.NewField("__schema", "Access the current type schema of this server.", nonNull(named("__Schema")))).
		AddField(schema.NewField("__type", "Request the type information of a single type.", named("__Type")).
			AddArgument(schema.NewInputValue("name", "The name of the type to look up.", nonNull(named("String"))))))
	return sch
}

const queryTypeName = "Query"

func named(name string) *schema.TypeRef { return schema.NamedType(name) }

func nonNull(t *schema.TypeRef) *schema.TypeRef { return schema.NonNullType(t) }

func listOf(name string) *schema.TypeRef {
	return schema.ListType(nonNull(named(name)))
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", named("Boolean")).SetDefault(false)
}

// metaTypes builds the __ types every schema exposes.
func metaTypes() []*schema.Type {
	schemaType := schema.NewType("__Schema", schema.TypeKindObject,
		"A GraphQL Schema defines the capabilities of a GraphQL server.").
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("types", "A list of all types supported by this server.", nonNull(listOf("__Type")))).
		AddField(schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull(named("__Type")))).
		AddField(schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", named("__Type"))).
		AddField(schema.NewField("subscriptionType", "If this server support subscription, the type that subscription operations will be rooted at.", named("__Type"))).
		AddField(schema.NewField("directives", "A list of all directives supported by this server.", nonNull(listOf("__Directive"))))

	typeType := schema.NewType("__Type", schema.TypeKindObject,
		"The fundamental unit of any GraphQL Schema is the type.").
		AddField(schema.NewField("kind", "", nonNull(named("__TypeKind")))).
		AddField(schema.NewField("name", "", named("String"))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("specifiedByURL", "", named("String"))).
		AddField(schema.NewField("fields", "", listOf("__Field")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("interfaces", "", listOf("__Type"))).
		AddField(schema.NewField("possibleTypes", "", listOf("__Type"))).
		AddField(schema.NewField("enumValues", "", listOf("__EnumValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("inputFields", "", listOf("__InputValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("ofType", "", named("__Type"))).
		AddField(schema.NewField("isOneOf", "", named("Boolean")))

	fieldType := schema.NewType("__Field", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("args", "", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated())).
		AddField(schema.NewField("type", "", nonNull(named("__Type")))).
		AddField(schema.NewField("isDeprecated", "", nonNull(named("Boolean")))).
		AddField(schema.NewField("deprecationReason", "", named("String")))

	inputValueType := schema.NewType("__InputValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("type", "", nonNull(named("__Type")))).
		AddField(schema.NewField("defaultValue", "A GraphQL-formatted string representing the default value for this input value.", named("String"))).
		AddField(schema.NewField("isDeprecated", "", nonNull(named("Boolean")))).
		AddField(schema.NewField("deprecationReason", "", named("String")))

	enumValueType := schema.NewType("__EnumValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("isDeprecated", "", nonNull(named("Boolean")))).
		AddField(schema.NewField("deprecationReason", "", named("String")))

	directiveType := schema.NewType("__Directive", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("isRepeatable", "", nonNull(named("Boolean")))).
		AddField(schema.NewField("locations", "", nonNull(listOf("__DirectiveLocation")))).
		AddField(schema.NewField("args", "", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated()))

	typeKind := enumType("__TypeKind", "An enum describing what kind of type a given `__Type` is.",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL")

	directiveLocation := enumType("__DirectiveLocation", "",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION",
		"FRAGMENT_SPREAD", "INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA",
		"SCALAR", "OBJECT", "FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INTERFACE",
		"UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT", "INPUT_FIELD_DEFINITION")

	return []*schema.Type{
		schemaType, typeType, fieldType, inputValueType,
		enumValueType, directiveType, typeKind, directiveLocation,
	}
}

func enumType(name, description string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, description)
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}
