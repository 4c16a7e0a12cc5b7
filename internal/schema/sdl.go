package schema

import (
	"fmt"
	"sort"

	language "github.com/hanpama/blockql/internal/language"
)

const defaultDeprecationReason = "No longer supported"

// BuildFromSDL parses SDL and returns the corresponding executable schema.
// Type extensions are merged into their base definitions. Root operation
// types default to Query, Mutation and Subscription when the document has
// no schema definition.
func BuildFromSDL(id, sdl string) (*Schema, error) {
	doc, err := language.ParseSchema(id, sdl)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", id, err)
	}
	return BuildFromDocument(id, doc)
}

// BuildFromDocument builds a schema from an already parsed SDL document.
func BuildFromDocument(id string, doc *language.SchemaDocument) (*Schema, error) {
	s := NewSchema(id)

	for _, def := range doc.Definitions {
		if _, dup := s.Types[def.Name]; dup && !isBuiltinScalar(def.Name) {
			return nil, fmt.Errorf("type %s is defined more than once", def.Name)
		}
		t, err := buildType(def)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	for _, ext := range doc.Extensions {
		base := s.Types[ext.Name]
		if base == nil {
			return nil, fmt.Errorf("cannot extend undefined type %s", ext.Name)
		}
		if err := extendType(base, ext); err != nil {
			return nil, err
		}
	}
	for _, dd := range doc.Directives {
		s.AddDirective(buildDirective(dd))
	}

	for _, name := range []string{"Query", "Mutation", "Subscription"} {
		if s.Types[name] == nil {
			continue
		}
		switch name {
		case "Query":
			s.SetQueryType(name)
		case "Mutation":
			s.SetMutationType(name)
		case "Subscription":
			s.SetSubscriptionType(name)
		}
	}
	for _, sd := range append(doc.Schema, doc.SchemaExtension...) {
		if sd.Description != "" {
			s.Description = sd.Description
		}
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case language.Query:
				s.SetQueryType(op.Type)
			case language.Mutation:
				s.SetMutationType(op.Type)
			case language.Subscription:
				s.SetSubscriptionType(op.Type)
			}
		}
	}
	if s.GetQueryType() == nil {
		return nil, fmt.Errorf("schema %s has no query type", id)
	}
	return s.LinkPossibleTypes(), nil
}

func buildType(def *language.Definition) (*Type, error) {
	var kind TypeKind
	switch def.Kind {
	case language.Object:
		kind = TypeKindObject
	case language.Interface:
		kind = TypeKindInterface
	case language.Union:
		kind = TypeKindUnion
	case language.Scalar:
		kind = TypeKindScalar
	case language.Enum:
		kind = TypeKindEnum
	case language.InputObject:
		kind = TypeKindInputObject
	default:
		return nil, fmt.Errorf("type %s has unsupported kind %s", def.Name, def.Kind)
	}
	t := NewType(def.Name, kind, def.Description)
	if d := def.Directives.ForName("oneOf"); d != nil {
		t.SetOneOf(true)
	}
	if d := def.Directives.ForName("specifiedBy"); d != nil {
		if url := d.Arguments.ForName("url"); url != nil {
			t.SetSpecifiedByURL(url.Value.Raw)
		}
	}
	return t, extendType(t, def)
}

func extendType(t *Type, def *language.Definition) error {
	for _, iface := range def.Interfaces {
		t.AddInterface(iface)
	}
	for _, member := range def.Types {
		t.AddPossibleType(member)
	}
	for _, ev := range def.EnumValues {
		v := NewEnumValue(ev.Name, ev.Description)
		if reason, ok := deprecation(ev.Directives); ok {
			v.Deprecate(reason)
		}
		t.AddEnumValue(v)
	}
	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			if t.InputField(fd.Name) != nil {
				return fmt.Errorf("input field %s.%s is defined more than once", t.Name, fd.Name)
			}
			in := NewInputValue(fd.Name, fd.Description, TypeRefFromAST(fd.Type))
			if fd.DefaultValue != nil {
				in.SetDefault(language.ValueToGo(fd.DefaultValue, nil))
			}
			if reason, ok := deprecation(fd.Directives); ok {
				in.Deprecate(reason)
			}
			t.AddInputField(in)
			continue
		}
		if t.Field(fd.Name) != nil {
			return fmt.Errorf("field %s.%s is defined more than once", t.Name, fd.Name)
		}
		f := NewField(fd.Name, fd.Description, TypeRefFromAST(fd.Type))
		for _, ad := range fd.Arguments {
			f.AddArgument(buildArgument(ad))
		}
		if reason, ok := deprecation(fd.Directives); ok {
			f.Deprecate(reason)
		}
		t.AddField(f)
	}
	return nil
}

func buildArgument(ad *language.ArgumentDefinition) *InputValue {
	in := NewInputValue(ad.Name, ad.Description, TypeRefFromAST(ad.Type))
	if ad.DefaultValue != nil {
		in.SetDefault(language.ValueToGo(ad.DefaultValue, nil))
	}
	if reason, ok := deprecation(ad.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildDirective(dd *language.DirectiveDefinition) *Directive {
	d := NewDirective(dd.Name, dd.Description).SetRepeatable(dd.IsRepeatable)
	for _, loc := range dd.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, ad := range dd.Arguments {
		d.AddArgument(buildArgument(ad))
	}
	return d
}

func deprecation(directives language.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return reason.Value.Raw, true
	}
	return defaultDeprecationReason, true
}

// TypeRefFromAST converts a parsed type reference.
func TypeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(TypeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(TypeRefFromAST(t.Elem))
	}
	return nil
}

func sortedTypeNames(s *Schema) []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
