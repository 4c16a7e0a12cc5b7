package schema

// NewSchema returns an empty schema with the builtin scalars and the
// @include, @skip and @deprecated directives registered.
func NewSchema(id string) *Schema {
	s := &Schema{
		ID:         id,
		Types:      make(map[string]*Type),
		Directives: make(map[string]*Directive),
	}
	for _, t := range builtinScalars {
		s.AddType(t)
	}
	for _, d := range builtinDirectives {
		s.AddDirective(d)
	}
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

// LinkPossibleTypes fills PossibleTypes of every interface from the object
// types implementing it. Union members are left as declared.
func (s *Schema) LinkPossibleTypes() *Schema {
	for _, t := range s.Types {
		if t.Kind == TypeKindInterface {
			t.PossibleTypes = nil
		}
	}
	for _, name := range sortedTypeNames(s) {
		t := s.Types[name]
		if t.Kind != TypeKindObject {
			continue
		}
		for _, iface := range t.Interfaces {
			if it := s.Types[iface]; it != nil && it.Kind == TypeKindInterface {
				it.PossibleTypes = append(it.PossibleTypes, t.Name)
			}
		}
	}
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type        { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}
func (t *Type) AddEnumValue(v *EnumValue) *Type    { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type  { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type          { t.OneOf = oneOf; return t }
func (t *Type) SetSpecifiedByURL(url string) *Type { t.SpecifiedByURL = &url; return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(arg *InputValue) *Field {
	f.Arguments = append(f.Arguments, arg)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

// SetDefault records a default value. A nil default is a declared null.
func (v *InputValue) SetDefault(def any) *InputValue {
	v.DefaultValue = def
	v.HasDefault = true
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(repeatable bool) *Directive { d.IsRepeatable = repeatable; return d }
func (d *Directive) AddArgument(arg *InputValue) *Directive {
	d.Arguments = append(d.Arguments, arg)
	return d
}
