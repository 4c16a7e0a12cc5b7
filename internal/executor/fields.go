package executor

import (
	"maps"

	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
)

// CollectedFields groups field nodes by response key, preserving the order
// in which keys first appear in the query.
type CollectedFields struct {
	fields []CollectedField
	index  map[string]int
}

// CollectedField is one response key and every field node selected under it.
type CollectedField struct {
	ResponseKey string
	Fields      []*language.Field
}

func newCollectedFields() *CollectedFields {
	return &CollectedFields{index: make(map[string]int)}
}

func (cf *CollectedFields) add(responseKey string, field *language.Field) {
	if idx, exists := cf.index[responseKey]; exists {
		cf.fields[idx].Fields = append(cf.fields[idx].Fields, field)
		return
	}
	cf.index[responseKey] = len(cf.fields)
	cf.fields = append(cf.fields, CollectedField{ResponseKey: responseKey, Fields: []*language.Field{field}})
}

// Ordered returns the groups in query order.
func (cf *CollectedFields) Ordered() []CollectedField { return cf.fields }

func (cf *CollectedFields) Len() int { return len(cf.fields) }

// Get returns the fields selected under responseKey.
func (cf *CollectedFields) Get(responseKey string) []*language.Field {
	if idx, ok := cf.index[responseKey]; ok {
		return cf.fields[idx].Fields
	}
	return nil
}

// CollectFields flattens selection sets into response key groups for
// objectType, honouring @skip and @include, expanding a fragment spread at
// most once across all selectionSets and skipping fragments whose type
// condition does not apply to objectType.
func CollectFields(ectx *ExecutionContext, objectType *schema.Type, selectionSets []language.SelectionSet) *CollectedFields {
	grouped := newCollectedFields()
	visitedFragments := map[string]struct{}{}
	for _, set := range selectionSets {
		collectFieldsImpl(ectx, objectType, set, visitedFragments, grouped)
	}
	return grouped
}

func collectFieldsImpl(ectx *ExecutionContext, objectType *schema.Type, selectionSet language.SelectionSet, visitedFragments map[string]struct{}, grouped *CollectedFields) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(ectx, sel.Directives) {
				continue
			}
			responseKey := sel.Alias
			if responseKey == "" {
				responseKey = sel.Name
			}
			grouped.add(responseKey, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(ectx, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && !doesFragmentTypeApply(ectx.Query.Schema, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsImpl(ectx, objectType, sel.SelectionSet, maps.Clone(visitedFragments), grouped)

		case *language.FragmentSpread:
			if !shouldIncludeNode(ectx, sel.Directives) {
				continue
			}
			if _, seen := visitedFragments[sel.Name]; seen {
				continue
			}
			visitedFragments[sel.Name] = struct{}{}

			fragment := ectx.Query.Fragments[sel.Name]
			if fragment == nil {
				continue
			}
			if !doesFragmentTypeApply(ectx.Query.Schema, objectType, fragment.TypeCondition) {
				continue
			}
			collectFieldsImpl(ectx, objectType, fragment.SelectionSet, maps.Clone(visitedFragments), grouped)
		}
	}
}

// doesFragmentTypeApply reports whether a fragment with the given type
// condition applies to objectType.
func doesFragmentTypeApply(sch *schema.Schema, objectType *schema.Type, typeCondition string) bool {
	conditionType := sch.Types[typeCondition]
	if conditionType == nil {
		return false
	}
	switch conditionType.Kind {
	case schema.TypeKindObject:
		return conditionType.Name == objectType.Name
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return sch.IsPossibleType(conditionType, objectType)
	default:
		return false
	}
}

// shouldIncludeNode evaluates @skip and @include against the query's variables.
func shouldIncludeNode(ectx *ExecutionContext, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if skipIf, ok := directiveArgument(ectx, skip, "if").(bool); ok && skipIf {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if includeIf, ok := directiveArgument(ectx, include, "if").(bool); ok && !includeIf {
			return false
		}
	}
	return true
}

func directiveArgument(ectx *ExecutionContext, directive *language.Directive, name string) any {
	arg := directive.Arguments.ForName(name)
	if arg == nil {
		return nil
	}
	return language.ValueToGo(arg.Value, ectx.Query.Variables)
}

// mergeSelectionSets gathers the sub-selections of every field node in a group.
func mergeSelectionSets(fields []*language.Field) []language.SelectionSet {
	sets := make([]language.SelectionSet, 0, len(fields))
	for _, f := range fields {
		if len(f.SelectionSet) > 0 {
			sets = append(sets, f.SelectionSet)
		}
	}
	return sets
}

var typenameField = schema.NewField("__typename", "", schema.NonNullType(schema.NamedType("String")))

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	if fieldName == typenameField.Name {
		return typenameField
	}
	return objectType.Field(fieldName)
}

// IsIntrospectionField reports whether a root field is answered by introspection.
func IsIntrospectionField(name string) bool {
	return name == "__schema" || name == "__type"
}
