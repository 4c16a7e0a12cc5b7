package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hanpama/blockql/internal/blockptr"
	executor "github.com/hanpama/blockql/internal/executor"
	language "github.com/hanpama/blockql/internal/language"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// DefaultFirst is the list size used when a query gives no first argument.
const DefaultFirst = 100

// Resolver answers queries from the store at one block.
//
// Root fields are loaded by Prefetch: a field returning a list of entities
// becomes a Find with its first, skip, orderBy, orderDirection, where and
// text arguments; a single entity field becomes a FindOne by its id
// argument. Entity fields holding ids are followed when selected.
type Resolver struct {
	store  *Store
	schema *schema.Schema
	block  blockptr.Ptr
}

var _ executor.Resolver = (*Resolver)(nil)

func NewResolver(s *Store, sch *schema.Schema, block blockptr.Ptr) *Resolver {
	return &Resolver{store: s, schema: sch, block: block}
}

// Prefetch loads every root data field of selectionSet under
// "prefetch:<response key>".
func (r *Resolver) Prefetch(ectx *executor.ExecutionContext, selectionSet language.SelectionSet) (*value.Object, error) {
	rootType := r.schema.GetQueryType()
	if rootType == nil {
		return nil, fmt.Errorf("schema %s has no query type", r.schema.ID)
	}
	ctx := ectx.Context()
	out := value.NewObject()
	var errs executor.Errors

	grouped := executor.CollectFields(ectx, rootType, []language.SelectionSet{selectionSet})
	for _, group := range grouped.Ordered() {
		field := group.Fields[0]
		if field.Name == "__typename" || executor.IsIntrospectionField(field.Name) {
			continue
		}
		fieldDef := rootType.Field(field.Name)
		if fieldDef == nil {
			continue
		}
		args, argErrs := executor.CoerceArgumentValues(ectx, rootType, field)
		if len(argErrs) > 0 {
			errs = append(errs, argErrs...)
			continue
		}
		v, err := r.loadRoot(ctx, ectx.MaxFirst, fieldDef, args)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", group.ResponseKey, err))
			continue
		}
		out.Set("prefetch:"+group.ResponseKey, v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (r *Resolver) loadRoot(ctx context.Context, maxFirst uint32, fieldDef *schema.Field, args map[string]any) (any, error) {
	entities := r.entities(schema.GetNamedType(fieldDef.Type))
	if entities == nil {
		return nil, nil
	}
	if isListType(fieldDef.Type) {
		q, err := r.listQuery(entities, maxFirst, args)
		if err != nil {
			return nil, err
		}
		rows, err := r.store.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		return objects(rows), nil
	}
	id, ok := idArgument(args["id"])
	if !ok {
		return nil, nil
	}
	obj, err := r.store.FindOne(ctx, entities, id, r.block.Number)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

// listQuery builds a Find from list field arguments.
func (r *Resolver) listQuery(entities []string, maxFirst uint32, args map[string]any) (Query, error) {
	first := DefaultFirst
	q := Query{Entities: entities, Block: r.block.Number, First: &first}
	if v, ok := args["first"]; ok && v != nil {
		n, _ := v.(int)
		if n < 0 {
			return q, fmt.Errorf("first must not be negative, got %d", n)
		}
		if uint64(n) > uint64(maxFirst) {
			return q, fmt.Errorf("first must be at most %d, got %d", maxFirst, n)
		}
		first = n
	}
	if v, ok := args["skip"].(int); ok {
		if v < 0 {
			return q, fmt.Errorf("skip must not be negative, got %d", v)
		}
		q.Skip = v
	}
	if v, ok := args["orderBy"].(string); ok {
		q.OrderBy = v
	}
	if v, ok := args["orderDirection"].(string); ok {
		q.OrderDirection = v
	}
	if where, ok := args["where"].(map[string]any); ok {
		q.Where = make(map[string]any, len(where))
		for k, v := range where {
			if k == "id_in" {
				ids, ok := v.([]any)
				if !ok {
					return q, fmt.Errorf("id_in expects a list")
				}
				q.IDs = make([]string, 0, len(ids))
				for _, id := range ids {
					s, ok := idArgument(id)
					if !ok {
						return q, fmt.Errorf("id_in expects ids, got %v", id)
					}
					q.IDs = append(q.IDs, s)
				}
				continue
			}
			q.Where[k] = v
		}
	}
	if text, ok := args["text"].(*value.Object); ok {
		for _, k := range text.Keys() {
			s, _ := text.Get(k)
			q.Text, _ = s.(string)
		}
	}
	return q, nil
}

// entities returns the entity types stored for a named output type: the
// type itself for objects, its implementations for interfaces.
func (r *Resolver) entities(typeName string) []string {
	t := r.schema.Types[typeName]
	if t == nil {
		return nil
	}
	switch t.Kind {
	case schema.TypeKindObject:
		return []string{t.Name}
	case schema.TypeKindInterface, schema.TypeKindUnion:
		if len(t.PossibleTypes) == 0 {
			return nil
		}
		return t.PossibleTypes
	}
	return nil
}

// ResolveObject follows a reference held in fieldValue.
func (r *Resolver) ResolveObject(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	switch v := fieldValue.(type) {
	case nil:
		return nil, nil
	case *value.Object:
		return v, nil
	}
	id, ok := idArgument(fieldValue)
	if !ok {
		return nil, fmt.Errorf("field %s holds %T, not an entity reference", field.Name, fieldValue)
	}
	obj, err := r.store.FindOne(ctx, r.entities(objectType.Name), id, r.block.Number)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

// ResolveObjects follows a list of references held in fieldValue, applying
// the field's list arguments.
func (r *Resolver) ResolveObjects(ctx context.Context, fieldValue any, field *language.Field, fieldDef *schema.Field, objectType *schema.Type, args map[string]any) (any, error) {
	items, ok := fieldValue.([]any)
	if !ok {
		return fieldValue, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, loaded := item.(*value.Object); loaded {
			return items, nil
		}
		id, ok := idArgument(item)
		if !ok {
			return nil, fmt.Errorf("field %s holds %T, not an entity reference", field.Name, item)
		}
		ids = append(ids, id)
	}
	q, err := r.listQuery(r.entities(objectType.Name), math.MaxUint32, args)
	if err != nil {
		return nil, err
	}
	if q.IDs == nil {
		q.IDs = ids
	} else {
		q.IDs = intersect(ids, q.IDs)
	}
	rows, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return objects(rows), nil
}

func (r *Resolver) ResolveEnumValue(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

func (r *Resolver) ResolveEnumValues(ctx context.Context, field *language.Field, enumType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

func (r *Resolver) ResolveScalarValue(ctx context.Context, parentType *schema.Type, field *language.Field, scalarType *schema.Type, fieldValue any, args map[string]any) (any, error) {
	return fieldValue, nil
}

func (r *Resolver) ResolveScalarValues(ctx context.Context, field *language.Field, scalarType *schema.Type, fieldValue any) (any, error) {
	return fieldValue, nil
}

// ResolveAbstractType reads the entity type stamped on loaded entities.
func (r *Resolver) ResolveAbstractType(sch *schema.Schema, abstractType *schema.Type, fieldValue any) *schema.Type {
	obj, ok := fieldValue.(*value.Object)
	if !ok {
		return nil
	}
	name, _ := obj.Get("__typename")
	s, _ := name.(string)
	return sch.Types[s]
}

func idArgument(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int:
		return fmt.Sprint(t), true
	}
	return "", false
}

func isListType(t *schema.TypeRef) bool {
	if schema.IsNonNull(t) {
		t = schema.Unwrap(t)
	}
	return schema.IsList(t)
}

func objects(rows []*value.Object) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	out := []string{}
	for _, s := range a {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}
