package executor

import (
	"github.com/hanpama/blockql/internal/blockptr"
	language "github.com/hanpama/blockql/internal/language"
	"github.com/hanpama/blockql/internal/querycache"
	schema "github.com/hanpama/blockql/internal/schema"
	"github.com/hanpama/blockql/internal/value"
)

// ExecuteRootSelectionSet answers the root selection set at block, going
// through ectx.Cache when the query's schema is cached. Only answers without
// errors are stored.
func ExecuteRootSelectionSet(ectx *ExecutionContext, selectionSet language.SelectionSet, rootType *schema.Type, block *blockptr.Ptr) querycache.MaybeCached[*ExecutionResult] {
	q := ectx.Query
	return ectx.Cache.Run(
		q.Schema.ID,
		block,
		func() querycache.Key { return CacheKey(q, selectionSet, *block) },
		func() *ExecutionResult { return ExecuteRootSelectionSetUncached(ectx, selectionSet, rootType) },
		func(r *ExecutionResult) bool { return !r.HasErrors() },
	)
}

// ExecuteRootSelectionSetUncached executes the root selection set. Data
// fields are prefetched through the resolver and executed against rootType;
// __schema and __type are executed under the introspection context. The two
// results are merged, data fields first.
func ExecuteRootSelectionSetUncached(ectx *ExecutionContext, selectionSet language.SelectionSet, rootType *schema.Type) *ExecutionResult {
	ectx.cached.Store(false)

	grouped := CollectFields(ectx, rootType, []language.SelectionSet{selectionSet})
	var dataSet, introspectionSet language.SelectionSet
	for _, group := range grouped.Ordered() {
		for _, f := range group.Fields {
			if IsIntrospectionField(f.Name) {
				introspectionSet = append(introspectionSet, f)
			} else {
				dataSet = append(dataSet, f)
			}
		}
	}

	values := value.NewObject()
	if len(dataSet) > 0 {
		initial, err := ectx.Resolver.Prefetch(ectx, selectionSet)
		if err != nil {
			return &ExecutionResult{Errors: flatten(err)}
		}
		data, errs := executeSelectionSetToMap(ectx, []language.SelectionSet{dataSet}, rootType, initial)
		if len(errs) > 0 {
			return &ExecutionResult{Errors: errs}
		}
		values.Merge(data)
	}

	if len(introspectionSet) > 0 {
		ictx := ectx.AsIntrospectionContext()
		if ictx == nil {
			var errs []error
			for _, sel := range introspectionSet {
				f := sel.(*language.Field)
				errs = append(errs, &UnknownFieldError{located: at(f), Type: rootType.Name, Field: f.Name})
			}
			return &ExecutionResult{Errors: errs}
		}
		introspectionType := ictx.Query.Schema.GetQueryType()
		data, errs := executeSelectionSetToMap(ictx, []language.SelectionSet{introspectionSet}, introspectionType, nil)
		if len(errs) > 0 {
			return &ExecutionResult{Errors: errs}
		}
		values.Merge(data)
	}

	return resultOf(values, nil)
}
