// Package executor implements a recursive, block-aware GraphQL executor that
// answers query operations through a pluggable Resolver.
//
// # Execution Model
//
// Execution starts at the root selection set. Root fields are split in two:
//   - Data fields are prefetched in one call to Resolver.Prefetch and then
//     executed against the query root type. The prefetched object holds raw
//     values under "prefetch:<response key>" or under the field name.
//   - __schema and __type are executed against the introspection schema with
//     the introspection resolver bound in a derived ExecutionContext.
//
// A selection set is executed depth first. Fields are collected into response
// key groups (honouring @skip, @include, fragment spreads and inline
// fragments whose type condition applies), then each group is resolved and
// completed in query order. The deadline is checked between groups; once it
// has passed the remaining groups are not executed.
//
// # Resolution
//
// The field's declared type decides which Resolver method is called:
// object and interface types go to ResolveObject (ResolveObjects for lists),
// enums to ResolveEnumValue(s) and scalars to ResolveScalarValue(s). Fields
// whose type is a union, or a list of lists, are not supported. __typename is
// answered by the executor.
//
// # Completion
//
// Completion checks the resolved value against the declared type:
//   - A null for a non-null type fails the field with a NonNullError. The
//     failure stays with the field; parents are not nulled.
//   - Lists complete element by element and collect every element error.
//   - Scalars and enums are coerced to their output representation.
//   - Interfaces are resolved to an object type with ResolveAbstractType.
//   - Objects execute their sub-selection against the resolved value.
//
// A selection set whose execution reports any error yields no data; the
// errors of all its fields are returned together.
//
// # Caching
//
// ExecuteRootSelectionSet routes the root through the querycache package:
// answers are keyed by CacheKey and kept per block when the schema is cached.
package executor
