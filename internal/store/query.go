package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hanpama/blockql/internal/value"
)

// Order directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Query selects entity versions visible at Block.
type Query struct {
	// Entities lists the entity types searched. More than one is used for
	// interface fields.
	Entities []string
	Block    uint64
	// IDs restricts the result to the given ids when non-nil.
	IDs   []string
	Where map[string]any
	// Text matches entities with any string field containing it.
	Text           string
	OrderBy        string
	OrderDirection string
	// First bounds the number of results when set.
	First *int
	Skip  int
}

var attributeName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// filter operators by suffix, longest first.
var operators = []struct {
	suffix string
	sql    string
	list   bool
}{
	{"_not_in", "NOT IN", true},
	{"_in", "IN", true},
	{"_not", "<>", false},
	{"_gte", ">=", false},
	{"_lte", "<=", false},
	{"_gt", ">", false},
	{"_lt", "<", false},
}

// FindOne loads the version of entity id visible at block, or nil.
func (s *Store) FindOne(ctx context.Context, entities []string, id string, block uint64) (*value.Object, error) {
	one := 1
	rows, err := s.Find(ctx, Query{Entities: entities, Block: block, IDs: []string{id}, First: &one})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Find loads the entity versions matching q. Each result carries its
// fields, its id and __typename set to its entity type.
func (s *Store) Find(ctx context.Context, q Query) (out []*value.Object, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, strings.Join(q.Entities, ","), q.Block, start, len(out), err) }()

	if len(q.Entities) == 0 {
		return nil, nil
	}
	if q.IDs != nil && len(q.IDs) == 0 {
		return nil, nil
	}
	query, args, err := q.sql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q.Entities, err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

func (q Query) sql() (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(`SELECT entity, data FROM entities WHERE entity IN (`)
	for i, e := range q.Entities {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
		args = append(args, e)
	}
	b.WriteString(`) AND block_from <= ? AND (block_to IS NULL OR block_to > ?)`)
	args = append(args, int64(q.Block), int64(q.Block))

	if q.IDs != nil {
		b.WriteString(" AND id IN (" + placeholders(len(q.IDs)) + ")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}

	for _, key := range sortedKeys(q.Where) {
		cond, condArgs, err := condition(key, q.Where[key])
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" AND " + cond)
		args = append(args, condArgs...)
	}

	if q.Text != "" {
		b.WriteString(` AND EXISTS (SELECT 1 FROM json_each(entities.data) WHERE json_each.type = 'text' AND json_each.value LIKE ? ESCAPE '\')`)
		args = append(args, "%"+escapeLike(q.Text)+"%")
	}

	dir := "ASC"
	switch strings.ToLower(q.OrderDirection) {
	case "", Asc:
	case Desc:
		dir = "DESC"
	default:
		return "", nil, fmt.Errorf("invalid order direction %q", q.OrderDirection)
	}
	if q.OrderBy != "" && q.OrderBy != "id" {
		expr, err := attribute(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" ORDER BY " + expr + " " + dir + ", id " + dir)
	} else {
		b.WriteString(" ORDER BY id " + dir)
	}
	b.WriteString(", entity")

	if q.First != nil {
		b.WriteString(" LIMIT ?")
		args = append(args, *q.First)
	} else {
		b.WriteString(" LIMIT -1")
	}
	if q.Skip > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, q.Skip)
	}
	return b.String(), args, nil
}

func condition(key string, v any) (string, []any, error) {
	field, op, list := key, "=", false
	for _, o := range operators {
		if strings.HasSuffix(key, o.suffix) && len(key) > len(o.suffix) {
			field, op, list = strings.TrimSuffix(key, o.suffix), o.sql, o.list
			break
		}
	}
	expr, err := attribute(field)
	if err != nil {
		return "", nil, err
	}
	if !list {
		if v == nil {
			if op == "<>" {
				return expr + " IS NOT NULL", nil, nil
			}
			if op == "=" {
				return expr + " IS NULL", nil, nil
			}
			return "", nil, fmt.Errorf("filter %s cannot compare with null", key)
		}
		return expr + " " + op + " ?", []any{sqlValue(v)}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return "", nil, fmt.Errorf("filter %s expects a list", key)
	}
	if len(items) == 0 {
		if op == "IN" {
			return "0", nil, nil
		}
		return "1", nil, nil
	}
	args := make([]any, len(items))
	for i, item := range items {
		args[i] = sqlValue(item)
	}
	return expr + " " + op + " (" + placeholders(len(items)) + ")", args, nil
}

func attribute(name string) (string, error) {
	if name == "id" {
		return "id", nil
	}
	if !attributeName.MatchString(name) {
		return "", fmt.Errorf("invalid attribute name %q", name)
	}
	return "json_extract(data, '$." + name + "')", nil
}

// sqlValue converts a filter value to what json_extract yields for it.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case value.Enum:
		return string(t)
	}
	return v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanEntities(rows *sql.Rows) ([]*value.Object, error) {
	var out []*value.Object
	for rows.Next() {
		var entity, data string
		if err := rows.Scan(&entity, &data); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		decoded, err := value.FromJSON([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entity, err)
		}
		obj, ok := decoded.(*value.Object)
		if !ok {
			return nil, fmt.Errorf("decode %s: stored data is not an object", entity)
		}
		obj.Set("__typename", entity)
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
