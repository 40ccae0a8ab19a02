// Package listing implements client-style table operations over record sets:
// attribute filters, free-text search, sorting and pagination.
package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MaxLimit caps the page size.
const MaxLimit = 100

// Item is anything that exposes its listable attributes. Attribute values
// are string, int, bool, []string or time.Time.
type Item interface {
	Attrs() map[string]any
}

// Query describes one list request.
type Query struct {
	Filters map[string]string
	Search  string
	// Sort names an attribute; a leading "-" sorts descending.
	Sort   string
	Limit  int
	Offset int
}

// Apply filters, searches, sorts and paginates items. It returns the page and
// the number of items that matched before pagination. The input slice is not
// modified.
func Apply[T Item](items []T, q Query) ([]T, int) {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]T, 0, len(items))
	for _, it := range items {
		attrs := it.Attrs()
		if !matchFilters(attrs, q.Filters) {
			continue
		}
		if needle != "" && !matchSearch(attrs, needle) {
			continue
		}
		matched = append(matched, it)
	}

	sortItems(matched, q.Sort)

	total := len(matched)
	offset := max(q.Offset, 0)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit := clampLimit(q.Limit); limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total
}

// ParseQuery reads q, sort, limit and offset from v, plus a filter for every
// name in filterable that has a non-empty value. Other parameters are ignored.
func ParseQuery(v url.Values, filterable ...string) Query {
	q := Query{
		Search: v.Get("q"),
		Sort:   v.Get("sort"),
	}
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	q.Offset, _ = strconv.Atoi(v.Get("offset"))
	for _, name := range filterable {
		if val := strings.TrimSpace(v.Get(name)); val != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[name] = val
		}
	}
	return q
}

func clampLimit(limit int) int {
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func matchFilters(attrs map[string]any, filters map[string]string) bool {
	for name, want := range filters {
		v, ok := attrs[name]
		if !ok || !matchValue(v, want) {
			return false
		}
	}
	return true
}

func matchValue(v any, want string) bool {
	switch x := v.(type) {
	case string:
		return strings.EqualFold(x, want)
	case int:
		n, err := strconv.Atoi(want)
		return err == nil && n == x
	case bool:
		b, err := strconv.ParseBool(want)
		return err == nil && b == x
	case []string:
		return slices.ContainsFunc(x, func(s string) bool { return strings.EqualFold(s, want) })
	default:
		return false
	}
}

func matchSearch(attrs map[string]any, needle string) bool {
	for _, v := range attrs {
		switch x := v.(type) {
		case string:
			if strings.Contains(strings.ToLower(x), needle) {
				return true
			}
		case []string:
			for _, s := range x {
				if strings.Contains(strings.ToLower(s), needle) {
					return true
				}
			}
		}
	}
	return false
}

func sortItems[T Item](items []T, spec string) {
	field, desc := strings.CutPrefix(spec, "-")
	if field == "" {
		slices.SortStableFunc(items, func(a, b T) int {
			aa, ba := a.Attrs(), b.Attrs()
			if c := compare(aa["order_index"], ba["order_index"]); c != 0 {
				return c
			}
			return compare(aa["created_at"], ba["created_at"])
		})
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c := compare(a.Attrs()[field], b.Attrs()[field])
		if desc {
			return -c
		}
		return c
	})
}

// compare orders two attribute values of the same type. Missing or
// mismatched values compare equal so a stable sort keeps their order.
func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case int:
		if y, ok := b.(int); ok {
			return x - y
		}
	case bool:
		if y, ok := b.(bool); ok && x != y {
			if x {
				return 1
			}
			return -1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case []string:
		if y, ok := b.([]string); ok {
			return len(x) - len(y)
		}
	}
	return 0
}
