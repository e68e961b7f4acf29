// Package table sorts and pages entity lists the way the portal's data tables do.
package table

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"campus-portal/internal/domain"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortState is the current sort column and direction. A zero Key means unsorted.
type SortState struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Toggle returns the state after clicking column key: the same key flips the
// direction, a new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key {
		if s.Direction == Asc {
			return SortState{Key: key, Direction: Desc}
		}
		return SortState{Key: key, Direction: Asc}
	}
	return SortState{Key: key, Direction: Asc}
}

// ParseSort builds a SortState from query parameters.
func ParseSort(sortBy, sortOrder string) (SortState, error) {
	if sortBy == "" {
		return SortState{}, nil
	}
	switch Direction(strings.ToLower(sortOrder)) {
	case "", Asc:
		return SortState{Key: sortBy, Direction: Asc}, nil
	case Desc:
		return SortState{Key: sortBy, Direction: Desc}, nil
	default:
		return SortState{}, domain.NewInvalidInputError(fmt.Sprintf("sort_order must be asc or desc, got %q", sortOrder))
	}
}

// Columns maps a sort key to the value it sorts by.
type Columns[T any] map[string]func(T) interface{}

// Keys lists the sortable keys in alphabetical order.
func (c Columns[T]) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sort returns a sorted copy of items. The sort is stable, strings compare
// case-insensitively and empty values go last in either direction.
func Sort[T any](items []T, state SortState, columns Columns[T]) ([]T, error) {
	out := append([]T(nil), items...)
	if state.Key == "" {
		return out, nil
	}
	value, ok := columns[state.Key]
	if !ok {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot sort by %q", state.Key)).
			WithContext("sortable", columns.Keys())
	}
	desc := state.Direction == Desc

	sort.SliceStable(out, func(i, j int) bool {
		a, b := value(out[i]), value(out[j])
		aEmpty, bEmpty := isEmpty(a), isEmpty(b)
		switch {
		case aEmpty && bEmpty:
			return false
		case aEmpty:
			return false
		case bEmpty:
			return true
		}
		c := compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case time.Time:
		return x.IsZero()
	case *time.Time:
		return x == nil || x.IsZero()
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case *time.Time:
		if y, ok := b.(*time.Time); ok {
			return x.Compare(*y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
