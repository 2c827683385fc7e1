package native

import "fmt"

// ColumnKind identifies the element type of a Column.
type ColumnKind uint8

const (
	KindEmpty ColumnKind = iota
	KindString
	KindFloat
	KindInt
	KindBool
)

// String returns the kind name.
func (k ColumnKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("ColumnKind(%d)", uint8(k))
	}
}

// Column is one parallel output or input array. Exactly one slice is set.
type Column struct {
	Strings []string  `json:"strings,omitempty"`
	Floats  []float64 `json:"floats,omitempty"`
	Ints    []int     `json:"ints,omitempty"`
	Bools   []bool    `json:"bools,omitempty"`
}

// Strings wraps a string slice as a Column.
func Strings(v ...string) Column { return Column{Strings: v} }

// Floats wraps a float slice as a Column.
func Floats(v ...float64) Column { return Column{Floats: v} }

// Ints wraps an int slice as a Column.
func Ints(v ...int) Column { return Column{Ints: v} }

// Bools wraps a bool slice as a Column.
func Bools(v ...bool) Column { return Column{Bools: v} }

// Kind reports which slice is populated. An all-empty column reports KindEmpty.
func (c Column) Kind() ColumnKind {
	switch {
	case c.Strings != nil:
		return KindString
	case c.Floats != nil:
		return KindFloat
	case c.Ints != nil:
		return KindInt
	case c.Bools != nil:
		return KindBool
	default:
		return KindEmpty
	}
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.Kind() {
	case KindString:
		return len(c.Strings)
	case KindFloat:
		return len(c.Floats)
	case KindInt:
		return len(c.Ints)
	case KindBool:
		return len(c.Bools)
	default:
		return 0
	}
}
