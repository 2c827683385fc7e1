package sapmodel

import (
	"fmt"

	"github.com/tomblancdev/sapmodel-go/native"
)

// Decoder builds the i-th record from the parallel output columns of a call.
type Decoder[T any] func(c *Columns, i int) T

// Encoder writes one record into row i of a set-many call.
type Encoder[T any] func(w *ColumnWriter, i int, rec T)

// Map converts a raw native result into an [Outcome].
//
// A nonzero return code yields a failed outcome and the output columns are
// not read. A zero return code decodes Count records. The returned error is
// non-nil only when the native layer broke its own contract (missing or
// short columns, negative count); it is always of kind [KindUnexpected].
func Map[T any](raw *native.Result, cc CallContext, decode Decoder[T]) (Outcome[T], error) {
	if raw == nil {
		return Outcome[T]{}, newError(KindUnexpected, cc, "nil native result", nil)
	}
	if raw.Code != 0 {
		msg := fmt.Sprintf("%s failed with return code %d", cc, raw.Code)
		return Failure[T](raw.Code, msg).withContext(cc), nil
	}
	if raw.Count < 0 {
		return Outcome[T]{}, newError(KindUnexpected, cc,
			fmt.Sprintf("native layer reported negative count %d", raw.Count), nil)
	}

	cols := newColumns(raw.Fields, raw.Count, cc)
	// Count is untrusted until the columns are checked.
	records := make([]T, 0, min(raw.Count, longestColumn(raw.Fields)))
	for i := 0; i < raw.Count; i++ {
		rec := decode(cols, i)
		if cols.err != nil {
			return Outcome[T]{}, cols.err
		}
		records = append(records, rec)
	}
	return Success(records).withContext(cc), nil
}

func longestColumn(fields map[string]native.Column) int {
	n := 0
	for _, col := range fields {
		n = max(n, col.Len())
	}
	return n
}

// mapOne decodes a scalar-output call, which reports no count of its own,
// as a single record.
func mapOne[T any](raw *native.Result, cc CallContext, decode Decoder[T]) (T, error) {
	var zero T
	if raw != nil && raw.Code == 0 {
		one := *raw
		one.Count = 1
		raw = &one
	}
	out, err := Map(raw, cc, decode)
	if err != nil {
		return zero, err
	}
	return out.First()
}

// Columns gives bounds-checked access to the parallel arrays of one result.
//
// Accessors never panic. The first contract violation is recorded and every
// later access returns the zero value; [Map] reports it after the decoder
// returns.
type Columns struct {
	fields  map[string]native.Column
	count   int
	checked map[string]native.ColumnKind
	cc      CallContext
	err     error
}

func newColumns(fields map[string]native.Column, count int, cc CallContext) *Columns {
	return &Columns{
		fields:  fields,
		count:   count,
		checked: make(map[string]native.ColumnKind, len(fields)),
		cc:      cc,
	}
}

// Count returns the number of records declared by the native call.
func (c *Columns) Count() int {
	return c.count
}

// Err returns the first contract violation seen, if any.
func (c *Columns) Err() error {
	return c.err
}

// String returns element i of the named string column.
func (c *Columns) String(name string, i int) string {
	col, ok := c.column(name, native.KindString, i)
	if !ok {
		return ""
	}
	return col.Strings[i]
}

// Float returns element i of the named float column.
func (c *Columns) Float(name string, i int) float64 {
	col, ok := c.column(name, native.KindFloat, i)
	if !ok {
		return 0
	}
	return col.Floats[i]
}

// Int returns element i of the named int column.
func (c *Columns) Int(name string, i int) int {
	col, ok := c.column(name, native.KindInt, i)
	if !ok {
		return 0
	}
	return col.Ints[i]
}

// Bool returns element i of the named bool column.
func (c *Columns) Bool(name string, i int) bool {
	col, ok := c.column(name, native.KindBool, i)
	if !ok {
		return false
	}
	return col.Bools[i]
}

func (c *Columns) column(name string, kind native.ColumnKind, i int) (native.Column, bool) {
	if c.err != nil {
		return native.Column{}, false
	}
	if i < 0 || i >= c.count {
		c.fail(fmt.Sprintf("row %d out of range [0, %d)", i, c.count))
		return native.Column{}, false
	}
	col, ok := c.fields[name]
	if !ok {
		c.fail(fmt.Sprintf("missing output array %q", name))
		return native.Column{}, false
	}
	if seen, ok := c.checked[name]; ok && seen == kind {
		return col, true
	}
	if got := col.Kind(); got != kind {
		c.fail(fmt.Sprintf("output array %q is %s, want %s", name, got, kind))
		return native.Column{}, false
	}
	if n := col.Len(); n < c.count {
		c.fail(fmt.Sprintf("output array %q has %d values, native layer declared %d", name, n, c.count))
		return native.Column{}, false
	}
	c.checked[name] = kind
	return col, true
}

func (c *Columns) fail(msg string) {
	c.err = newError(KindUnexpected, c.cc, msg, nil)
}

// Encode transposes records into equal-length parallel columns for a
// set-many call.
func Encode[T any](records []T, encode Encoder[T]) map[string]native.Column {
	w := NewColumnWriter(len(records))
	for i, rec := range records {
		encode(w, i, rec)
	}
	return w.Columns()
}

// ColumnWriter builds parallel columns of a fixed length. Each named column
// is allocated on first write, so every column it returns has the same
// length.
type ColumnWriter struct {
	n      int
	fields map[string]native.Column
}

// NewColumnWriter returns a writer for n rows.
func NewColumnWriter(n int) *ColumnWriter {
	return &ColumnWriter{n: n, fields: make(map[string]native.Column)}
}

// String sets row i of the named string column.
func (w *ColumnWriter) String(name string, i int, v string) {
	col := w.fields[name]
	if col.Strings == nil {
		col.Strings = make([]string, w.n)
	}
	col.Strings[i] = v
	w.fields[name] = col
}

// Float sets row i of the named float column.
func (w *ColumnWriter) Float(name string, i int, v float64) {
	col := w.fields[name]
	if col.Floats == nil {
		col.Floats = make([]float64, w.n)
	}
	col.Floats[i] = v
	w.fields[name] = col
}

// Int sets row i of the named int column.
func (w *ColumnWriter) Int(name string, i int, v int) {
	col := w.fields[name]
	if col.Ints == nil {
		col.Ints = make([]int, w.n)
	}
	col.Ints[i] = v
	w.fields[name] = col
}

// Bool sets row i of the named bool column.
func (w *ColumnWriter) Bool(name string, i int, v bool) {
	col := w.fields[name]
	if col.Bools == nil {
		col.Bools = make([]bool, w.n)
	}
	col.Bools[i] = v
	w.fields[name] = col
}

// Columns returns the written columns.
func (w *ColumnWriter) Columns() map[string]native.Column {
	return w.fields
}
