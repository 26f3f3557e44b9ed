package schema

import "math"

// Column is a read-only view over one named column of a table.
type Column interface {
	Len() int
	// Null reports whether row i holds no value.
	Null(i int) bool
	// Value returns row i as a float64 for range checks.
	Value(i int) float64
}

// Table is anything the validators can inspect by column name.
type Table interface {
	Name() string
	Len() int
	// Column returns the named column, or false when the table does not carry it.
	Column(name string) (Column, bool)
}

// Float64s is a real-valued column. NaN marks a null.
type Float64s []float64

func (c Float64s) Len() int            { return len(c) }
func (c Float64s) Null(i int) bool     { return math.IsNaN(c[i]) }
func (c Float64s) Value(i int) float64 { return c[i] }

// Int64s is an integer column. Integers are never null.
type Int64s []int64

func (c Int64s) Len() int            { return len(c) }
func (c Int64s) Null(int) bool       { return false }
func (c Int64s) Value(i int) float64 { return float64(c[i]) }

// Frame is a map-backed Table for callers that assemble columns themselves.
type Frame struct {
	name string
	rows int
	cols map[string]Column
}

// NewFrame returns an empty frame with the given table name and row count.
func NewFrame(name string, rows int) *Frame {
	return &Frame{name: name, rows: rows, cols: make(map[string]Column)}
}

// With adds or replaces a column and returns the frame for chaining.
func (f *Frame) With(name string, col Column) *Frame {
	f.cols[name] = col
	return f
}

// Without removes a column and returns the frame for chaining.
func (f *Frame) Without(name string) *Frame {
	delete(f.cols, name)
	return f
}

func (f *Frame) Name() string { return f.name }
func (f *Frame) Len() int     { return f.rows }

func (f *Frame) Column(name string) (Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}
