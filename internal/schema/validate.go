package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrNullValues     = errors.New("found nulls in columns")
	ErrOutOfRange     = errors.New("values out of range")
	ErrLengthMismatch = errors.New("column length does not match row count")
)

// ValidationError describes a failed table check. Rule is one of the
// package sentinels and is what errors.Is matches against.
type ValidationError struct {
	Table   string
	Rule    error
	Columns []string
	Column  string
	Rows    int
	Lo, Hi  float64

	// TableRows is set for ErrLengthMismatch.
	TableRows int
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case ErrMissingColumns, ErrNullValues:
		return fmt.Sprintf("%s: %s: [%s]", e.Table, e.Rule, strings.Join(e.Columns, ", "))
	case ErrLengthMismatch:
		return fmt.Sprintf("%s: column '%s' has %d rows, table has %d", e.Table, e.Column, e.Rows, e.TableRows)
	}
	if math.IsInf(e.Hi, 1) {
		return fmt.Sprintf("%s: column '%s' must be >= %g, %d rows below", e.Table, e.Column, e.Lo, e.Rows)
	}
	return fmt.Sprintf("%s: column '%s' out of range [%g, %g] for %d rows", e.Table, e.Column, e.Lo, e.Hi, e.Rows)
}

func (e *ValidationError) Unwrap() error { return e.Rule }

// RequireColumns fails when any of cols is absent from t.
func RequireColumns(t Table, cols []string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.Column(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Table: t.Name(), Rule: ErrMissingColumns, Columns: missing}
	}
	return nil
}

// RequireNoNulls fails when any of cols holds a null, or is not as long as the table.
// Absent columns are skipped; call RequireColumns first.
func RequireNoNulls(t Table, cols []string) error {
	var nulls []string
	for _, name := range cols {
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		if c.Len() != t.Len() {
			return &ValidationError{Table: t.Name(), Rule: ErrLengthMismatch, Column: name, Rows: c.Len(), TableRows: t.Len()}
		}
		for i := 0; i < c.Len(); i++ {
			if c.Null(i) {
				nulls = append(nulls, name)
				break
			}
		}
	}
	if len(nulls) > 0 {
		return &ValidationError{Table: t.Name(), Rule: ErrNullValues, Columns: nulls}
	}
	return nil
}

// RequireRange fails when any value of col lies outside the closed interval [lo, hi].
func RequireRange(t Table, col string, lo, hi float64) error {
	c, ok := t.Column(col)
	if !ok {
		return &ValidationError{Table: t.Name(), Rule: ErrMissingColumns, Columns: []string{col}}
	}
	bad := 0
	for i := 0; i < c.Len(); i++ {
		if c.Null(i) {
			continue
		}
		if v := c.Value(i); v < lo || v > hi {
			bad++
		}
	}
	if bad > 0 {
		return &ValidationError{Table: t.Name(), Rule: ErrOutOfRange, Column: col, Rows: bad, Lo: lo, Hi: hi}
	}
	return nil
}

// RequireMin fails when any value of col is below lo.
func RequireMin(t Table, col string, lo float64) error {
	return RequireRange(t, col, lo, math.Inf(1))
}

// ValidateUsers checks the user table after retention labeling.
func ValidateUsers(t Table) error {
	if err := RequireColumns(t, UserColumns); err != nil {
		return err
	}
	if err := RequireNoNulls(t, UserColumns); err != nil {
		return err
	}
	if err := RequireRange(t, FeedQuality, 0, 1); err != nil {
		return err
	}
	return RequireRange(t, Wk4Retention, 0, 1)
}

// ValidateUserWeeks checks the user-week table.
func ValidateUserWeeks(t Table) error {
	if err := RequireColumns(t, UserWeekColumns); err != nil {
		return err
	}
	if err := RequireNoNulls(t, UserWeekColumns); err != nil {
		return err
	}
	if err := RequireRange(t, Confidence, 0, 1); err != nil {
		return err
	}
	if err := RequireRange(t, EditRate, 0, 1); err != nil {
		return err
	}
	if err := RequireMin(t, Week, 1); err != nil {
		return err
	}
	return RequireMin(t, NTxn, 0)
}
