package models

import (
	"fmt"
	"sort"
	"time"
)

// PricePoint is a single close observation.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// ReturnMatrix is a set of return series sharing one strictly increasing time index.
type ReturnMatrix struct {
	Index   []time.Time          `json:"index"`
	Columns map[string][]float64 `json:"columns"`
}

// NewReturnMatrix creates an empty matrix over the given index.
func NewReturnMatrix(index []time.Time) *ReturnMatrix {
	return &ReturnMatrix{
		Index:   index,
		Columns: make(map[string][]float64),
	}
}

// Len returns the number of time steps.
func (m *ReturnMatrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Index)
}

// Has reports whether symbol is a column of the matrix.
func (m *ReturnMatrix) Has(symbol string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Columns[symbol]
	return ok
}

// Column returns the series for symbol.
func (m *ReturnMatrix) Column(symbol string) ([]float64, bool) {
	if m == nil {
		return nil, false
	}
	col, ok := m.Columns[symbol]
	return col, ok
}

// Symbols returns the column names in sorted order.
func (m *ReturnMatrix) Symbols() []string {
	if m == nil {
		return nil
	}
	symbols := make([]string, 0, len(m.Columns))
	for s := range m.Columns {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Empty reports whether the matrix has no rows or no columns.
func (m *ReturnMatrix) Empty() bool {
	return m.Len() == 0 || len(m.Columns) == 0
}

// Validate checks that the index is strictly increasing and every column spans it.
func (m *ReturnMatrix) Validate() error {
	if m == nil {
		return fmt.Errorf("return matrix is nil")
	}
	for i := 1; i < len(m.Index); i++ {
		if !m.Index[i].After(m.Index[i-1]) {
			return fmt.Errorf("index is not strictly increasing at position %d", i)
		}
	}
	for symbol, col := range m.Columns {
		if len(col) != len(m.Index) {
			return fmt.Errorf("column %s has %d values for %d index entries", symbol, len(col), len(m.Index))
		}
	}
	return nil
}
