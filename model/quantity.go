package model

import "fmt"

// Quantity is a physical scalar: a value paired with a unit string.
// Quantities round-trip exactly in both value and unit.
type Quantity struct {
	Value float64
	Unit  string
}

// Q is a shorthand constructor for a Quantity.
func Q(value float64, unit string) Quantity {
	return Quantity{Value: value, Unit: unit}
}

// String returns "<value> <unit>".
func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}
