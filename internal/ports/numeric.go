// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. The probe domain depends
// only on these interfaces, never on the concrete LAPACK, FPU or storage adapters.
package ports

// Real is the set of element types the decomposition routine is exported for.
// Anything else is rejected at compile time.
type Real interface {
	float32 | float64
}

// Precision names an element type in reports and ledger records.
type Precision string

const (
	Float32 Precision = "float32"
	Float64 Precision = "float64"
)

// PrecisionOf returns the Precision for T.
func PrecisionOf[T Real]() Precision {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return Float32
	}
	return Float64
}

// Index returns the bit offset of p within a regime pair (float32 first).
func (p Precision) Index() int {
	if p == Float32 {
		return 0
	}
	return 1
}

// Short returns the C type name used in console lines ("float"/"double").
func (p Precision) Short() string {
	if p == Float32 {
		return "float"
	}
	return "double"
}
