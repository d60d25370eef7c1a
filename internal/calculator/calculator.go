// Package calculator estimates trip fuel consumption.
package calculator

// Result is the outcome of one estimate.
type Result struct {
	Distance  float64
	Tonnage   float64
	TotalFuel float64
}

// Compute estimates fuel for a trip from odometer readings, cargo in kg and the
// driver's rates (l/100 km, and l/100 km per ton). The operations run in a fixed
// order so results are reproducible to the bit.
func Compute(start, end, cargoKg, baseRate, extraRate float64) Result {
	distance := end - start
	tonnage := cargoKg / 1000
	base := distance / 100 * baseRate
	extra := distance / 100 * tonnage * extraRate
	return Result{
		Distance:  distance,
		Tonnage:   tonnage,
		TotalFuel: base + extra,
	}
}
