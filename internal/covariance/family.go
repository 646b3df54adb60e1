// Package covariance defines the Gaussian-process correlation families
// whose range (effective correlation length) parameter is profiled over
// a candidate grid. Each family maps a separation distance and a range
// value to a correlation in (0, 1].
package covariance

import (
	"fmt"
	"math"
	"strings"
)

// Family is a parametric correlation family. The range parameter is
// supplied per call rather than stored so a single descriptor can be
// reused across every candidate in a profiling grid.
type Family interface {
	// Name returns a stable identifier ("matern32", "se", ...) used for
	// score-table keys, database rows and plot labels.
	Name() string

	// Corr returns the correlation between two points separated by
	// distance d under range rng. d is non-negative; rng is strictly
	// positive. Corr(0, rng) == 1 for every family.
	Corr(d, rng float64) float64
}

// MaternOrder selects the smoothness order of a Matern family.
type MaternOrder int

const (
	// OrderHalf is the Matern nu=1/2 (exponential) kernel.
	OrderHalf MaternOrder = iota
	// OrderThreeHalves is the Matern nu=3/2 kernel.
	OrderThreeHalves
	// OrderFiveHalves is the Matern nu=5/2 kernel.
	OrderFiveHalves
)

// Matern is the Matern correlation family at a fixed smoothness order.
type Matern struct {
	Order MaternOrder
}

var _ Family = Matern{}

func (m Matern) Name() string {
	switch m.Order {
	case OrderHalf:
		return "matern12"
	case OrderThreeHalves:
		return "matern32"
	case OrderFiveHalves:
		return "matern52"
	}
	return fmt.Sprintf("matern(order=%d)", int(m.Order))
}

func (m Matern) Corr(d, rng float64) float64 {
	if d <= 0 {
		return 1
	}
	switch m.Order {
	case OrderHalf:
		return math.Exp(-d / rng)
	case OrderThreeHalves:
		a := math.Sqrt(3) * d / rng
		return (1 + a) * math.Exp(-a)
	case OrderFiveHalves:
		a := math.Sqrt(5) * d / rng
		return (1 + a + a*a/3) * math.Exp(-a)
	}
	return math.NaN()
}

// SquaredExponential is the squared-exponential (Gaussian) correlation
// family.
type SquaredExponential struct{}

var _ Family = SquaredExponential{}

func (SquaredExponential) Name() string { return "se" }

func (SquaredExponential) Corr(d, rng float64) float64 {
	if d <= 0 {
		return 1
	}
	a := d / rng
	return math.Exp(-0.5 * a * a)
}

// Parse maps a family name (as produced by Name, case-insensitive) back
// to its descriptor. Used by command-line flags and stored runs.
func Parse(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "matern12", "exponential":
		return Matern{Order: OrderHalf}, nil
	case "matern32":
		return Matern{Order: OrderThreeHalves}, nil
	case "matern52":
		return Matern{Order: OrderFiveHalves}, nil
	case "se", "gaussian", "squaredexponential":
		return SquaredExponential{}, nil
	}
	return nil, fmt.Errorf("unknown covariance family %q", name)
}
