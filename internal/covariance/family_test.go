package covariance

import (
	"math"
	"testing"
)

func allFamilies() []Family {
	return []Family{
		Matern{Order: OrderHalf},
		Matern{Order: OrderThreeHalves},
		Matern{Order: OrderFiveHalves},
		SquaredExponential{},
	}
}

func TestCorrAtZeroDistance(t *testing.T) {
	for _, f := range allFamilies() {
		if got := f.Corr(0, 100); got != 1 {
			t.Errorf("%s: Corr(0, 100) = %v, want 1", f.Name(), got)
		}
	}
}

func TestCorrMonotoneDecreasing(t *testing.T) {
	const rng = 50.0
	for _, f := range allFamilies() {
		prev := 1.0
		for d := 1.0; d <= 500; d += 7 {
			c := f.Corr(d, rng)
			if c <= 0 || c > 1 {
				t.Fatalf("%s: Corr(%v, %v) = %v out of (0, 1]", f.Name(), d, rng, c)
			}
			if c >= prev {
				t.Fatalf("%s: correlation not decreasing at d=%v (%v >= %v)", f.Name(), d, c, prev)
			}
			prev = c
		}
	}
}

func TestLargerRangeGivesStrongerCorrelation(t *testing.T) {
	const d = 40.0
	for _, f := range allFamilies() {
		narrow := f.Corr(d, 10)
		wide := f.Corr(d, 200)
		if wide <= narrow {
			t.Errorf("%s: Corr(%v, 200) = %v should exceed Corr(%v, 10) = %v",
				f.Name(), d, wide, d, narrow)
		}
	}
}

func TestMaternKnownValues(t *testing.T) {
	// Matern 1/2 is the plain exponential kernel.
	m := Matern{Order: OrderHalf}
	if got, want := m.Corr(10, 10), math.Exp(-1); math.Abs(got-want) > 1e-12 {
		t.Errorf("matern12 Corr(10, 10) = %v, want %v", got, want)
	}

	// Matern 3/2 at d = rng/sqrt(3): a = 1, corr = 2/e.
	m = Matern{Order: OrderThreeHalves}
	d := 10 / math.Sqrt(3)
	if got, want := m.Corr(d, 10), 2*math.Exp(-1); math.Abs(got-want) > 1e-12 {
		t.Errorf("matern32 Corr = %v, want %v", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, f := range allFamilies() {
		parsed, err := Parse(f.Name())
		if err != nil {
			t.Fatalf("Parse(%q): %v", f.Name(), err)
		}
		if parsed.Name() != f.Name() {
			t.Errorf("Parse(%q).Name() = %q", f.Name(), parsed.Name())
		}
	}

	if _, err := Parse("spherical"); err == nil {
		t.Error("expected error for unsupported family name")
	}
}
