/*
Copyright © 2023 the rebal authors.
This file is part of rebal.

rebal is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rebal is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rebal.  If not, see <http://www.gnu.org/licenses/>.
*/

package rebal

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestAggregate(t *testing.T) {
	s := &CategoryState{
		Aicen: denseFromSlice([]int{3, 1, 2}, []float64{
			0.1, 0.2,
			0.3, 0.4,
			0.2, 0.1,
		}),
		Vicen: denseFromSlice([]int{3, 1, 2}, []float64{
			0.5, 1.0,
			1.5, 2.0,
			1.0, 0.5,
		}),
		Vsnon: denseFromSlice([]int{3, 1, 2}, []float64{
			0.05, 0.1,
			0.15, 0.2,
			0.1, 0.05,
		}),
	}
	a := Aggregate(s)
	if want := []float64{0.6, 0.7}; !floats.EqualApprox(a.Aice.Elements, want, testTolerance) {
		t.Errorf("aice = %v, want %v", a.Aice.Elements, want)
	}
	if want := []float64{3.0, 3.5}; !floats.EqualApprox(a.Hice.Elements, want, testTolerance) {
		t.Errorf("hice = %v, want %v", a.Hice.Elements, want)
	}
	if want := []float64{0.3, 0.35}; !floats.EqualApprox(a.Hsno.Elements, want, testTolerance) {
		t.Errorf("hsno = %v, want %v", a.Hsno.Elements, want)
	}
}

// The aggregate total must equal the category sum for every cell,
// independent of summation order.
func TestAggregateMatchesCategorySum(t *testing.T) {
	s := &CategoryState{
		Aicen: denseFromSlice([]int{2, 2, 2}, []float64{
			0.11, 0.23, 0.35, 0.47,
			0.13, 0.29, 0.31, 0.41,
		}),
		Vicen: denseFromSlice([]int{2, 2, 2}, []float64{
			1.1, 2.3, 3.5, 4.7,
			1.3, 2.9, 3.1, 4.1,
		}),
		Vsnon: denseFromSlice([]int{2, 2, 2}, []float64{
			0.1, 0.2, 0.3, 0.4,
			0.1, 0.2, 0.3, 0.4,
		}),
	}
	a := Aggregate(s)
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			var sum float64
			for c := 0; c < 2; c++ {
				sum += s.Aicen.Get(c, j, i)
			}
			if math.Abs(a.Aice.Get(j, i)-sum) > testTolerance {
				t.Errorf("cell (%d,%d): aice = %g, want %g", j, i, a.Aice.Get(j, i), sum)
			}
		}
	}
}

// Division by a zero concentration must yield zero thickness, never
// NaN or Inf.
func TestSafeDivide(t *testing.T) {
	vicen := denseFromSlice([]int{2, 1, 1}, []float64{2, 3})
	aicen := denseFromSlice([]int{2, 1, 1}, []float64{0.5, 0})
	hicen := safeDivide(vicen, aicen)
	if got := hicen.Get(0, 0, 0); math.Abs(got-4) > testTolerance {
		t.Errorf("hicen[0] = %g, want 4", got)
	}
	if got := hicen.Get(1, 0, 0); got != 0 {
		t.Errorf("hicen[1] = %g, want 0 for zero concentration", got)
	}
	for i, v := range hicen.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("hicen[%d] = %g, want finite", i, v)
		}
	}
	// Negative denominators are treated like zero.
	neg := safeDivide(vicen, denseFromSlice([]int{2, 1, 1}, []float64{-1, -2}))
	for i, v := range neg.Elements {
		if v != 0 {
			t.Errorf("quotient[%d] = %g, want 0 for negative denominator", i, v)
		}
	}
}
