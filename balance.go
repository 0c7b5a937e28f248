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
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// HiceCeiling is the maximum total ice volume per unit area [m]
// allowed in a rebalanced state.
const HiceCeiling = 10.0

// Balance deaggregates the coarse analysis ana onto the
// category-resolved background bkg, producing an updated state with
// rebalanced concentration and ice-volume fields. Snow is carried
// over from the background unchanged.
//
// The stages run in order: the analysis is clamped to its physical
// domain, a bounded concentration ratio is computed against the
// background total and applied uniformly across categories, then the
// same is done for ice volume, and finally a second bounded ratio
// caps the total ice volume at HiceCeiling. Out-of-range analysis
// values are always clamped, never rejected; the only errors are
// missing fields and mismatched shapes.
//
// Every ratio is clamped to [p.AlphaMin, p.AlphaMax], including the
// ceiling-pass ratio, so a tight AlphaMin can leave the ceiling
// exceeded in cells needing a stronger correction than the bound
// allows.
func Balance(bkg *CategoryState, ana *AggregateState, p RescaleParameters) (*CategoryState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkBalanceShapes(bkg, ana); err != nil {
		return nil, err
	}

	aice := clampElements(ana.Aice, 0, 1)
	hice := clampElements(ana.Hice, 0, math.Inf(1))

	alpha := scaleRatio(aice, sumCategories(bkg.Aicen), p)
	aicen := deaggregate(alpha, bkg.Aicen)

	alphaV := scaleRatio(hice, sumCategories(bkg.Vicen), p)
	vicen := deaggregate(alphaV, bkg.Vicen)
	vicen = capVolume(vicen, HiceCeiling, p)

	return &CategoryState{
		Aicen: aicen,
		Vicen: vicen,
		Vsnon: bkg.Vsnon,
		Hicen: safeDivide(vicen, aicen),
		Hsnon: safeDivide(bkg.Vsnon, aicen),
	}, nil
}

func checkBalanceShapes(bkg *CategoryState, ana *AggregateState) error {
	for _, v := range []struct {
		name string
		data *sparse.DenseArray
	}{
		{"background aicen", bkg.Aicen},
		{"background vicen", bkg.Vicen},
		{"background vsnon", bkg.Vsnon},
		{"analysis aice", ana.Aice},
		{"analysis hice", ana.Hice},
	} {
		if v.data == nil || len(v.data.Elements) == 0 {
			return fmt.Errorf("rebal: %s field is missing or empty", v.name)
		}
	}
	for _, v := range []struct {
		name string
		data *sparse.DenseArray
	}{
		{"background vicen", bkg.Vicen},
		{"background vsnon", bkg.Vsnon},
	} {
		if !sameShape(v.data, bkg.Aicen) {
			return fmt.Errorf("rebal: %s shape %v does not match background aicen shape %v",
				v.name, v.data.Shape, bkg.Aicen.Shape)
		}
	}
	if !sameShape(ana.Hice, ana.Aice) {
		return fmt.Errorf("rebal: analysis hice shape %v does not match analysis aice shape %v",
			ana.Hice.Shape, ana.Aice.Shape)
	}
	if len(bkg.Aicen.Shape) != 3 || len(ana.Aice.Shape) != 2 {
		return fmt.Errorf("rebal: background must be [category, y, x] and analysis [y, x] but shapes are %v and %v",
			bkg.Aicen.Shape, ana.Aice.Shape)
	}
	if bkg.Aicen.Shape[1] != ana.Aice.Shape[0] || bkg.Aicen.Shape[2] != ana.Aice.Shape[1] {
		return fmt.Errorf("rebal: background grid %v does not match analysis grid %v",
			bkg.Aicen.Shape[1:], ana.Aice.Shape)
	}
	return nil
}

// clampElements returns a copy of a with every element limited to
// [lo, hi]. hi may be +Inf for a one-sided clamp.
func clampElements(a *sparse.DenseArray, lo, hi float64) *sparse.DenseArray {
	out := a.Copy()
	for i, v := range out.Elements {
		out.Elements[i] = clamp(v, lo, hi)
	}
	return out
}

// scaleRatio computes the per-cell ratio ana/bkg wherever the
// background exceeds p.MinVal and 1 elsewhere, clamped to
// [p.AlphaMin, p.AlphaMax].
func scaleRatio(ana, bkg *sparse.DenseArray, p RescaleParameters) *sparse.DenseArray {
	alpha := sparse.ZerosDense(bkg.Shape...)
	for i, b := range bkg.Elements {
		r := 1.0
		if b > p.MinVal {
			r = ana.Elements[i] / b
		}
		alpha.Elements[i] = clamp(r, p.AlphaMin, p.AlphaMax)
	}
	return alpha
}

// deaggregate applies the [y, x] ratio field alpha uniformly across
// the category axis of the [category, y, x] field.
func deaggregate(alpha, field *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(field.Shape...)
	for c := 0; c < field.Shape[0]; c++ {
		for j := 0; j < field.Shape[1]; j++ {
			for i := 0; i < field.Shape[2]; i++ {
				out.Set(alpha.Get(j, i)*field.Get(c, j, i), c, j, i)
			}
		}
	}
	return out
}

// capVolume rescales the per-category volumes of cells whose category
// total exceeds ceiling so that the total becomes ceiling, subject to
// the alpha bounds. Cells at or below the ceiling are unchanged.
func capVolume(vicen *sparse.DenseArray, ceiling float64, p RescaleParameters) *sparse.DenseArray {
	total := sumCategories(vicen)
	out := vicen.Copy()
	for j := 0; j < vicen.Shape[1]; j++ {
		for i := 0; i < vicen.Shape[2]; i++ {
			t := total.Get(j, i)
			if t <= ceiling {
				continue
			}
			alpha := clamp(ceiling/t, p.AlphaMin, p.AlphaMax)
			for c := 0; c < vicen.Shape[0]; c++ {
				out.Set(alpha*vicen.Get(c, j, i), c, j, i)
			}
		}
	}
	return out
}
