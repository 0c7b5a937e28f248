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

import "github.com/ctessum/sparse"

// Aggregate reduces a category-resolved state to the coarse
// analysis-space variables by summing over the category axis. It is a
// pure function of its input.
func Aggregate(s *CategoryState) *AggregateState {
	return &AggregateState{
		Aice: sumCategories(s.Aicen),
		Hice: sumCategories(s.Vicen),
		Hsno: sumCategories(s.Vsnon),
	}
}

// sumCategories sums a [category, y, x] array over its first axis.
func sumCategories(a *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(a.Shape[1], a.Shape[2])
	for c := 0; c < a.Shape[0]; c++ {
		for j := 0; j < a.Shape[1]; j++ {
			for i := 0; i < a.Shape[2]; i++ {
				out.Set(out.Get(j, i)+a.Get(c, j, i), j, i)
			}
		}
	}
	return out
}

// safeDivide returns the elementwise quotient num/den, with zero
// wherever the denominator is not strictly positive. num and den must
// have the same shape.
func safeDivide(num, den *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(num.Shape...)
	for i, d := range den.Elements {
		if d > 0 {
			out.Elements[i] = num.Elements[i] / d
		}
	}
	return out
}
