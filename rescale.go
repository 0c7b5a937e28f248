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

import "fmt"

// RescaleParameters are the per-run scaling thresholds for the
// sea-ice rebalancing. They are loaded once from the rescale table
// and are read-only for the lifetime of a Balance invocation.
type RescaleParameters struct {
	// MinVal is the smallest background magnitude for which a
	// scaling ratio is computed; below it the ratio is 1.
	MinVal float64 `yaml:"minval" toml:"minval"`
	// AlphaMin and AlphaMax bound every computed scaling ratio.
	AlphaMin float64 `yaml:"alpha_min" toml:"alpha_min"`
	AlphaMax float64 `yaml:"alpha_max" toml:"alpha_max"`
}

// Validate checks that the parameters are usable: MinVal must be
// positive and the alpha bounds must contain 1.
func (p RescaleParameters) Validate() error {
	if p.MinVal <= 0 {
		return fmt.Errorf("rebal: rescale parameter minval must be positive but is %g", p.MinVal)
	}
	if p.AlphaMin > 1 || p.AlphaMax < 1 {
		return fmt.Errorf("rebal: rescale parameters must satisfy alpha_min <= 1 <= alpha_max but are [%g, %g]",
			p.AlphaMin, p.AlphaMax)
	}
	return nil
}

// clamp limits v to the interval [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
