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

// Package rebal rebalances sea-ice and ocean analysis increments onto
// model initial conditions. It takes a category-resolved CICE
// background state and a coarse post-assimilation analysis, computes
// bounded per-cell scaling ratios between the two, and deaggregates
// the analysis back onto the background ice categories while
// enforcing physical bounds on concentration and thickness. A second
// code path overwrites MOM6 ocean initial-condition fields from
// ensemble analysis files, substituting configured rescue values for
// NaNs.
//
// All gridded fields are held in sparse.DenseArray values and
// persisted as NetCDF classic files.
package rebal

// Version is the rebal version number.
const Version = "1.1.0"
