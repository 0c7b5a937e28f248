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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// CategoryState holds the category-resolved CICE state variables on a
// [category, y, x] grid. Hicen and Hsnon are derived at load time and
// are zero wherever the corresponding Aicen is zero.
type CategoryState struct {
	// Aicen is sea-ice concentration per thickness category [fraction].
	Aicen *sparse.DenseArray
	// Vicen is ice volume per thickness category [m].
	Vicen *sparse.DenseArray
	// Vsnon is snow volume per thickness category [m].
	Vsnon *sparse.DenseArray
	// Hicen is mean ice thickness per category, Vicen/Aicen [m].
	Hicen *sparse.DenseArray
	// Hsnon is mean snow thickness per category, Vsnon/Aicen [m].
	Hsnon *sparse.DenseArray
}

// NCat returns the number of ice thickness categories.
func (s *CategoryState) NCat() int { return s.Aicen.Shape[0] }

// AggregateState holds the coarse analysis-space state variables on a
// [y, x] grid.
type AggregateState struct {
	// Aice is total sea-ice concentration [fraction].
	Aice *sparse.DenseArray
	// Hice is total ice volume per unit area [m].
	Hice *sparse.DenseArray
	// Hsno is total snow volume per unit area [m].
	Hsno *sparse.DenseArray
}

// Field pairs a NetCDF variable name with the gridded data to store
// under that name.
type Field struct {
	Name string
	Data *sparse.DenseArray
}

// ReadCategoryState reads the aicen, vicen, and vsnon variables from
// the CICE restart file at path and derives the per-category
// thickness fields.
func ReadCategoryState(path string) (*CategoryState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rebal: opening background file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("rebal: reading background file %s: %v", path, err)
	}
	s := new(CategoryState)
	for _, v := range []struct {
		name string
		data **sparse.DenseArray
	}{
		{"aicen", &s.Aicen},
		{"vicen", &s.Vicen},
		{"vsnon", &s.Vsnon},
	} {
		*v.data, err = readVar(ff, path, v.name)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range []*sparse.DenseArray{s.Vicen, s.Vsnon} {
		if !sameShape(v, s.Aicen) {
			return nil, fmt.Errorf("rebal: mismatched variable shapes in %s: %v != %v",
				path, v.Shape, s.Aicen.Shape)
		}
	}
	if len(s.Aicen.Shape) != 3 {
		return nil, fmt.Errorf("rebal: %s: aicen must have shape [category, y, x] but has %d dimensions",
			path, len(s.Aicen.Shape))
	}
	s.Hicen = safeDivide(s.Vicen, s.Aicen)
	s.Hsnon = safeDivide(s.Vsnon, s.Aicen)
	return s, nil
}

// ReadAggregateState reads the coarse analysis variables from the
// file at path. The concentration variable is stored under the name
// aicen in analysis files even though it holds the category total.
func ReadAggregateState(path string) (*AggregateState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rebal: opening analysis file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("rebal: reading analysis file %s: %v", path, err)
	}
	a := new(AggregateState)
	for _, v := range []struct {
		name string
		data **sparse.DenseArray
	}{
		{"aicen", &a.Aice},
		{"hicen", &a.Hice},
		{"hsnon", &a.Hsno},
	} {
		*v.data, err = readVar(ff, path, v.name)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range []*sparse.DenseArray{a.Hice, a.Hsno} {
		if !sameShape(v, a.Aice) {
			return nil, fmt.Errorf("rebal: mismatched variable shapes in %s: %v != %v",
				path, v.Shape, a.Aice.Shape)
		}
	}
	if len(a.Aice.Shape) != 2 {
		return nil, fmt.Errorf("rebal: %s: analysis variables must have shape [y, x] but have %d dimensions",
			path, len(a.Aice.Shape))
	}
	return a, nil
}

// WriteAggregate creates a new NetCDF file at path holding the coarse
// analysis-space variables, for consumption by the assimilation
// application.
func WriteAggregate(path string, a *AggregateState) error {
	ny, nx := a.Aice.Shape[0], a.Aice.Shape[1]
	h := cdf.NewHeader(
		[]string{"Time", "yaxis_1", "xaxis_1"},
		[]int{1, ny, nx})
	for _, v := range []struct{ name, desc string }{
		{"aicen", "total sea-ice concentration"},
		{"hicen", "total ice volume per unit area"},
		{"hsnon", "total snow volume per unit area"},
	} {
		h.AddVariable(v.name, []string{"Time", "yaxis_1", "xaxis_1"}, []float64{0})
		h.AddAttribute(v.name, "description", v.desc)
	}
	h.AddVariable("xaxis_1", []string{"xaxis_1"}, []float64{0})
	h.AddVariable("yaxis_1", []string{"yaxis_1"}, []float64{0})
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("rebal: creating analysis file %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rebal: creating analysis file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("rebal: creating analysis file %s: %v", path, err)
	}
	ones := func(n int) *sparse.DenseArray {
		o := sparse.ZerosDense(n)
		for i := range o.Elements {
			o.Elements[i] = 1
		}
		return o
	}
	for _, v := range []Field{
		{"aicen", a.Aice},
		{"hicen", a.Hice},
		{"hsnon", a.Hsno},
		{"xaxis_1", ones(nx)},
		{"yaxis_1", ones(ny)},
	} {
		if err := writeVar(ff, path, v.Name, v.Data); err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("rebal: finalizing analysis file %s: %v", path, err)
	}
	return nil
}

// UpdateFile overwrites the given variables in the existing NetCDF
// file at path. Each variable is written independently, in order, so
// a failure partway through leaves the preceding variables updated.
func UpdateFile(path string, fields []Field) error {
	f, err := os.OpenFile(path, os.O_RDWR, os.ModePerm)
	if err != nil {
		return fmt.Errorf("rebal: opening output file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return fmt.Errorf("rebal: reading output file %s: %v", path, err)
	}
	for _, v := range fields {
		if err := writeVar(ff, path, v.Name, v.Data); err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("rebal: finalizing output file %s: %v", path, err)
	}
	return nil
}

// readVar reads the whole variable name from ff into a DenseArray,
// dropping a single leading length-1 dimension such as the file time
// axis. Grid dimensions of length 1 are preserved.
func readVar(ff *cdf.File, path, name string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("rebal: variable %s not in file %s", name, path)
	}
	r := ff.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("rebal: reading variable %s from %s: %v", name, path, err)
	}
	shape := dims
	if len(shape) > 1 && shape[0] == 1 {
		shape = shape[1:]
	}
	data := sparse.ZerosDense(shape...)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("rebal: variable %s in %s has unsupported type %T", name, path, buf)
	}
	return data, nil
}

// writeVar overwrites the whole variable name in ff with data,
// converting to the variable's on-disk element type.
func writeVar(ff *cdf.File, path, name string, data *sparse.DenseArray) error {
	end := ff.Header.Lengths(name)
	if len(end) == 0 {
		return fmt.Errorf("rebal: variable %s not in file %s", name, path)
	}
	n := 1
	for _, d := range end {
		n *= d
	}
	if n != len(data.Elements) {
		return fmt.Errorf("rebal: variable %s in %s holds %d values but %d were supplied",
			name, path, n, len(data.Elements))
	}
	buf := ff.Reader(name, nil, nil).Zero(-1)
	switch b := buf.(type) {
	case []float64:
		copy(b, data.Elements)
	case []float32:
		for i, v := range data.Elements {
			b[i] = float32(v)
		}
	default:
		return fmt.Errorf("rebal: variable %s in %s has unsupported type %T", name, path, buf)
	}
	start := make([]int, len(end))
	w := ff.Writer(name, start, end)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("rebal: writing variable %s to %s: %v", name, path, err)
	}
	return nil
}

func sameShape(a, b *sparse.DenseArray) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i, d := range a.Shape {
		if d != b.Shape[i] {
			return false
		}
	}
	return true
}
