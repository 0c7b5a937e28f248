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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"go.uber.org/zap"
)

// OceanAnalysisVars are the MOM6 state variables transferred from an
// ensemble member analysis into the member's initial-condition file.
var OceanAnalysisVars = []string{"ave_ssh", "h", "u", "v", "Salt", "Temp"}

// OceanUpdate overwrites MOM6 initial-condition fields from ensemble
// member analysis files. Analysis fields may contain NaNs near land
// masks; a NaN element is replaced by the field's configured rescue
// value, and a NaN in a field with no configured rescue value aborts
// the member before that field is written.
type OceanUpdate struct {
	// Rescue maps a variable name to the value substituted for NaN
	// elements of that variable.
	Rescue map[string]float64
	Log    *zap.Logger
}

// Run copies the member's background file to its output path and
// overwrites each ocean analysis variable in it. Variables are
// written independently, so fields written before a failure remain
// updated.
func (u *OceanUpdate) Run(m Member) error {
	log := u.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("copying background to output",
		zap.String("background", m.Background), zap.String("output", m.Output))
	if err := CopyFile(m.Background, m.Output); err != nil {
		return err
	}
	log.Info("reading MOM6 member analysis", zap.String("file", m.Analysis))
	fields, err := readOceanAnalysis(m.Analysis)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(m.Output, os.O_RDWR, os.ModePerm)
	if err != nil {
		return fmt.Errorf("rebal: opening output file: %v", err)
	}
	defer out.Close()
	ff, err := cdf.Open(out)
	if err != nil {
		return fmt.Errorf("rebal: reading output file %s: %v", m.Output, err)
	}
	for _, name := range OceanAnalysisVars {
		data := fields[name]
		n := countNaN(data)
		if n > 0 {
			fill, ok := u.Rescue[name]
			if !ok {
				return fmt.Errorf("rebal: analysis variable %s contains %d NaN values and no rescue value is configured",
					name, n)
			}
			log.Warn("resetting NaN analysis values",
				zap.String("variable", name), zap.Int("count", n), zap.Float64("value", fill))
			fillNaN(data, fill)
		}
		log.Info("updating MOM6 variable",
			zap.String("file", m.Output), zap.String("variable", name))
		if err := writeVar(ff, m.Output, name, data); err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(out); err != nil {
		return fmt.Errorf("rebal: finalizing output file %s: %v", m.Output, err)
	}
	return nil
}

// readOceanAnalysis reads every required ocean variable from the
// analysis file at path. A missing variable is fatal.
func readOceanAnalysis(path string) (map[string]*sparse.DenseArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rebal: opening ocean analysis file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("rebal: reading ocean analysis file %s: %v", path, err)
	}
	fields := make(map[string]*sparse.DenseArray, len(OceanAnalysisVars))
	for _, name := range OceanAnalysisVars {
		data, err := readVar(ff, path, name)
		if err != nil {
			return nil, err
		}
		fields[name] = data
	}
	return fields, nil
}

func countNaN(a *sparse.DenseArray) int {
	var n int
	for _, v := range a.Elements {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func fillNaN(a *sparse.DenseArray, fill float64) {
	for i, v := range a.Elements {
		if math.IsNaN(v) {
			a.Elements[i] = fill
		}
	}
}
