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

// IceCheckpoint updates a CICE restart file from a coarse sea-ice
// analysis: the background state is aggregated, the analysis is
// rebalanced against it, and the rebalanced concentration and
// ice-volume fields are written into a copy of the background file.
type IceCheckpoint struct {
	Params RescaleParameters
	Log    *zap.Logger
}

// Run performs the checkpoint for one background/analysis pair,
// writing the updated restart to outPath.
func (c *IceCheckpoint) Run(bkgPath, anaPath, outPath string) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	log.Info("copying background to output",
		zap.String("background", bkgPath), zap.String("output", outPath))
	if err := CopyFile(bkgPath, outPath); err != nil {
		return err
	}
	log.Info("reading CICE background", zap.String("file", bkgPath))
	bkg, err := ReadCategoryState(bkgPath)
	if err != nil {
		return err
	}
	log.Info("reading sea-ice analysis", zap.String("file", anaPath))
	ana, err := ReadAggregateState(anaPath)
	if err != nil {
		return err
	}
	upd, err := Balance(bkg, ana, c.Params)
	if err != nil {
		return err
	}
	log.Info("updating CICE variables",
		zap.String("file", outPath), zap.Strings("variables", []string{"aicen", "vicen"}))
	return UpdateFile(outPath, []Field{
		{"aicen", upd.Aicen},
		{"vicen", upd.Vicen},
	})
}

// EnsIceCheckpoint generates a CICE initial-condition file for one
// ensemble member from a per-category perturbation analysis. The
// analysis fields are clipped to their physical domain and written
// directly; no rebalancing is performed on this path, and the
// thickness field has no upper bound.
type EnsIceCheckpoint struct {
	Log *zap.Logger
}

// Run copies the member's background file to its output path, reads
// the member analysis, and overwrites the clipped aicen and hicen
// variables in the output file.
func (c *EnsIceCheckpoint) Run(m Member) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("copying background to output",
		zap.String("background", m.Background), zap.String("output", m.Output))
	if err := CopyFile(m.Background, m.Output); err != nil {
		return err
	}
	log.Info("reading CICE member analysis", zap.String("file", m.Analysis))
	aicen, hicen, err := readEnsIceAnalysis(m.Analysis)
	if err != nil {
		return err
	}
	aicen = clampElements(aicen, 0, 1)
	hicen = clampElements(hicen, 0, math.Inf(1))
	log.Info("updating CICE variables",
		zap.String("file", m.Output), zap.Strings("variables", []string{"aicen", "hicen"}))
	return UpdateFile(m.Output, []Field{
		{"aicen", aicen},
		{"hicen", hicen},
	})
}

// readEnsIceAnalysis reads the per-category member analysis
// variables. hsnon is read only to confirm the file is a complete
// perturbation analysis; it is not written back.
func readEnsIceAnalysis(path string) (aicen, hicen *sparse.DenseArray, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("rebal: opening member analysis file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("rebal: reading member analysis file %s: %v", path, err)
	}
	if aicen, err = readVar(ff, path, "aicen"); err != nil {
		return nil, nil, err
	}
	if hicen, err = readVar(ff, path, "hicen"); err != nil {
		return nil, nil, err
	}
	if _, err = readVar(ff, path, "hsnon"); err != nil {
		return nil, nil, err
	}
	return aicen, hicen, nil
}
