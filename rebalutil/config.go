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

// Package rebalutil holds configuration loading and the command-line
// interface for the rebal sea-ice and ocean rebalancing engine.
package rebalutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/oceanmodel/rebal"
	"gopkg.in/yaml.v3"
)

// Config is the run configuration for the ensemble commands. The
// [MEM] wildcard in the file fields is replaced by the zero-padded
// member number when the member list is expanded.
type Config struct {
	// Members is the number of ensemble members to process.
	Members int
	// Workers limits how many members are processed concurrently.
	// Zero means no limit.
	Workers int
	// BackgroundFile, AnalysisFile, and OutputFile are the member
	// filepath templates.
	BackgroundFile string
	AnalysisFile   string
	OutputFile     string
	// RescaleFile is the YAML rescale table: the sea-ice scaling
	// parameters for the checkpoint commands, or the per-variable
	// NaN rescue values for the ocean command.
	RescaleFile string
}

// ReadConfig loads and validates the TOML run configuration at path.
// Environment variables in the file fields are expanded.
func ReadConfig(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("rebal: reading configuration file %s: %v", path, err)
	}
	c.BackgroundFile = os.ExpandEnv(c.BackgroundFile)
	c.AnalysisFile = os.ExpandEnv(c.AnalysisFile)
	c.OutputFile = os.ExpandEnv(c.OutputFile)
	c.RescaleFile = os.ExpandEnv(c.RescaleFile)
	if c.Members < 1 {
		return nil, fmt.Errorf("rebal: configuration file %s: Members must be at least 1 but is %d", path, c.Members)
	}
	for _, f := range []struct{ name, val string }{
		{"BackgroundFile", c.BackgroundFile},
		{"AnalysisFile", c.AnalysisFile},
		{"OutputFile", c.OutputFile},
	} {
		if f.val == "" {
			return nil, fmt.Errorf("rebal: configuration file %s: %s must be specified", path, f.name)
		}
	}
	return &c, nil
}

// ExpandMembers builds the ensemble member list from the configured
// path templates.
func (c *Config) ExpandMembers() []rebal.Member {
	members := make([]rebal.Member, c.Members)
	for n := 1; n <= c.Members; n++ {
		members[n-1] = rebal.ExpandMember(c.AnalysisFile, c.BackgroundFile, c.OutputFile, n)
	}
	return members
}

// iceRescaleFile mirrors the sea-ice rescale table layout: the
// scaling parameters live under a top-level rescale key.
type iceRescaleFile struct {
	Rescale *rebal.RescaleParameters `yaml:"rescale"`
}

// ReadRescaleParameters loads and validates the sea-ice rescale table
// at path. A missing file, a missing rescale key, or parameters that
// fail validation are configuration errors.
func ReadRescaleParameters(path string) (rebal.RescaleParameters, error) {
	var table iceRescaleFile
	b, err := os.ReadFile(path)
	if err != nil {
		return rebal.RescaleParameters{}, fmt.Errorf("rebal: reading rescale table: %v", err)
	}
	if err := yaml.Unmarshal(b, &table); err != nil {
		return rebal.RescaleParameters{}, fmt.Errorf("rebal: parsing rescale table %s: %v", path, err)
	}
	if table.Rescale == nil {
		return rebal.RescaleParameters{}, fmt.Errorf("rebal: rescale table %s is missing the rescale key", path)
	}
	if err := table.Rescale.Validate(); err != nil {
		return rebal.RescaleParameters{}, fmt.Errorf("%v (from %s)", err, path)
	}
	return *table.Rescale, nil
}

// ReadOceanRescue loads the ocean rescale table at path: a flat
// mapping from analysis variable name to the value substituted for
// NaN elements of that variable.
func ReadOceanRescue(path string) (map[string]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rebal: reading ocean rescale table: %v", err)
	}
	rescue := make(map[string]float64)
	if err := yaml.Unmarshal(b, &rescue); err != nil {
		return nil, fmt.Errorf("rebal: parsing ocean rescale table %s: %v", path, err)
	}
	return rescue, nil
}
