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
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Member identifies one ensemble member by its analysis, background,
// and output filepaths. The output file starts as a byte copy of the
// background, after which selected fields are overwritten.
type Member struct {
	Analysis   string
	Background string
	Output     string
}

// ExpandMember builds a member's filepaths from path templates, where
// the [MEM] wildcard in each template is replaced by the zero-padded
// 1-based member number.
func ExpandMember(analysisTmpl, backgroundTmpl, outputTmpl string, n int) Member {
	mem := fmt.Sprintf("%03d", n)
	expand := func(tmpl string) string {
		return strings.Replace(tmpl, "[MEM]", mem, -1)
	}
	return Member{
		Analysis:   expand(analysisTmpl),
		Background: expand(backgroundTmpl),
		Output:     expand(outputTmpl),
	}
}

// Ensemble runs a per-member update over independent workers. Members
// share no state, so they may run concurrently; the stages within a
// member remain sequential.
type Ensemble struct {
	// Workers limits the number of members processed concurrently.
	// Zero or negative means no limit.
	Workers int
	Log     *zap.Logger
}

// Run applies update to every member. A failing member does not stop
// the others; the first error encountered is returned after all
// members finish. Canceling ctx keeps members that have not yet
// started from running.
func (e *Ensemble) Run(ctx context.Context, members []Member, update func(Member) error) error {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	var eg errgroup.Group
	if e.Workers > 0 {
		eg.SetLimit(e.Workers)
	}
	for _, m := range members {
		m := m
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := update(m); err != nil {
				log.Error("ensemble member failed",
					zap.String("output", m.Output), zap.Error(err))
				return err
			}
			log.Info("ensemble member complete", zap.String("output", m.Output))
			return nil
		})
	}
	return eg.Wait()
}

// CopyFile copies the file at src to dst, replacing dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("rebal: copying %s to %s: %v", src, dst, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("rebal: copying %s to %s: %v", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("rebal: copying %s to %s: %v", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("rebal: copying %s to %s: %v", src, dst, err)
	}
	return nil
}
