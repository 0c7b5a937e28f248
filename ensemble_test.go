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
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestExpandMember(t *testing.T) {
	m := ExpandMember(
		"ana/mem[MEM]/ocn.nc",
		"bkg/mem[MEM]/MOM.res.nc",
		"ics/mem[MEM]/MOM.res.nc",
		3)
	if m.Analysis != "ana/mem003/ocn.nc" {
		t.Errorf("analysis = %q", m.Analysis)
	}
	if m.Background != "bkg/mem003/MOM.res.nc" {
		t.Errorf("background = %q", m.Background)
	}
	if m.Output != "ics/mem003/MOM.res.nc" {
		t.Errorf("output = %q", m.Output)
	}
}

// Every member runs even when one fails, and the failure is reported.
func TestEnsembleRunIndependentMembers(t *testing.T) {
	members := make([]Member, 5)
	for i := range members {
		members[i] = ExpandMember("ana[MEM]", "bkg[MEM]", "out[MEM]", i+1)
	}
	var mu sync.Mutex
	ran := make(map[string]bool)
	e := &Ensemble{Workers: 2}
	err := e.Run(context.Background(), members, func(m Member) error {
		mu.Lock()
		ran[m.Output] = true
		mu.Unlock()
		if m.Output == "out002" {
			return fmt.Errorf("member 2 failed")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected the member failure to be reported")
	}
	if len(ran) != len(members) {
		t.Errorf("%d of %d members ran", len(ran), len(members))
	}
}

func TestEnsembleRunNoError(t *testing.T) {
	members := []Member{{Output: "a"}, {Output: "b"}}
	e := &Ensemble{}
	if err := e.Run(context.Background(), members, func(Member) error { return nil }); err != nil {
		t.Fatal(err)
	}
}

// A canceled context keeps unstarted members from running and is
// reported as the run's error.
func TestEnsembleRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var mu sync.Mutex
	ran := 0
	e := &Ensemble{Workers: 1}
	err := e.Run(ctx, []Member{{Output: "a"}, {Output: "b"}}, func(Member) error {
		mu.Lock()
		ran++
		mu.Unlock()
		return nil
	})
	if err == nil {
		t.Fatal("expected the cancellation to be reported")
	}
	if ran != 0 {
		t.Errorf("%d members ran after cancellation", ran)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("background state"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "background state" {
		t.Errorf("copy = %q", b)
	}
	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("expected an error for a missing source")
	}
}
