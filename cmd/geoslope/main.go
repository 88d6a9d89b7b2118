// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"os"

	"github.com/dpedroso/geoslope"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/phase"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// message is one line of the newline-delimited streaming protocol: a
// tagged record with kind in {log, step_point, phase_result, final}.
type message struct {
	Kind       string        `json:"kind"`
	Phase      string        `json:"phase,omitempty"`
	Text       string        `json:"message,omitempty"`
	PhaseIndex int           `json:"phase_index,omitempty"`
	StepIndex  int           `json:"step_index,omitempty"`
	Lambda     float64       `json:"lambda,omitempty"`
	MaxDisp    float64       `json:"max_displacement,omitempty"`
	Success    bool          `json:"success,omitempty"`
	Result     *phase.Result `json:"result,omitempty"`
	AnyFailed  bool          `json:"any_failed,omitempty"`
}

// runner wires a phase.Driver to stdout's streaming protocol.
type runner struct {
	enc        *json.Encoder
	phaseIndex int
	stepIndex  int
	anyFailed  bool
}

func newRunner(w *bufio.Writer) *runner {
	return &runner{enc: json.NewEncoder(w)}
}

func (r *runner) write(m message) {
	if err := r.enc.Encode(m); err != nil {
		io.PfRed("geoslope: failed to write protocol message: %v\n", err)
	}
}

// onEvent forwards the Driver's log and step_point lines as they happen.
// The phase_result line is written separately, once per phase, by
// runTree below: it carries the full per-phase snapshot, while
// phase.Event only carries a lightweight success flag for the live
// stream.
func (r *runner) onEvent(ev phase.Event) {
	switch ev.Kind {
	case "log":
		r.write(message{Kind: "log", Phase: ev.Phase, Text: ev.Message})
	case "step_point":
		r.write(message{Kind: "step_point", Phase: ev.Phase, PhaseIndex: r.phaseIndex, StepIndex: r.stepIndex, Lambda: ev.Lambda, MaxDisp: ev.MaxDisp})
		r.stepIndex++
	}
}

func main() {
	flag.Parse()
	if len(flag.Args()) < 1 {
		chk.Panic("please provide a project file. Ex.: geoslope slope.json")
	}
	projectPath := flag.Arg(0)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	r := newRunner(out)

	runErr := run(projectPath, r)
	if runErr != nil {
		r.write(message{Kind: "log", Text: runErr.Error()})
	}
	r.write(message{Kind: "final", AnyFailed: r.anyFailed})
	out.Flush()

	os.Exit(geoslope.ExitCode(runErr, r.anyFailed))
}

// run loads the project (rejecting unknown schema versions before
// anything else), builds a Driver, and streams every phase result,
// depth-first.
func run(projectPath string, r *runner) error {
	proj, err := inp.LoadProject(projectPath)
	if err != nil {
		return geoslope.Fatal(err)
	}
	drv, err := phase.NewDriver(proj)
	if err != nil {
		return geoslope.Fatal(err)
	}
	drv.Emit = r.onEvent

	for _, name := range proj.Roots() {
		if err := r.runTree(drv, proj, name); err != nil {
			return geoslope.Fatal(err)
		}
	}
	return nil
}

// runTree mirrors Driver.RunAll's depth-first traversal (roots in file
// order, each root's descendants before the next root) using only the
// Driver's public surface, so the full phase.Result can be attached to
// each phase_result line as it completes.
func (r *runner) runTree(drv *phase.Driver, proj *inp.Project, name string) error {
	res, err := drv.RunPhase(name)
	if err != nil {
		return err
	}
	r.phaseIndex++
	r.stepIndex = 0
	if !res.Success {
		r.anyFailed = true
	}
	r.write(message{Kind: "phase_result", Phase: res.PhaseName, Success: res.Success, Result: res})
	for _, child := range proj.Children(name) {
		if err := r.runTree(drv, proj, child); err != nil {
			return err
		}
	}
	return nil
}
