// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/nngraph/nngraph/backends"
)

// buildState maps the operands of the graph under construction to the
// backend handles of their already-ingested producers.
type buildState struct {
	handles map[*Operand]backends.Op
}

func newBuildState() *buildState {
	return &buildState{handles: make(map[*Operand]backends.Op)}
}

// handle returns the backend handle of an operand. Since operators are
// ingested in topological order, a missing handle means a malformed graph.
func (st *buildState) handle(o *Operand) (backends.Op, error) {
	h, found := st.handles[o]
	if !found {
		return nil, errors.Errorf("operand %s was not added to the backend graph before its consumer", o)
	}
	return h, nil
}

func (st *buildState) setHandle(o *Operand, h backends.Op) {
	st.handles[o] = h
}

// Build compiles the graph whose outputs are the given named operands.
//
// The pipeline is linear with early-exit failure at each stage: collect the
// output operands, topologically sort their transitive operator closure,
// feed every operator to a fresh backend graph in sorted order, register
// the named outputs (in insertion order), then ask the backend to finish
// and compile. Any failure aborts the whole build: the error is recorded
// and returned, and no partial result exists.
func (b *Builder) Build(outputs *NamedOperands) (backends.Executable, error) {
	if b.IsError() {
		return nil, b.buildError(errors.Errorf("this graph builder is an error"))
	}
	if outputs.Len() == 0 {
		return nil, b.buildError(errors.Errorf("the output named operands are empty"))
	}

	roots := make([]*Operand, 0, outputs.Len())
	for pair := outputs.records.Oldest(); pair != nil; pair = pair.Next() {
		output := pair.Value
		if output.IsError() || output.producer == nil {
			return nil, b.buildError(errors.Errorf("output operand %q is an error", pair.Key))
		}
		if output.producer.fusedOp != backends.FusedNone {
			return nil, b.buildError(errors.Errorf("output operand %q was produced by a detached fused-role operator (%s), which is never materialized as a graph node",
				pair.Key, output.producer.opType))
		}
		if output.builder != b {
			return nil, b.buildError(errors.Errorf("output operand %q was built by a different graph builder", pair.Key))
		}
		roots = append(roots, output)
	}

	sorted, err := b.topologicalSort(roots)
	if err != nil {
		return nil, b.buildError(err)
	}
	klog.V(1).Infof("building graph %q: %d operators, %d outputs", b.name, len(sorted), outputs.Len())

	g, err := b.backend.NewGraph(b.name)
	if err != nil {
		return nil, b.buildError(errors.WithMessagef(err, "failed to create a graph on backend %q", b.backend.Name()))
	}

	st := newBuildState()
	for _, op := range sorted {
		if op.IsError() {
			return nil, b.buildError(errors.Errorf("failed to add an operator when building graph: operator is an error"))
		}
		if err := op.addToGraph(g, st); err != nil {
			return nil, b.buildError(errors.WithMessagef(err, "failed to add the %s operator when building graph", op.opType))
		}
	}

	for pair := outputs.records.Oldest(); pair != nil; pair = pair.Next() {
		h, err := st.handle(pair.Value)
		if err != nil {
			return nil, b.buildError(errors.WithMessagef(err, "failed to add output %q when building graph", pair.Key))
		}
		if err := g.AddOutput(pair.Key, h); err != nil {
			return nil, b.buildError(errors.WithMessagef(err, "failed to add output %q when building graph", pair.Key))
		}
	}

	if err := g.Finish(); err != nil {
		return nil, b.buildError(errors.WithMessage(err, "failed to finish building graph"))
	}

	executable, err := g.Compile()
	if err != nil {
		return nil, b.buildError(errors.WithMessage(err, "failed to compile the graph"))
	}
	return executable, nil
}

// buildError consumes err (logging it and keeping it for LastError) and
// returns it for the Build caller.
func (b *Builder) buildError(err error) error {
	b.consumeError(err)
	return err
}
