// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/pkg/errors"

	"github.com/nngraph/nngraph/types"
)

// topologicalSort orders the transitive operator closure of the given root
// operands so that every operator's input producers appear before the
// operator itself. The traversal is depth-first with an explicit stack, so
// arbitrarily deep operator chains don't grow the call stack.
//
// The algorithm derives from nGraph's topological_sort: peek at the top of
// the stack; if any input producer isn't done yet, push it (deferring the
// peeked node); once all producers are done, pop the node into the result.
// Duplicate pushes from shared dependencies pop as no-ops, so an operator
// consumed by several downstream nodes appears exactly once.
//
// Graphs are acyclic by construction (an operator can only reference
// operands that already exist), but the walk is still bounded: a graph with
// reintroduced cycles (malformed external edits) fails with an error
// instead of looping.
func (b *Builder) topologicalSort(rootNodes []*Operand) ([]*Operator, error) {
	var nodesToDo []*Operator // used as a stack
	nodesDone := types.MakeSet[*Operator]()
	result := make([]*Operator, 0, b.numOperators)

	for _, root := range rootNodes {
		nodesToDo = append(nodesToDo, root.producer)
	}

	// In an acyclic graph every input edge is pushed at most once per visit
	// of its consumer, and every visit either pops or pushes at least one
	// node, so the iteration count stays well under this bound.
	maxIterations := 2 * (b.numEdges + len(rootNodes) + 1) * (b.numOperators + 2)

	for iteration := 0; len(nodesToDo) > 0; iteration++ {
		if iteration > maxIterations {
			return nil, errors.Errorf("graph %q contains a dependency cycle among its operators", b.name)
		}
		node := nodesToDo[len(nodesToDo)-1]
		if nodesDone.Has(node) {
			nodesToDo = nodesToDo[:len(nodesToDo)-1]
			continue
		}
		canAdd := true
		for _, dep := range node.inputs {
			if dep.producer == nil {
				return nil, errors.Errorf("an input of %s has no producing operator", node.opType)
			}
			if !nodesDone.Has(dep.producer) {
				canAdd = false
				nodesToDo = append(nodesToDo, dep.producer)
			}
		}
		if canAdd {
			result = append(result, node)
			nodesToDo = nodesToDo[:len(nodesToDo)-1]
			nodesDone.Insert(node)
		}
	}
	return result, nil
}
