// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

// Package graph is the core package of nngraph: it builds, validates and
// compiles computation graphs for neural-network inference.
//
// The main elements of the package are:
//
//   - Builder: constructs the graph. One method per operator kind (Relu,
//     Conv2d, Gemm, ...), each returning the Operand holding the operator's
//     result. Builder.Build hands the finished graph to a backend compiler
//     (see package github.com/nngraph/nngraph/backends) and returns the
//     compiled executable.
//
//   - Operand: a tensor-valued graph edge, produced by exactly one Operator
//     and consumed by any number of downstream operators.
//
//   - Operator: a computation node. Operators are validated eagerly, at the
//     builder call that creates them.
//
// # Error handling
//
// Builder methods don't return errors: on a validation failure they record
// the diagnostic (retrievable with Builder.LastError, also logged) and
// return an error-sentinel Operand. Sentinels are poisoned values: any
// operator built from one fails its own validation and returns another
// sentinel, so a whole mis-built subgraph collapses into sentinels without
// the caller checking every call. Builder.Build reports the failure of the
// overall graph as a regular error.
//
// A recorded error doesn't poison unrelated later calls: each call only
// fails if it encounters an error itself, directly or via a sentinel input.
//
// Builders and the graphs they construct are not safe for concurrent use;
// callers must serialize access to a builder/graph pair.
package graph

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"k8s.io/klog/v2"

	"github.com/nngraph/nngraph/backends"
	"github.com/pkg/errors"
)

// Builder builds a computation graph for a backend to compile.
//
// Create one with New. All methods that build operators validate them
// eagerly and return error sentinels on failure, see package documentation.
type Builder struct {
	backend backends.Backend
	name    string

	// isError marks a builder that cannot build anything, e.g. one created
	// without a backend. It is not set by operator validation failures.
	isError bool

	// lastErr is the most recently consumed error, kept for diagnostics.
	lastErr error

	// numOperators and numEdges count the successfully validated,
	// materialized operators and their input edges. Used to bound the
	// topological sort.
	numOperators int
	numEdges     int
}

// New creates a Builder that compiles graphs with the given backend.
//
// A nil backend yields an error-state builder: every operator construction
// returns an error sentinel and Build fails its precondition.
func New(backend backends.Backend, name string) *Builder {
	b := &Builder{backend: backend, name: name}
	if backend == nil {
		b.isError = true
		b.consumeError(errors.Errorf("graph builder %q created without a backend", name))
	}
	return b
}

// Name of the graph being built.
func (b *Builder) Name() string { return b.name }

// IsError returns whether the builder itself is erroneous and cannot build
// a graph. Operator validation failures do not put the builder in an error
// state; see LastError for those.
func (b *Builder) IsError() bool { return b.isError }

// LastError returns the most recently recorded validation or build error,
// or nil if none was recorded. The error has already been consumed (logged
// and reported through a sentinel or a Build result); it is kept only for
// diagnostics.
func (b *Builder) LastError() error { return b.lastErr }

// consumeError records err as consumed: it is logged, kept for LastError
// and otherwise not propagated.
func (b *Builder) consumeError(err error) {
	klog.Errorf("nngraph graph builder %q: %v", b.name, err)
	b.lastErr = err
}

// validateOperator runs op.Validate and consumes its error, if any. On
// success the operator is accounted as materialized.
func (b *Builder) validateOperator(op *Operator) error {
	if b.isError {
		err := errors.Errorf("graph builder %q is an error", b.name)
		b.consumeError(err)
		return err
	}
	if err := op.Validate(); err != nil {
		b.consumeError(err)
		return err
	}
	b.numOperators++
	b.numEdges += len(op.inputs)
	return nil
}

// validateForOperand validates op and returns its primary output, or an
// error-sentinel Operand.
func (b *Builder) validateForOperand(op *Operator) *Operand {
	if b.validateOperator(op) != nil {
		return makeErrorOperand(b)
	}
	return op.PrimaryOutput()
}

// validateForOperandArray validates op and returns its outputs as an
// OperandArray, or an error-sentinel OperandArray.
func (b *Builder) validateForOperandArray(op *Operator) *OperandArray {
	if b.validateOperator(op) != nil {
		return makeErrorOperandArray(b)
	}
	return &OperandArray{builder: b, operands: op.Outputs()}
}

// validateFusedOperator validates op and returns it as a detached handle
// for embedding as another operator's activation, or an error-sentinel
// Operator. Fused-role operators are not materialized as graph nodes, so
// they are not accounted in numOperators.
func (b *Builder) validateFusedOperator(op *Operator) *Operator {
	if b.isError {
		b.consumeError(errors.Errorf("graph builder %q is an error", b.name))
		return makeErrorOperator(b)
	}
	if err := op.Validate(); err != nil {
		b.consumeError(err)
		return makeErrorOperator(b)
	}
	return op
}

// NamedOperands is the ordered mapping of output names to operands handed
// to Builder.Build. Insertion order is preserved all the way to the
// backend's output registration.
type NamedOperands struct {
	records *orderedmap.OrderedMap[string, *Operand]
}

// NewNamedOperands returns an empty NamedOperands.
func NewNamedOperands() *NamedOperands {
	return &NamedOperands{records: orderedmap.New[string, *Operand]()}
}

// Set binds name to the given output operand. Setting an existing name
// replaces its operand, keeping its original position. It returns the
// NamedOperands to allow chaining.
func (n *NamedOperands) Set(name string, output *Operand) *NamedOperands {
	n.records.Set(name, output)
	return n
}

// Get returns the operand bound to name.
func (n *NamedOperands) Get(name string) (*Operand, bool) {
	return n.records.Get(name)
}

// Len returns the number of named outputs.
func (n *NamedOperands) Len() int {
	if n == nil || n.records == nil {
		return 0
	}
	return n.records.Len()
}
