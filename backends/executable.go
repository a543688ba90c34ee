// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"github.com/nngraph/nngraph/types/shapes"
)

// Executable is the API for compiled graphs ready to execute.
//
// nngraph itself only builds and compiles graphs; feeding input buffers and
// running the computation is the business of the backend and of whatever
// binding layer sits on top, so only the metadata needed to marshal named
// buffers is part of the contract.
type Executable interface {
	// Name of the computation, as given to Backend.NewGraph.
	Name() string

	// Inputs returns the names and descriptor shapes of the graph inputs, in
	// the order their Input operators were added to the graph.
	Inputs() (names []string, inputShapes []shapes.Shape)

	// Outputs returns the names of the registered graph outputs, in the
	// order they were registered with Graph.AddOutput.
	Outputs() (names []string)

	// Finalize immediately frees resources associated to the executable.
	Finalize()
}
