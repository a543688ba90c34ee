// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

// Package reference implements an in-memory backend that records the graph
// fed to it and compiles it into an inspectable, non-executing artifact.
//
// It is the default backend for tests and for front ends that only need
// graph validation and structure (e.g. converters): it enforces the full
// backends.Graph contract -- handle ownership, ingestion order, sealing on
// Finish -- without lowering the operators to any kernel representation.
//
// Importing the package registers it under the name "reference".
package reference

import (
	"github.com/nngraph/nngraph/backends"
	"github.com/pkg/errors"
)

// BackendName to use in backends.NewWithConfig or the NNGRAPH_BACKEND
// environment variable to select this backend.
const BackendName = "reference"

func init() {
	backends.Register(BackendName, New)
}

// Backend implements backends.Backend.
type Backend struct {
	finalized bool
}

var _ backends.Backend = (*Backend)(nil)

// New constructs a reference Backend. The config string is ignored.
func New(_ string) (backends.Backend, error) {
	return &Backend{}, nil
}

// Name implements backends.Backend.
func (b *Backend) Name() string { return BackendName }

// Description implements backends.Backend.
func (b *Backend) Description() string {
	return "Reference backend: records and compiles graphs in-memory, without execution"
}

// NewGraph implements backends.Backend.
func (b *Backend) NewGraph(name string) (backends.Graph, error) {
	if b.finalized {
		return nil, errors.Errorf("backend %q has already been finalized", BackendName)
	}
	return newGraph(b, name), nil
}

// Finalize implements backends.Backend.
func (b *Backend) Finalize() {
	b.finalized = true
}
