// Copyright 2026 The nngraph Authors. SPDX-License-Identifier: Apache-2.0

// Package backends defines the interface a graph compiler needs to implement
// to be used by nngraph.
//
// The graph builder (package github.com/nngraph/nngraph/graph) validates and
// orders the operators of a model and then feeds them, one by one and in
// dependency order, to a backend Graph. The backend is responsible for
// lowering the operators to whatever representation it executes, and for
// producing an Executable when the graph is compiled.
//
// All backend calls are synchronous and report failures as returned errors,
// never as panics.
package backends

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Backend is the API that needs to be implemented by an nngraph backend.
type Backend interface {
	// Name returns the short name of the backend, e.g.: "reference".
	Name() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// NewGraph creates a new, empty backend graph to which operators can be
	// added in dependency order.
	NewGraph(name string) (Graph, error)

	// Finalize releases all the associated resources immediately, and makes the backend invalid.
	Finalize()
}

// Constructor takes a config string (optionally empty) and returns a Backend.
type Constructor func(config string) (Backend, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes as input a configuration string that is
// passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the backend configuration to use if the environment
// variable is not set.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// ConfigEnvVar is the environment variable with the default backend configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "reference") and
// "<backend_configuration>" is backend specific.
const ConfigEnvVar = "NNGRAPH_BACKEND"

// New returns a new default Backend.
//
// The default is:
//
// 1. The environment NNGRAPH_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered backend is used with an empty configuration.
//
// It returns an error if no backend was registered.
func New() (Backend, error) {
	config, found := os.LookupEnv(ConfigEnvVar)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig creates a Backend from a configuration string formatted as
// "<backend_name>:<backend_configuration>".
//
// The "<backend_name>" is the name of a registered backend (e.g.:
// "reference") and "<backend_configuration>" is backend specific. An empty
// name selects the first registered backend.
func NewWithConfig(config string) (Backend, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.Errorf(`no registered backends for nngraph -- maybe import the reference one with import _ "github.com/nngraph/nngraph/backends/reference"?`)
	}
	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	} else if config != "" {
		backendName = config
		backendConfig = ""
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		return nil, errors.Errorf("can't find backend %q for configuration %q given", backendName, config)
	}
	return constructor(backendConfig)
}
