// Package backends defines the compute-backend capability that executes the
// distributed numerical kernels, and a registry to select an implementation.
//
// A backend exposes one entry point per operation (Eigh, Cholesky, Gemm), each
// taking ScaLAPACK-style operands: a descriptor locating the distributed
// matrix on its process grid plus the calling process's local buffer. Every
// entry point is a collective: it must be called by all processes of the grid
// with consistent arguments, and returns only once the whole grid has
// completed. Entry points report an integer status, 0 on success and negative
// on failure; the core only distinguishes success from failure.
package backends

import (
	"os"
	"sort"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Constructor takes a backend-specific config string (possibly empty) and
// returns a Backend.
type Constructor func(config string) (Backend, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a backend constructor under the given name. To be safe, call
// Register during package initialization.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// List returns the names of the registered backends, sorted.
func List() []string {
	names := make([]string, 0, len(registeredConstructors))
	for name := range registeredConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigEnvVar is the environment variable with the default backend
// configuration, formatted as "<backend_name>:<backend_configuration>".
const ConfigEnvVar = "SCALAGO_BACKEND"

// DefaultConfig is used by New when ConfigEnvVar is not set.
var DefaultConfig string

// New returns a Backend built from the first defined of: the ConfigEnvVar
// environment variable, the DefaultConfig variable, or the first registered
// backend with an empty configuration.
func New() (Backend, error) {
	if config, found := os.LookupEnv(ConfigEnvVar); found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// MustNew is New, panicking on error.
func MustNew() Backend {
	b, err := New()
	if err != nil {
		exceptions.Panicf("backends.MustNew: %+v", err)
	}
	return b
}

// NewWithConfig builds a backend from a "<backend_name>:<backend_configuration>"
// string. An empty name selects the first registered backend.
func NewWithConfig(config string) (Backend, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.New(`no registered backends -- import the built-in one with import _ "github.com/scalago/scalago/backends/localgo"`)
	}
	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		return nil, errors.Errorf("can't find backend %q for configuration %q given", backendName, config)
	}
	klog.V(1).Infof("backends: constructing %q with config %q", backendName, backendConfig)
	return constructor(backendConfig)
}
