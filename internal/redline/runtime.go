package redline

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const Binary = "redline"

// DefaultCandidates are probed in order when no explicit path is configured
var DefaultCandidates = []string{
	Binary,
	"C:/Program Files/REDCINE-X PRO One-Off 64-bit/redline",
	"C:/Program Files/REDCINE-X PRO 64-bit/redline",
}

// Runtime is the resolved location of the REDline binary. It is resolved
// once at startup and never changes afterwards.
type Runtime struct {
	path string
}

// NewRuntime wraps an already known binary path without probing it
func NewRuntime(path string) Runtime {
	return Runtime{path: path}
}

// Path returns the resolved binary path
func (r Runtime) Path() string {
	return r.path
}

// Candidates returns the lookup list with override placed first, unless it is
// empty or already part of the defaults.
func Candidates(override string, defaults []string) []string {
	var candidates []string
	if override != "" {
		candidates = append(candidates, override)
	}

	for _, c := range defaults {
		if c != override {
			candidates = append(candidates, c)
		}
	}

	return candidates
}

// Resolve probes candidates in order and returns the first one that resolves
// to an executable.
func Resolve(candidates []string) (Runtime, error) {
	if len(candidates) == 0 {
		return Runtime{}, NewRuntimeError("redline: no candidate paths to probe")
	}

	var errs []error
	for _, candidate := range candidates {
		binPath, err := exec.LookPath(candidate)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		return Runtime{path: binPath}, nil
	}

	return Runtime{}, NewRuntimeError(fmt.Sprintf("redline: not found, tried %s: %s",
		strings.Join(candidates, ", "), errors.Join(errs...).Error()))
}
