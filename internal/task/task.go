// Package task defines the unit of work scheduled against the catalog.
//
// A Task is identified by its kind and its ordered parameter values: two tasks
// with the same kind and parameters are the same unit of work. Whether a task
// still needs to run is decided by asking the catalog (Complete), never by
// in-process bookkeeping, which makes re-running an invocation safe.
package task

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Task is a unit of work with side effects in the catalog
type Task interface {
	// Kind names the task type, e.g. "CreateProject"
	Kind() string

	// Params returns the bound parameters in declaration order
	Params() Params

	// Run performs the side effect
	Run(ctx context.Context) error

	// Complete reports whether the catalog already reflects the task's
	// effect. It must not modify the catalog. "Not found" is (false, nil).
	Complete(ctx context.Context) (bool, error)

	// Dependencies returns the tasks that must be complete before Run.
	// It must be built from this task's own parameters only and must not
	// perform I/O.
	Dependencies() ([]Task, error)
}

// Param is one named parameter value
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list
type Params []Param

// Get returns the value bound to name
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Map returns the parameters keyed by name
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}
	return m
}

// String renders the parameters as name=value pairs
func (p Params) String() string {
	parts := make([]string, len(p))
	for i, param := range p {
		parts[i] = fmt.Sprintf("%s=%s", param.Name, param.Value)
	}
	return strings.Join(parts, ", ")
}

// Identity is the comparable identity of a task
type Identity struct {
	Kind   string
	Params string
	ID     string
}

// String renders the identity as Kind(name=value, ...)
func (i Identity) String() string {
	return fmt.Sprintf("%s(%s)", i.Kind, i.Params)
}

// IdentityOf computes the identity of t. The ID is a BLAKE3 digest over a
// length-prefixed encoding of the kind and parameters, so values containing
// separators cannot collide.
func IdentityOf(t Task) Identity {
	params := t.Params()

	hasher := blake3.New()
	writeField(hasher, t.Kind())
	for _, p := range params {
		writeField(hasher, p.Name)
		writeField(hasher, p.Value)
	}
	sum := hasher.Sum(nil)

	return Identity{
		Kind:   t.Kind(),
		Params: params.String(),
		ID:     fmt.Sprintf("%x", sum[:16]),
	}
}

func writeField(h *blake3.Hasher, s string) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(s)))
	_, _ = h.Write(length[:])
	_, _ = h.Write([]byte(s))
}

// Describe returns a short human-readable label for t
func Describe(t Task) string {
	return IdentityOf(t).String()
}
