// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/jmake/jmake/pkg/workspace"
)

var (
	// ErrUnknownCommand is the sentinel error wrapped by UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown extension command")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("extension command already registered")
	// ErrInvalidCommand is returned for a command without name or handler.
	ErrInvalidCommand = errors.New("invalid extension command")
)

type (
	// Handler runs a command against a workspace.
	Handler func(ctx context.Context, ws *workspace.Workspace, args Args) (Outcome, error)

	// Flag declares a string-valued option of a command.
	Flag struct {
		Name    string
		Default string
		Usage   string
	}

	// Command is a named build action.
	Command struct {
		Name    string
		Short   string
		Flags   []Flag
		Handler Handler
	}

	// Args carries the invocation arguments. Values holds every declared
	// flag, defaulted when not given.
	Args struct {
		Positional []string
		Values     map[string]string
	}

	// Outcome summarizes a command run.
	Outcome struct {
		Success bool
		Summary string
	}

	// UnknownCommandError is returned by Dispatch for an unregistered name.
	UnknownCommandError struct {
		Name      string
		Available []string
	}

	// Registry maps command names to commands. It is safe for concurrent use.
	Registry struct {
		mu       sync.RWMutex
		commands map[string]Command
	}
)

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown extension command %q (available: %v)", e.Name, e.Available)
}

// Unwrap returns ErrUnknownCommand for errors.Is compatibility.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}}
}

// Register adds cmd. Empty names, missing handlers and duplicates are rejected.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("%w: name %q", ErrInvalidCommand, cmd.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commands == nil {
		r.commands = map[string]Command{}
	}
	if _, dup := r.commands[cmd.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}
	cmd.Flags = slices.Clone(cmd.Flags)
	r.commands[cmd.Name] = cmd
	return nil
}

// MustRegister is Register for built-in commands; it panics on error.
func (r *Registry) MustRegister(cmd Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup returns the named command.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.commands))
}

// Commands returns the registered commands sorted by name.
func (r *Registry) Commands() []Command {
	names := r.Names()
	out := make([]Command, 0, len(names))
	for _, n := range names {
		cmd, _ := r.Lookup(n)
		out = append(out, cmd)
	}
	return out
}

// Dispatch runs the named command. Missing flag values take their defaults.
func (r *Registry) Dispatch(ctx context.Context, name string, ws *workspace.Workspace, args Args) (Outcome, error) {
	cmd, ok := r.Lookup(name)
	if !ok {
		return Outcome{}, &UnknownCommandError{Name: name, Available: r.Names()}
	}
	values := make(map[string]string, len(cmd.Flags))
	for _, f := range cmd.Flags {
		values[f.Name] = f.Default
	}
	maps.Copy(values, args.Values)
	return cmd.Handler(ctx, ws, Args{Positional: slices.Clone(args.Positional), Values: values})
}

// Int returns the named value as an int, or def when it is empty.
func (a Args) Int(name string, def int) (int, error) {
	v := a.Values[name]
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return n, nil
}
