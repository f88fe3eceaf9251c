// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmake/jmake/pkg/workspace"
)

func echoCommand(name string) Command {
	return Command{
		Name:  name,
		Short: "echo arguments",
		Flags: []Flag{{Name: "greeting", Default: "hello"}, {Name: "jobs", Default: "2"}},
		Handler: func(_ context.Context, ws *workspace.Workspace, args Args) (Outcome, error) {
			return Outcome{Success: true, Summary: args.Values["greeting"] + " " + ws.Name}, nil
		},
	}
}

func TestRegistryDispatch(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if err := r.Register(echoCommand("echo")); err != nil {
		t.Fatal(err)
	}
	ws := workspace.New("jolly", t.TempDir())

	out, err := r.Dispatch(t.Context(), "echo", ws, Args{})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Summary != "hello jolly" {
		t.Errorf("Dispatch() = %+v", out)
	}

	out, err = r.Dispatch(t.Context(), "echo", ws, Args{Values: map[string]string{"greeting": "hi"}})
	if err != nil || out.Summary != "hi jolly" {
		t.Errorf("Dispatch(greeting=hi) = %+v, %v", out, err)
	}
}

func TestRegistryUnknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.MustRegister(echoCommand("echo"))

	_, err := r.Dispatch(t.Context(), "lint", workspace.New("w", t.TempDir()), Args{})
	var uce *UnknownCommandError
	if !errors.As(err, &uce) || uce.Name != "lint" || !reflect.DeepEqual(uce.Available, []string{"echo"}) {
		t.Fatalf("Dispatch(lint) = %v, want UnknownCommandError", err)
	}
	if !errors.Is(err, ErrUnknownCommand) {
		t.Error("errors.Is(err, ErrUnknownCommand) = false")
	}
}

func TestRegistryRegisterRejects(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.MustRegister(echoCommand("echo"))

	if err := r.Register(echoCommand("echo")); !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("Register(duplicate) = %v", err)
	}
	if err := r.Register(echoCommand("")); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Register(empty name) = %v", err)
	}
	if err := r.Register(Command{Name: "nohandler"}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Register(nil handler) = %v", err)
	}
}

func TestRegistryListing(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.MustRegister(echoCommand("zeta"))
	r.MustRegister(echoCommand("alpha"))

	if got := r.Names(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("Names() = %v", got)
	}
	cmds := r.Commands()
	if len(cmds) != 2 || cmds[0].Name != "alpha" {
		t.Errorf("Commands() = %v", cmds)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) = true")
	}
}

func TestArgsInt(t *testing.T) {
	t.Parallel()
	a := Args{Values: map[string]string{"jobs": "4", "bad": "x"}}

	if n, err := a.Int("jobs", 1); err != nil || n != 4 {
		t.Errorf("Int(jobs) = %d, %v", n, err)
	}
	if n, err := a.Int("unset", 3); err != nil || n != 3 {
		t.Errorf("Int(unset) = %d, %v", n, err)
	}
	if _, err := a.Int("bad", 1); err == nil {
		t.Error("Int(bad) should fail")
	}
}
