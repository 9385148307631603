package commands

import (
	"context"
	"flag"
	"io"
	"testing"

	"todo/internal/service"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c *stubCmd) Name() string                 { return c.name }
func (c *stubCmd) Aliases() []string            { return c.aliases }
func (c *stubCmd) Synopsis() string             { return "stub " + c.name }
func (c *stubCmd) Usage() string                { return "todo " + c.name }
func (c *stubCmd) NeedsAuth() bool              { return false }
func (c *stubCmd) RegisterFlags(*flag.FlagSet) {}
func (c *stubCmd) Run(context.Context, *Env, service.Service, []string, io.Writer, io.Writer) int {
	return 0
}

func TestRegistry_FindByAlias(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubCmd{name: "rm", aliases: []string{"delete"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{"rm", "delete"} {
		cmd, ok := r.Find(name)
		if !ok || cmd.Name() != "rm" {
			t.Errorf("Find(%q) = %v, %v", name, cmd, ok)
		}
	}
	if _, ok := r.Find("remove"); ok {
		t.Error("unexpected match for unknown name")
	}
}

func TestRegistry_Conflicts(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubCmd{name: "list", aliases: []string{"ls"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.Register(&stubCmd{name: "ls"}); err == nil {
		t.Error("expected conflict with alias")
	}
	if err := r.Register(&stubCmd{name: "show", aliases: []string{"list"}}); err == nil {
		t.Error("expected conflict with name")
	}
	if _, ok := r.Find("show"); ok {
		t.Error("a rejected command must not be registered")
	}
}

func TestRegistry_AllSortedOncePerCommand(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubCmd{name: "rm", aliases: []string{"delete"}})
	r.Register(&stubCmd{name: "add", aliases: []string{"create"}})

	all := r.All()
	if len(all) != 2 || all[0].Name() != "add" || all[1].Name() != "rm" {
		t.Errorf("unexpected order %v", all)
	}
}

func TestDefaultRegistry_Commands(t *testing.T) {
	want := map[string]string{
		"list": "list", "ls": "list",
		"add": "add", "create": "add",
		"done": "done", "toggle": "done",
		"rm": "rm", "delete": "rm",
		"status": "status", "whoami": "status",
		"login": "login", "logout": "logout",
		"help": "help", "version": "version",
	}
	for name, primary := range want {
		cmd, ok := DefaultRegistry.Find(name)
		if !ok || cmd.Name() != primary {
			t.Errorf("Find(%q): expected %q", name, primary)
		}
	}
}
