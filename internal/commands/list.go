package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List todos" }
func (c *ListCmd) Usage() string     { return "todo list" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	return render(ctx, env, svc, out, errOut)
}

// render fetches the full list and prints it. Every mutation ends with it,
// so what is shown is always the backend's state.
func render(ctx context.Context, env *Env, svc service.Service, out, errOut io.Writer) int {
	tasks, err := svc.ListTodos(ctx)
	if err != nil {
		return backendError(errOut, err)
	}
	output.FormatTasks(out, tasks, env.Quiet())
	return exitcode.Success
}
