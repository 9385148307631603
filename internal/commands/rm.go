package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a todo" }
func (c *RmCmd) Usage() string     { return "todo rm <n | id:ID>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(ctx, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := svc.DeleteTodo(ctx, task.ID); err != nil {
		return backendError(errOut, err)
	}
	env.logger().Debug("todo deleted", "id", task.ID)

	return render(ctx, env, svc, out, errOut)
}
