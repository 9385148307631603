package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It flips the completion flag, so
// running it on a finished todo reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a todo between open and done" }
func (c *DoneCmd) Usage() string     { return "todo done <n | id:ID>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(ctx, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := svc.SetDone(ctx, task.ID, !task.Done); err != nil {
		return backendError(errOut, err)
	}
	env.logger().Debug("todo toggled", "id", task.ID, "done", !task.Done)

	return render(ctx, env, svc, out, errOut)
}

// lookupTask parses the reference in args and finds the task it names.
func lookupTask(ctx context.Context, svc service.Service, args []string, errOut io.Writer) (service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError
	}

	task, err := findTask(ctx, svc, ref)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return service.Task{}, exitcode.UserError
		}
		return service.Task{}, backendError(errOut, err)
	}

	if !task.HasID() {
		fmt.Fprintf(errOut, "error: task %s has no id and cannot be changed\n", ref)
		return service.Task{}, exitcode.UserError
	}
	return task, exitcode.Success
}
