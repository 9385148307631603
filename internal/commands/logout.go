package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/auth"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Clear the session and log out of the hosted login" }
func (c *LogoutCmd) Usage() string     { return "todo logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	flow, err := env.Session()
	if err != nil {
		return configError(errOut, err)
	}

	if flow.CheckExpiry() == auth.SessionNone {
		if !env.Quiet() {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := flow.ForceLogout(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
