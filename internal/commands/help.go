package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands; DefaultRegistry when nil.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  todo                 List all todos")
	for _, cmd := range reg.All() {
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-20s %s\n", cmd.Name(), line)
		fmt.Fprintf(out, "  %-20s   %s\n", "", cmd.Usage())
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
Task references:
  <n>              Number shown by todo list
  id:<id>          Backend ID of the todo

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment (also read from ./.env and <config dir>/.env):
  TODO_AUTH_DOMAIN, TODO_CLIENT_ID, TODO_REDIRECT_URI, TODO_LOGOUT_URI,
  TODO_RESPONSE_TYPE, TODO_SCOPES, TODO_API_BASE, TODO_API_TIMEOUT,
  TODO_MAX_RETRIES, TODO_SESSION_STORE
`
