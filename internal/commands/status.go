package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/auth"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command. It only reads the session;
// an expired token is reported, not cleared.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"whoami"} }
func (c *StatusCmd) Synopsis() string  { return "Show the local session" }
func (c *StatusCmd) Usage() string     { return "todo status [common flags]" }
func (c *StatusCmd) NeedsAuth() bool   { return false }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	flow, err := env.Session()
	if err != nil {
		return configError(errOut, err)
	}

	state := flow.CheckExpiry()
	status := output.Status{State: state.String()}

	tok, ok := flow.Token()
	if ok {
		status.Kind = string(tok.Kind)
		status.Expiry = tok.Expiry
		if claims, err := auth.DecodeClaims(tok.Value); err == nil {
			status.User = claims.Who()
			if status.Expiry.IsZero() {
				status.Expiry = claims.Expiry()
			}
		} else {
			env.logger().Debug("token is not a readable JWT", "error", err)
		}
	}

	output.FormatStatus(out, status)

	if state != auth.SessionActive {
		return exitcode.AuthError
	}
	return exitcode.Success
}
