package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"todo/internal/auth"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	redirectURL string
}

// SetRedirectURL sets the pasted redirect URL (for testing).
func (c *LoginCmd) SetRedirectURL(u string) {
	c.redirectURL = u
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in through the hosted login page" }
func (c *LoginCmd) Usage() string     { return "todo login [--url <redirect-url>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.redirectURL, "url", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, svc service.Service, args []string, out, errOut io.Writer) int {
	flow, err := env.Session()
	if err != nil {
		return configError(errOut, err)
	}

	switch flow.CheckExpiry() {
	case auth.SessionActive:
		if !env.Quiet() {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	case auth.SessionExpired:
		// Leftover keys from the old grant must not mix with the new one.
		if err := flow.Clear(); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
	}

	if c.redirectURL != "" {
		err = c.fromURL(flow)
	} else {
		err = c.fromCallback(ctx, flow, errOut)
	}
	if err != nil {
		var perr *auth.ProviderError
		switch {
		case errors.As(err, &perr):
			fmt.Fprintf(errOut, "error: login failed: %v\n", perr)
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(errOut, "error: cancelled")
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.AuthError
	}

	if !env.Quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// fromURL reads the tokens out of a redirect address pasted by the user.
func (c *LoginCmd) fromURL(flow *auth.Flow) error {
	found, err := flow.ParseRedirectFragment(auth.FragmentOf(c.redirectURL))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", auth.ErrNoToken, auth.StripFragment(c.redirectURL))
	}
	return nil
}

// fromCallback opens the loopback receiver and waits for the browser.
func (c *LoginCmd) fromCallback(ctx context.Context, flow *auth.Flow, errOut io.Writer) error {
	state := uuid.NewString()

	cb, err := auth.ListenCallback(flow, state)
	if err != nil {
		return err
	}

	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, flow.Provider().LoginURL(state))

	return cb.Wait(ctx, auth.CallbackTimeout)
}
