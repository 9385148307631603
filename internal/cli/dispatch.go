package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/api"
	"todo/internal/auth"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/service"
)

// ServiceFactory creates a Service for a logged-in session.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, env *commands.Env, flow *auth.Flow) (service.Service, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEnvSetup runs setup on every Env before the command sees it.
// Tests use it to preset settings, storage and the clock.
func WithEnvSetup(setup func(*commands.Env)) Option {
	return func(d *Dispatcher) { d.setup = setup }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	setup    func(*commands.Env)
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return flagError(errOut, err)
	}

	// A positional arg starting with - should have been parsed as a flag
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	env := &commands.Env{
		Config:   cfg,
		Logger:   logging.New(errOut, debug),
		Redirect: printRedirect(errOut),
	}
	if d.setup != nil {
		d.setup(env)
	}

	var svc service.Service
	if cmd.NeedsAuth() {
		var code int
		svc, code = d.session(ctx, env, errOut)
		if code != exitcode.Success {
			return code
		}
	}

	return cmd.Run(ctx, env, svc, positionalArgs, out, errOut)
}

// session checks the local session before any request is made. An expired
// token is logged out here, so the command never sends it.
func (d *Dispatcher) session(ctx context.Context, env *commands.Env, errOut io.Writer) (service.Service, int) {
	flow, err := env.Session()
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %v\n", err)
		return nil, exitcode.AuthError
	}

	switch flow.CheckExpiry() {
	case auth.SessionNone:
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return nil, exitcode.AuthError
	case auth.SessionExpired:
		if err := flow.ForceLogout(); err != nil {
			env.Logger.Error("logout after expiry failed", "error", err)
		}
		fmt.Fprintln(errOut, "error: session expired (run: todo login)")
		return nil, exitcode.AuthError
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: no backend configured")
		return nil, exitcode.BackendError
	}

	svc, err := d.factory(ctx, env, flow)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return nil, exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return nil, exitcode.BackendError
	}
	return svc, exitcode.Success
}

// printRedirect shows provider pages as a URL on stderr; the CLI does not
// drive a browser itself.
func printRedirect(errOut io.Writer) auth.Redirector {
	return auth.RedirectFunc(func(url string) error {
		fmt.Fprintln(errOut, "Open this URL to finish logging out:")
		fmt.Fprintln(errOut, url)
		return nil
	})
}

func flagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	// Missing flag value
	if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
		parts := strings.Split(errStr, ":")
		if len(parts) > 1 {
			flagPart := strings.TrimSpace(parts[len(parts)-1])
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
			return exitcode.UserError
		}
	}

	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
