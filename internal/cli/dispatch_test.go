package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"todo/internal/auth"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/testutil"
	"todo/internal/tokenstore"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, env *commands.Env, flow *auth.Flow) (service.Service, error) {
		return svc, nil
	}
}

// memorySession presets settings and a shared in-memory session.
func memorySession(storage tokenstore.Storage) cli.Option {
	return cli.WithEnvSetup(func(env *commands.Env) {
		env.Settings = &config.Settings{
			AuthDomain:   "https://auth.example.com",
			ClientID:     "client-123",
			RedirectURI:  "http://localhost:8085/callback",
			ResponseType: "token id_token",
			Scopes:       []string{"openid", "email"},
			APIBase:      "https://api.example.com",
			APITimeout:   time.Second,
			SessionStore: config.StoreMemory,
		}
		env.Storage = storage
		env.Now = func() time.Time { return now }
	})
}

func loggedIn(t *testing.T, expiry time.Time) tokenstore.Storage {
	t.Helper()
	storage := tokenstore.NewMemoryStorage()
	if err := storage.Set(tokenstore.KeyIDToken, "id-token"); err != nil {
		t.Fatal(err)
	}
	if !expiry.IsZero() {
		if err := storage.Set(tokenstore.KeyTokenExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
			t.Fatal(err)
		}
	}
	return storage
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(d, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: unknowncmd\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(d, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: --quiet\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	stdout, stderr, code := run(d, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	stdout, stderr, code := run(d, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected 'todo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(d, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown flag: -unknown\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(d, "login", "--url")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: flag needs an argument: -url\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_DefaultsToList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Buy milk", false)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(loggedIn(t, time.Time{})))

	stdout, stderr, code := run(d)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestDispatcher_Aliases(t *testing.T) {
	svc := testutil.NewFakeService()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(loggedIn(t, time.Time{})))

	if _, stderr, code := run(d, "create", "--quiet", "Buy", "milk"); code != exitcode.Success {
		t.Fatalf("create failed: %d %q", code, stderr)
	}
	if _, stderr, code := run(d, "toggle", "1"); code != exitcode.Success {
		t.Fatalf("toggle failed: %d %q", code, stderr)
	}
	stdout, _, code := run(d, "ls")
	if code != exitcode.Success {
		t.Fatalf("ls failed: %d", code)
	}
	if stdout != "   1  [x] Buy milk\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	if _, _, code := run(d, "delete", "1"); code != exitcode.Success {
		t.Fatalf("delete failed: %d", code)
	}
	if len(svc.Tasks()) != 0 {
		t.Errorf("expected the todo to be deleted, got %+v", svc.Tasks())
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(tokenstore.NewMemoryStorage()))

	stdout, stderr, code := run(d, "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: not logged in (run: todo login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.ListCount() != 0 {
		t.Error("no request should be made without a session")
	}
}

func TestDispatcher_ExpiredSessionLogsOut(t *testing.T) {
	svc := testutil.NewFakeService()
	storage := loggedIn(t, now.Add(-time.Minute))
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(storage))

	_, stderr, code := run(d, "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "https://auth.example.com/logout?client_id=client-123") {
		t.Errorf("expected the logout URL on stderr, got %q", stderr)
	}
	if !strings.HasSuffix(stderr, "error: session expired (run: todo login)\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, ok := storage.Get(tokenstore.KeyIDToken); ok {
		t.Error("expected the expired token to be cleared")
	}
	if svc.ListCount() != 0 {
		t.Error("no request should be made with an expired token")
	}
}

func TestDispatcher_ExpiryBoundary(t *testing.T) {
	svc := testutil.NewFakeService()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(loggedIn(t, now)))

	if _, stderr, code := run(d, "list"); code != exitcode.Success {
		t.Errorf("a token expiring exactly now is still valid: %d %q", code, stderr)
	}
}

func TestDispatcher_InvalidSettings(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()),
		cli.WithEnvSetup(func(env *commands.Env) {
			env.Settings = &config.Settings{}
		}))

	_, stderr, code := run(d, "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: config error: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	factory := func(ctx context.Context, env *commands.Env, flow *auth.Flow) (service.Service, error) {
		return nil, errors.New("dial failed")
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, factory, memorySession(loggedIn(t, time.Time{})))

	_, stderr, code := run(d, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: dial failed\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	svc := testutil.NewFakeService()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc), memorySession(loggedIn(t, time.Time{})))

	_, stderr, code := run(d, "add", "--debug", "x")

	if code != exitcode.Success {
		t.Fatalf("add failed: %d", code)
	}
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, "todo created") {
		t.Errorf("expected debug log on stderr, got %q", stderr)
	}
}
