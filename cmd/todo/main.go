// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/api"
	"todo/internal/auth"
	"todo/internal/backend/todoapi"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, env *commands.Env, flow *auth.Flow) (service.Service, error) {
		httpClient, err := api.NewHTTPClient(env.Settings.MaxRetries)
		if err != nil {
			return nil, err
		}
		client := api.New(api.Config{
			BaseURL:        env.Settings.APIBase,
			HTTP:           httpClient,
			Tokens:         flow.Store(),
			OnUnauthorized: flow.ForceLogout,
			Timeout:        env.Settings.APITimeout,
			Logger:         env.Logger,
		})
		return todoapi.New(client, env.Logger), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
