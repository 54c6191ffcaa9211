package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tasklock/internal/app"
	"tasklock/internal/logging"
	"tasklock/internal/server"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Serve exposes the task state over HTTP. Set TASKLOCK_JWT_SECRET to require bearer tokens (see tasklock token).",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd)
			cfg, err := app.Resolve(opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			log := logging.New(cfg, opts.LogOutput)
			e, closeDB, err := app.Open(cfg, opts.Workspace, log)
			if err != nil {
				return err
			}
			defer closeDB()

			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: c.v.GetString("jwt-secret"), Logger: log},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info().Str("addr", addr).Str("base_path", basePath).Bool("auth", c.v.GetString("jwt-secret") != "").Msg("serving")
			fmt.Fprintf(cmd.OutOrStdout(), "Serving Tasklock API on http://%s%s (OpenAPI at %s/openapi.json, docs at %s/docs)\n", addr, basePath, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from tasklock.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from tasklock.yml)")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API (needs TASKLOCK_JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := server.SignToken(c.v.GetString("jwt-secret"), subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "local-user", "token subject")
	return cmd
}
