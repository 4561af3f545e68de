// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Run the renderer host until interrupted.

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jeranaias/rigrun-diffs/internal/server"
)

// shutdownTimeout bounds graceful shutdown after an interrupt.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the renderer host. --addr overrides the configured
// host and port; --assets serves a renderer bundle directory.
func HandleServe(ctx context.Context, args *ArgParser, env Env) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	addr := args.FlagOrDefault("addr", cfg.Addr())

	p := newPipeline(cfg, env.Logger)
	opts := []server.Option{server.WithLogger(env.Logger), server.WithReaders(p.readers)}
	if dir := args.Flag("assets"); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return NewCommandError("serve", "open assets", err)
		}
		opts = append(opts, server.WithAssets(os.DirFS(dir)))
	}
	srv := server.New(cfg, p.proc, p.cache, opts...)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		srv.Close()
		return NewCommandError("serve", "listen", err)
	}
	fmt.Fprintf(env.Stderr, "%s renderer host on http://%s\n", SuccessStyle.Render("[OK]"), ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		srv.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return NewCommandError("serve", "shutdown", err)
	}
	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return nil
	}
}
