package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/studyx/internal/repositories"
	"github.com/desertthunder/studyx/internal/server"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the development backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.NewServer(repositories.NewTaskRepository(db), server.ServerOpts{
		Addr:         addr,
		Token:        r.config.Server.Token,
		TaskPath:     r.config.Backend.TaskPath,
		ProgressPath: r.config.Backend.ProgressPath,
		Logger:       r.logger,
		Registry:     r.registry,
		Recorder:     r.recorder,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving tasks on http://%s%s and progress on http://%s%s\n",
		addr, r.config.Backend.TaskPath, addr, r.config.Backend.ProgressPath)

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}
