package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/hstr/web"
)

type ServeCmd struct {
	Files []string `help:"Source files to serve." arg:"" type:"existingfile"`
	Port  int      `help:"Port to listen on." default:"8080"`
	Watch bool     `help:"Rescan files when they change." short:"w"`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	e, err := globals.env(ctx.Stderr)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(e.context(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, reportTelemetry := globals.startTelemetry(runCtx, ctx.Stderr, "serve")
	defer reportTelemetry()

	server := web.New(cmd.Port, e.loader, cmd.Files...)
	server.Version = Version
	server.CommitSHA = CommitSHA
	server.WatchEnabled = cmd.Watch
	server.Logger = e.logger

	printInfof(ctx.Stderr, "Listening on http://%s:%d", server.Host, server.Port)
	return server.Start(runCtx)
}
