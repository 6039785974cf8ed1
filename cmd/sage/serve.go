package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/reminders"
	sageserver "github.com/HendryAvila/sage/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Serves the Sage tools, prompts and resources over stdio. Alongside the
server it polls for due reminders and reloads the custom intents file when it
changes.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "sage": {
        "command": "sage",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, cleanup, err := sageserver.NewEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer cleanup()

	s := sageserver.New(e)

	poller := reminders.New(e.Store(), func(_ context.Context, r memory.Reminder) {
		logger.Info("reminder due", zap.Int64("id", r.ID), zap.String("content", r.Content))
		s.SendNotificationToAllClients("notifications/message", map[string]any{
			"level":  "info",
			"logger": "sage.reminders",
			"data":   map[string]any{"id": r.ID, "content": r.Content, "priority": r.Priority},
		})
	}, reminders.Options{Interval: cfg.ReminderInterval, Logger: logger.Named("reminders")})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The client closing stdin ends the whole process.
		defer cancel()
		stdio := server.NewStdioServer(s)
		stdio.SetErrorLogger(zap.NewStdLog(logger.Named("stdio")))
		return stdio.Listen(gctx, os.Stdin, os.Stdout)
	})

	g.Go(func() error {
		return poller.Run(gctx)
	})

	if cfg.IntentsFile != "" {
		w := catalog.NewWatcher(e.Catalog(), cfg.IntentsFile, logger.Named("intents"))
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	logger.Info("sage serving", zap.String("version", sageserver.Version))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
