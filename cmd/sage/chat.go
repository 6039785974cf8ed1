package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/listener"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/reminders"
	sageserver "github.com/HendryAvila/sage/internal/server"
)

var (
	chatWake  bool
	exportOut string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the engine from the terminal",
	Long: `Reads one utterance per line from stdin and prints each reply. Every
turn is classified, answered and remembered exactly as it would be through
the MCP server.

With --wake, lines are ignored unless they contain the configured wake word
(SAGE_WAKE_WORD). A line holding only the wake word makes the next line the
command.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [utterance]",
	Short: "Classify an utterance without recording it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export memory as JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON memory export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, cleanup, err := sageserver.NewEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	var outMu sync.Mutex
	say := func(format string, a ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(out, format, a...)
	}

	wake := ""
	if chatWake {
		wake = cfg.WakeWord
		say("Say %q followed by a command.\n", wake)
	}
	if s, err := e.Summarize(0); err == nil {
		say("[%s]\n", s)
	}

	l := listener.New(listener.NewLineSource(cmd.InOrStdin()), e, listener.Options{
		WakeWord: wake,
		Logger:   logger.Named("listener"),
		OnTurn: func(turn *engine.Turn, err error) {
			if turn != nil {
				say("%s\n", turn.Response)
			}
			if memory.IsStoreFailure(err) {
				say("(not remembered: %v)\n", err)
			}
		},
	})

	poller := reminders.New(e.Store(), func(_ context.Context, r memory.Reminder) {
		say("Reminder: %s\n", r.Content)
	}, reminders.Options{Interval: cfg.ReminderInterval, Logger: logger.Named("reminders")})

	g, gctx := errgroup.WithContext(ctx)
	pollCtx, stopPoll := context.WithCancel(gctx)

	g.Go(func() error {
		return poller.Run(pollCtx)
	})

	g.Go(func() error {
		defer stopPoll()
		if err := l.Start(gctx); err != nil {
			return err
		}
		done := make(chan struct{})
		go func() {
			l.Wait()
			close(done)
		}()
		select {
		case <-gctx.Done():
			l.Stop()
		case <-done:
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	e, cleanup, err := sageserver.NewEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer cleanup()

	// A partial summary still carries user and location.
	summary, _ := e.Summarize(0)
	res := e.Classify(strings.Join(args, " "), summary.String())
	return writeJSON(cmd.OutOrStdout(), res)
}

func runExport(cmd *cobra.Command, args []string) error {
	e, cleanup, err := sageserver.NewEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer cleanup()

	data, err := e.Store().Export()
	if err != nil {
		return fmt.Errorf("exporting memory: %w", err)
	}
	if exportOut == "" {
		return writeJSON(cmd.OutOrStdout(), data)
	}

	f, err := os.OpenFile(exportOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := writeJSON(f, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d conversations to %s\n", len(data.Conversations), exportOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var data memory.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	e, cleanup, err := sageserver.NewEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer cleanup()

	res, err := e.Store().Import(&data)
	if err != nil {
		return fmt.Errorf("importing memory: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
