package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("log-file")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logger, closer := shared.NewFileLogger(path)
	defer closer.Close()
	r.SetLogger(logger)

	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}
	view, err := r.configView()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, session, view, logger)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
