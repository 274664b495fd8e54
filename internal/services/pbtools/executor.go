package pbtools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Command describes one external tool invocation.
type Command struct {
	Binary string
	Args   []string
	// Dir is the working directory; empty means inherit.
	Dir string
	// LogPath receives the tool's combined stdout/stderr. Empty discards.
	LogPath string
}

// String renders the command line the way it is recorded in the run log.
func (c Command) String() string {
	parts := append([]string{c.Binary}, c.Args...)
	return strings.Join(parts, " ")
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
}

// CommandExecutor runs real subprocesses, capturing output to the command's
// log file.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, command Command) error {
	cmd := exec.CommandContext(ctx, command.Binary, command.Args...) //nolint:gosec
	if command.Dir != "" {
		cmd.Dir = command.Dir
	}

	var logFile *os.File
	if command.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(command.LogPath), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		var err error
		logFile, err = os.OpenFile(command.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open tool log %s: %w", command.LogPath, err)
		}
		defer logFile.Close()
		fmt.Fprintf(logFile, "# %s %s\n", time.Now().UTC().Format(time.RFC3339), command.String())
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Run(); err != nil {
		if command.LogPath != "" {
			return fmt.Errorf("%s: %w (log: %s)", command.Binary, err, command.LogPath)
		}
		return fmt.Errorf("%s: %w", command.Binary, err)
	}
	return nil
}
