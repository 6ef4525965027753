package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

var logFile *os.File

// setupLog discards log output unless debugging is enabled through the
// config file or RSVP_DEBUG. The TUI owns the terminal, so logs go to a file.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	closer := func() error {
		if logFile == nil {
			return nil
		}
		return logFile.Close() //nolint:wrapcheck
	}

	if !viper.GetBool("debug") {
		return closer, nil
	}
	return closer, enableDebugLog()
}

// enableDebugLog starts writing debug logs to rsvp.log in the user's log
// directory.
func enableDebugLog() error {
	if logFile != nil {
		return nil
	}

	logPath, err := gap.NewScope(gap.User, "rsvp").LogPath("rsvp.log")
	if err != nil {
		return fmt.Errorf("unable to find log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	logFile = f

	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	log.Debug("Logging to file", "path", logPath)
	return nil
}
