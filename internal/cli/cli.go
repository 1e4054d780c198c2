package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/specialistvlad/sapmd/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sapmd", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sapmd - Audio power-domain manager for codec cards.

Usage:
  sapmd [options] [CARD_PATH...]

Arguments:
  CARD_PATH
    Path to a single .hcl file or a directory containing .hcl files.
    Several paths are merged into one card.

Options:
`)
		flagSet.PrintDefaults()
	}

	cardFlag := flagSet.String("card", "", "Path to the card file or directory.")
	cFlag := flagSet.String("c", "", "Path to the card file or directory (shorthand).")
	httpPortFlag := flagSet.Int("http-port", 0, "Port for the HTTP control API and metrics. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	writeTimeoutFlag := flagSet.Duration("write-timeout", 100*time.Millisecond, "Upper bound for each register bus access. 0 is unbounded.")
	breakerFlag := flagSet.Uint("breaker-failures", 5, "Consecutive register bus failures that open the circuit breaker.")
	onceFlag := flagSet.Bool("once", false, "Settle the card, print its power table and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *cardFlag != "":
		paths = append(paths, *cardFlag)
	case *cFlag != "":
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Card paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No card path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *breakerFlag > 1<<32-1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid breaker-failures: value too large"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		CardPaths:       paths,
		HTTPPort:        *httpPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		WriteTimeout:    *writeTimeoutFlag,
		BreakerFailures: uint32(*breakerFlag),
		Once:            *onceFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
