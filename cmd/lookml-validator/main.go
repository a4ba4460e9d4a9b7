package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/app"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/logging"
	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/parser"
)

var (
	version    = "1.0.0"
	verbose    bool
	isFirstRun bool
)

// Exit codes for structured error reporting.
const (
	ExitSuccess    = 0
	ExitInternal   = 1
	ExitInvalidArg = 2
	ExitNotFound   = 3
	ExitMalformed  = 4
	ExitFindings   = 6
)

// FindingsError indicates the analysis completed but findings were detected.
type FindingsError struct {
	Count int
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("%d findings detected", e.Count)
}

func main() {
	logging.Init(false)
	isFirstRun = app.IsFirstRun()

	root := &cobra.Command{
		Use:   "lookml-validator",
		Short: "LookML dashboard filter coverage analyzer",
		Long: `lookml-validator parses LookML dashboard definitions and checks
which dashboard filters are actually wired to tiles through listen
bindings.

It reports per-filter coverage, flags filters with missing or partial
linkage, and can serve the same analysis over HTTP for CI and review
tooling.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(NewAnalyzeCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewVersionCmd())

	if err := root.Execute(); err != nil {
		exitCode := classifyError(err)
		var fe *FindingsError
		if errors.As(err, &fe) {
			slog.Info("findings detected", slog.Int("count", fe.Count))
		} else {
			slog.Error("command failed", slog.String("error", err.Error()))
		}
		os.Exit(exitCode)
	}
}

func classifyError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *FindingsError
	if errors.As(err, &fe) {
		return ExitFindings
	}

	var malformed *parser.MalformedDefinitionError
	var duplicate *parser.DuplicateFilterError
	if errors.As(err, &malformed) || errors.As(err, &duplicate) {
		return ExitMalformed
	}

	if os.IsNotExist(err) {
		return ExitNotFound
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "not a directory") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "no such file") {
		return ExitNotFound
	}

	if strings.Contains(msg, "required") ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "must be") ||
		strings.Contains(msg, "unsupported") {
		return ExitInvalidArg
	}

	return ExitInternal
}
