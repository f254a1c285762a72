// Package cli implements the formstate-cli commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/tui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"

	driver tui.PromptDriver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(nil)
}

// newRootCommand lets tests script the fill prompts.
func newRootCommand(driver tui.PromptDriver) *cobra.Command {
	opts := &RootOptions{driver: driver}

	cmd := &cobra.Command{
		Use:   "formstate-cli",
		Short: "Validate and fill forms described by definitions or OpenAPI operations",
		Long: `formstate-cli works with declarative form definitions (YAML or JSON).

It validates recorded values against a definition's rules, fills a form
interactively in the terminal, and derives definitions from OpenAPI request
bodies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))

	return cmd
}

// logger writes to errW so structured logs never mix with command output.
func (o *RootOptions) logger(errW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: level}))
}
