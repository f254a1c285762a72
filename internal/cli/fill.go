package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/formengine"
	"github.com/goliatone/go-formstate/pkg/submit"
	"github.com/goliatone/go-formstate/pkg/tui"
)

type fillOptions struct {
	defPath     string
	postURL     string
	sanitize    bool
	maxAttempts int
	headers     map[string]string
}

// NewFillCommand creates the fill command.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	fillOpts := &fillOptions{}

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively",
		Long: `Prompt for every field of a form definition, re-prompting until each
value passes its rules, then submit. Without --post the submitted values are
printed; with --post they are sent as JSON and field errors returned by the
server are prompted again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, rootOpts, fillOpts)
		},
	}
	cmd.Flags().StringVarP(&fillOpts.defPath, "def", "d", "", "form definition file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&fillOpts.postURL, "post", "", "submit values as JSON to this URL")
	cmd.Flags().StringToStringVar(&fillOpts.headers, "header", nil, "extra request headers for --post (key=value)")
	cmd.Flags().BoolVar(&fillOpts.sanitize, "sanitize", true, "strip markup from values before submitting")
	cmd.Flags().IntVar(&fillOpts.maxAttempts, "max-attempts", 3, "prompts per invalid field before giving up (0 = unlimited)")
	return cmd
}

func runFill(cmd *cobra.Command, opts *RootOptions, fillOpts *fillOptions) error {
	def, err := loadDefinition(fillOpts.defPath)
	if err != nil {
		return err
	}
	logger := opts.logger(cmd.ErrOrStderr())

	var submitted formengine.Values
	final := func(_ context.Context, values formengine.Values) error {
		submitted = values
		return nil
	}
	if fillOpts.postURL != "" {
		httpOpts := []submit.HTTPOption{submit.WithFields(fieldNames(def.Fields)...)}
		for key, value := range fillOpts.headers {
			httpOpts = append(httpOpts, submit.WithHeader(key, value))
		}
		post := submit.HTTP(fillOpts.postURL, httpOpts...)
		final = func(ctx context.Context, values formengine.Values) error {
			if err := post(ctx, values); err != nil {
				return err
			}
			submitted = values
			return nil
		}
	}

	reporter := submit.NewReporter("")
	middlewares := []submit.Middleware{reporter.Middleware()}
	if fillOpts.sanitize {
		middlewares = append([]submit.Middleware{submit.Sanitize(nil)}, middlewares...)
	}

	engine, err := def.NewEngine(submit.Chain(final, middlewares...), formengine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "build engine", err)
	}
	reporter.Bind(engine)

	sessionOpts := []tui.Option{
		tui.WithOutput(cmd.ErrOrStderr()),
		tui.WithLogger(logger),
		tui.WithMaxAttempts(fillOpts.maxAttempts),
	}
	if opts.driver != nil {
		sessionOpts = append(sessionOpts, tui.WithPromptDriver(opts.driver))
	}
	session, err := tui.NewSession(def, engine, sessionOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "start session", err)
	}

	if _, err := session.Run(cmd.Context()); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			return WrapExitError(ExitFailure, "aborted", err)
		}
		return WrapExitError(ExitFailure, "fill "+def.ID, err)
	}

	if fillOpts.postURL != "" && opts.Format == "text" {
		return nil
	}
	if err := encode(cmd.OutOrStdout(), opts.Format, submitted); err != nil {
		return WrapExitError(ExitCommandError, "write values", err)
	}
	return nil
}
