package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/formengine"
	"github.com/goliatone/go-formstate/pkg/patch"
)

// ValidationResult is the structured output of validate.
type ValidationResult struct {
	Valid   bool              `json:"valid" yaml:"valid"`
	Errors  map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Ignored []string          `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Patched []string          `json:"patched,omitempty" yaml:"patched,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var defPath, patchPath string

	cmd := &cobra.Command{
		Use:   "validate <values-file>",
		Short: "Validate recorded values against a form definition",
		Long: `Validate a YAML or JSON object of field values against the rules of a
form definition. Keys the definition does not declare are reported as ignored.
With --patch, an RFC 6902 JSON patch is applied to the values before
validation. Exits with status 1 when any field is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, defPath, patchPath, args[0])
		},
	}
	cmd.Flags().StringVarP(&defPath, "def", "d", "", "form definition file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&patchPath, "patch", "", "RFC 6902 JSON patch applied to the values before validating")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, defPath, patchPath, valuesPath string) error {
	def, err := loadDefinition(defPath)
	if err != nil {
		return err
	}
	values, err := loadValues(valuesPath)
	if err != nil {
		return err
	}

	logger := opts.logger(cmd.ErrOrStderr())
	engine, err := def.NewEngine(func(context.Context, formengine.Values) error { return nil }, formengine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "build engine", err)
	}

	result := ValidationResult{}
	for name, value := range values {
		if _, ok := engine.Value(name); !ok {
			result.Ignored = append(result.Ignored, name)
			continue
		}
		engine.SetFieldValue(name, value)
	}
	sort.Strings(result.Ignored)

	if patchPath != "" {
		data, err := os.ReadFile(patchPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "read patch", err)
		}
		ops, err := patch.Decode(data)
		if err != nil {
			return WrapExitError(ExitCommandError, "parse patch", err)
		}
		if result.Patched, err = patch.Apply(engine, ops); err != nil {
			return WrapExitError(ExitCommandError, "apply patch", err)
		}
	}

	result.Valid = engine.ValidateForm()
	if !result.Valid {
		result.Errors = engine.Errors()
	}

	out := cmd.OutOrStdout()
	if opts.Format == "text" {
		writeValidationText(cmd, result)
	} else if err := encode(out, opts.Format, result); err != nil {
		return WrapExitError(ExitCommandError, "write result", err)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d invalid field(s)", def.ID, len(result.Errors)))
	}
	return nil
}

func writeValidationText(cmd *cobra.Command, result ValidationResult) {
	out := cmd.OutOrStdout()
	for _, name := range result.Ignored {
		fmt.Fprintf(out, "ignored: %s\n", name)
	}
	for _, name := range result.Patched {
		fmt.Fprintf(out, "patched: %s\n", name)
	}
	if result.Valid {
		fmt.Fprintln(out, "valid")
		return
	}
	names := make([]string, 0, len(result.Errors))
	for name := range result.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s: %s\n", name, result.Errors[name])
	}
}
