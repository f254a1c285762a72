package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/formdef"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		source      string
		operationID string
		list        bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Derive a form definition from an OpenAPI operation",
		Long: `Load an OpenAPI 3 document (file path or http(s) URL) and print the form
definition derived from an operation's request body. With --list, print the
operations that accept a request body instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseSource(source)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := formstate.NewLoader(pkgopenapi.WithHTTPFallback(timeout)).Load(ctx, src)
			if err != nil {
				return WrapExitError(ExitCommandError, "load document", err)
			}
			importer := formstate.NewImporter()

			if list {
				ops, err := importer.Operations(ctx, doc)
				if err != nil {
					return WrapExitError(ExitCommandError, "list operations", err)
				}
				if rootOpts.Format == "text" {
					for _, op := range ops {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\n", op.ID, op.Method, op.Path)
					}
					return nil
				}
				return encode(cmd.OutOrStdout(), rootOpts.Format, ops)
			}

			if operationID == "" {
				return NewExitError(ExitCommandError, "--operation is required unless --list is set")
			}
			def, err := importer.Definition(ctx, doc, operationID)
			if err != nil {
				return WrapExitError(ExitCommandError, "import operation", err)
			}
			return encode(cmd.OutOrStdout(), rootOpts.Format, def)
		},
	}
	cmd.Flags().StringVar(&source, "openapi", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&operationID, "operation", "", "operation id to import")
	cmd.Flags().BoolVar(&list, "list", false, "list operations with request bodies")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for fetching remote documents")
	return cmd
}

func fieldNames(fields []formdef.Field) []string {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names
}
