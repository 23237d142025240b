// Package validate provides the validate command, which checks a release
// file and its mapping document without reading any source data.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/cmd/alerts"
	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

// NewCommand creates the validate command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var mappingPath string

	cmd := &cobra.Command{
		Use:     "validate [release-file]",
		GroupID: "management",
		Short:   "Validate a release file and its mapping document",
		Long: `Validate loads a release file, checks its configuration, and compiles
every template of the referenced mapping document. Templates named by the
release but missing from the document are reported.

With --mapping only the mapping document is checked.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  cdsmap validate                          # Check ./release.yaml
  cdsmap validate releases/b1.yaml
  cdsmap validate --mapping mappings.yaml  # Check a mapping document only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}

			var required []string
			if mappingPath == "" {
				path := app.ReleaseFile()
				if len(args) == 1 {
					path = args[0]
				}
				cfg, err := app.LoadRelease(path)
				if err != nil {
					return err
				}
				mappingPath = cfg.Mapping
				for _, t := range cfg.Templates {
					required = append(required, t.Name)
				}
			}

			doc, err := app.LoadMapping(mappingPath)
			if err != nil {
				return err
			}

			templates := output.Templates(doc)
			if err := output.Render(cmd.OutOrStdout(), format, templates, output.TemplatesData(templates)); err != nil {
				return err
			}

			var errs []error
			if err := doc.Validate(); err != nil {
				errs = append(errs, err)
			}
			for _, name := range required {
				if !doc.Has(name) {
					errs = append(errs, errors.NewSpecNotFoundError(name, doc.Templates()))
				}
			}

			w := alerts.NewFormatWriter(cmd.ErrOrStderr(), format)
			if len(errs) > 0 {
				err := errors.Join(errs...)
				if werr := w.WriteAlert(alerts.NewError("validation failed").WithError(err)); werr != nil {
					return werr
				}
				return err
			}
			return w.WriteAlert(alerts.NewSuccess(fmt.Sprintf("%d templates valid", len(templates))))
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping document to check instead of a release")

	return cmd
}
