// Package templates provides the templates command, which lists the
// templates of a mapping document or the rules of one template.
package templates

import (
	"github.com/spf13/cobra"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// Flags holds the templates command flags.
type Flags struct {
	Mapping string
	Ops     bool
}

// NewCommand creates the templates command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "templates [template]",
		GroupID: "core",
		Short:   "List mapping templates or show the rules of one",
		Aliases: []string{"template"},
		Args:    cobra.MaximumNArgs(1),
		Example: `  cdsmap templates                           # Templates of the release mapping
  cdsmap templates "CDS Genomics"            # Rules of one template
  cdsmap templates -m mappings.yaml -o json
  cdsmap templates --ops                     # Available transform operations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if flags.Ops {
				names := transform.Default().Names()
				return output.Render(w, format, names, output.Ops(transform.Default()))
			}

			doc, err := loadDocument(app, flags.Mapping)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				spec, err := doc.Load(args[0])
				if err != nil {
					return err
				}
				rules := output.Rules(spec)
				return output.Render(w, format, rules, output.RulesData(rules))
			}

			list := output.Templates(doc)
			return output.Render(w, format, list, output.TemplatesData(list))
		},
	}

	cmd.Flags().StringVarP(&flags.Mapping, "mapping", "m", "", "mapping document (default: the release's mapping)")
	cmd.Flags().BoolVar(&flags.Ops, "ops", false, "list the available transform operations")

	return cmd
}

// loadDocument reads path, or the mapping of the default release file.
func loadDocument(app appcontext.Interface, path string) (*mapping.Document, error) {
	if path == "" {
		cfg, err := app.LoadRelease(app.ReleaseFile())
		if err != nil {
			return nil, err
		}
		path = cfg.Mapping
	}
	return app.LoadMapping(path)
}
