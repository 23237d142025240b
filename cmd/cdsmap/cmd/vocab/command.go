// Package vocab provides the vocab command for inspecting the value sets
// that resolve source terms to their controlled forms.
package vocab

import (
	"github.com/spf13/cobra"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// Flags holds the flags shared by the vocab subcommands.
type Flags struct {
	ValueSets string
	Sheet     string
}

// NewCommand creates the vocab command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "vocab",
		GroupID: "core",
		Short:   "Inspect value sets",
		Long: `Vocab reads the value-set table of a release (or the file given with
--value-sets) and lists value set names, the terms of one value set, or
how source values resolve against it.`,
		Example: `  cdsmap vocab names
  cdsmap vocab terms primary_diagnosis
  cdsmap vocab resolve primary_diagnosis "Adenocarcinoma NOS"
  cdsmap vocab names --value-sets CDS_Submission_Template.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ValueSets, "value-sets", "", "value-set workbook or CSV (default: the release's value sets)")
	cmd.PersistentFlags().StringVar(&flags.Sheet, "sheet", "", "workbook sheet holding the value sets")

	cmd.AddCommand(newNamesCommand(app, flags))
	cmd.AddCommand(newTermsCommand(app, flags))
	cmd.AddCommand(newResolveCommand(app, flags))

	return cmd
}

func newNamesCommand(app appcontext.Interface, flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List value set names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			cache, err := load(app, flags)
			if err != nil {
				return err
			}
			names, err := cache.Names()
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), format, names, column("Value Set", names))
		},
	}
}

func newTermsCommand(app appcontext.Interface, flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:     "terms <attribute>",
		Aliases: []string{"list"},
		Short:   "List the controlled terms of a value set",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			cache, err := load(app, flags)
			if err != nil {
				return err
			}
			v, err := cache.Vocabulary(args[0])
			if err != nil {
				return err
			}
			for _, c := range v.Collisions() {
				app.Logger().Warn().
					Str("attribute", v.Attribute()).
					Str("key", c.Key).
					Str("kept", c.Kept).
					Str("dropped", c.Dropped).
					Msg("Value set terms collide after normalization")
			}
			terms := v.Terms()
			return output.Render(cmd.OutOrStdout(), format, terms, column("Term", terms))
		},
	}
}

// Resolution is the result of resolving one source value.
type Resolution struct {
	Value    string `json:"value"`
	Resolved string `json:"resolved"`
	Matched  bool   `json:"matched"`
}

func newResolveCommand(app appcontext.Interface, flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <attribute> <value>...",
		Short: "Resolve source values against a value set",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			cache, err := load(app, flags)
			if err != nil {
				return err
			}
			v, err := cache.Vocabulary(args[0])
			if err != nil {
				return err
			}

			results := make([]Resolution, 0, len(args)-1)
			rows := make([][]string, 0, len(args)-1)
			for _, value := range args[1:] {
				r := Resolution{Value: value, Resolved: table.Format(v.Resolve(value))}
				_, r.Matched = v.Lookup(value)
				results = append(results, r)
				matched := ""
				if r.Matched {
					matched = "yes"
				}
				rows = append(rows, []string{r.Value, r.Resolved, matched})
			}
			view := output.Data{
				Headers:         []string{"Value", "Resolved", "Matched"},
				Rows:            rows,
				ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignCenter},
			}
			return output.Render(cmd.OutOrStdout(), format, results, view)
		},
	}
}

// load reads the value sets named by flags or by the default release.
func load(app appcontext.Interface, flags *Flags) (*vocabulary.Cache, error) {
	if flags.ValueSets != "" {
		return app.LoadValueSets(flags.ValueSets, flags.Sheet)
	}

	cfg, err := app.LoadRelease(app.ReleaseFile())
	if err != nil {
		return nil, err
	}
	sheet := flags.Sheet
	if sheet == "" {
		sheet = cfg.ValueSets.Sheet
	}
	return app.LoadValueSets(cfg.ValueSets.Path, sheet, cfg.ValueSets.Options(cfg.StrictLookup)...)
}

func column(header string, values []string) output.Data {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return output.Data{Headers: []string{header}, Rows: rows}
}
