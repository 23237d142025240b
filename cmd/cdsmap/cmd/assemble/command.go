// Package assemble provides the assemble command, which runs a release
// end to end and writes its submission tables.
package assemble

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/cmd/alerts"
	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/pkg/dbgap"
)

// Flags holds the assemble command flags.
type Flags struct {
	DryRun    bool
	Templates []string
}

// NewCommand creates the assemble command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "assemble [release-file]",
		GroupID: "core",
		Short:   "Assemble the submission tables of a release",
		Long: `Assemble loads the sources named by a release file, enriches them,
and builds one submission table per template using the mapping document.
Tables are written to the output directory in every configured format.

A template that fails does not stop the others; failures are reported
at the end and the command exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  cdsmap assemble                               # Use ./release.yaml
  cdsmap assemble releases/b1.yaml              # Explicit release file
  cdsmap assemble --dry-run -o json             # Report without writing
  cdsmap assemble -t "CDS Genomics"             # Only one template
  cdsmap assemble -t "cds imaging*"             # Templates matching a glob`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ReleaseFile()
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd, app, path, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "assemble without writing any file")
	cmd.Flags().StringArrayVarP(&flags.Templates, "template", "t", nil, "assemble only templates matching this name or glob/regex pattern (repeatable)")

	return cmd
}

// Summary is the structured output of a release run.
type Summary struct {
	RunID     string          `json:"run_id"`
	Reports   []output.Report `json:"reports"`
	Skipped   []string        `json:"skipped,omitempty"`
	Written   []string        `json:"written,omitempty"`
	Narrative *Narrative      `json:"narrative,omitempty"`
}

// Narrative is the structured form of the dbGaP release narrative.
type Narrative struct {
	Files           int      `json:"files"`
	Participants    int      `json:"participants"`
	NewParticipants int      `json:"new_participants"`
	Centers         []string `json:"centers"`
	Text            string   `json:"text"`
}

func run(cmd *cobra.Command, app appcontext.Interface, path string, flags *Flags) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}

	cfg, err := app.LoadRelease(path)
	if err != nil {
		return err
	}

	logger := app.Logger()
	outcome, runErr := release.Run(cmd.Context(), cfg,
		release.WithLogger(*logger),
		release.WithDryRun(flags.DryRun),
		release.WithTemplates(flags.Templates...),
	)
	if outcome == nil || outcome.Result == nil {
		return runErr
	}

	summary := summarize(outcome)
	if err := output.Render(cmd.OutOrStdout(), format, summary, output.ReportsData(summary.Reports)); err != nil {
		return err
	}

	if format == output.FormatTable && outcome.Summary != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprint(cmd.OutOrStdout(), outcome.Summary.String())
	}

	if err := writeAlerts(cmd.ErrOrStderr(), format, outcome, flags.DryRun); err != nil {
		return err
	}
	return runErr
}

func summarize(outcome *release.Outcome) Summary {
	s := Summary{
		RunID:   outcome.RunID,
		Reports: output.Reports(outcome.Result.Reports),
		Skipped: outcome.Skipped,
		Written: outcome.Written,
	}
	if outcome.Summary != nil {
		s.Narrative = narrative(*outcome.Summary)
	}
	return s
}

func narrative(s dbgap.Summary) *Narrative {
	return &Narrative{
		Files:           s.Files,
		Participants:    s.Participants,
		NewParticipants: s.NewParticipants,
		Centers:         s.Centers,
		Text:            s.Narrative(),
	}
}

// writeAlerts reports skipped and failed templates and the written files.
func writeAlerts(w io.Writer, format output.Format, outcome *release.Outcome, dryRun bool) error {
	var list []*alerts.Alert
	for _, name := range outcome.Skipped {
		list = append(list, alerts.NewWarning(name+": skipped, no source rows"))
	}
	for _, r := range outcome.Result.Failed() {
		a := alerts.NewError(r.Template).WithError(r.Err)
		if attrs := r.Attributes(); len(attrs) > 0 {
			a.WithDetails(attrs...)
		}
		list = append(list, a)
	}
	switch {
	case dryRun:
		list = append(list, alerts.NewInfo(fmt.Sprintf("dry run: %d tables assembled, nothing written", len(outcome.Result.Order))))
	case len(outcome.Written) > 0:
		list = append(list, alerts.NewSuccess(fmt.Sprintf("%d files written", len(outcome.Written))).WithDetails(outcome.Written...))
	}
	return alerts.WriteAll(alerts.NewFormatWriter(w, format), list...)
}
