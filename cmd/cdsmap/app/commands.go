package app

import (
	"github.com/spf13/cobra"

	"github.com/mc2-center/mc2-data-models/cmd/cdsmap/cmd/assemble"
	"github.com/mc2-center/mc2-data-models/cmd/cdsmap/cmd/templates"
	"github.com/mc2-center/mc2-data-models/cmd/cdsmap/cmd/validate"
	"github.com/mc2-center/mc2-data-models/cmd/cdsmap/cmd/vocab"
)

// NewAssembleCommand creates the assemble command with app dependencies.
func (a *App) NewAssembleCommand() *cobra.Command {
	return assemble.NewCommand(a)
}

// NewTemplatesCommand creates the templates command with app dependencies.
func (a *App) NewTemplatesCommand() *cobra.Command {
	return templates.NewCommand(a)
}

// NewVocabCommand creates the vocab command with app dependencies.
func (a *App) NewVocabCommand() *cobra.Command {
	return vocab.NewCommand(a)
}

// NewValidateCommand creates the validate command with app dependencies.
func (a *App) NewValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("cdsmap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
