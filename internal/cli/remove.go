package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/model"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "remove REQUIREMENT...",
		Aliases: []string{"uninstall"},
		Short:   "Remove packages",
		Long: `Remove one or more packages from the first prefix. Their pre-remove hook
scripts run before the files are deleted. Dependencies are left in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print actions without executing")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string, dryRun bool) error {
	reqs, err := ParseRequirements(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEnpkg(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var actions model.ActionList
	for _, req := range reqs {
		planned, err := e.RemoveActions(req)
		if err != nil {
			return err
		}
		actions = append(actions, planned...)
	}
	return execute(cmd, e, actions, dryRun)
}
