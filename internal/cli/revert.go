package cli

import (
	"github.com/spf13/cobra"
)

// NewRevertCmd creates the revert command.
func NewRevertCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "revert REVISION",
		Short: "Revert the first prefix to a recorded revision",
		Long: `Bring the packages of the first prefix back to the state recorded at
REVISION. Negative revisions count back from the latest one, so -1 is the
current state; pass them after "--", as in enpkg revert -- -2. Eggs that
are no longer cached are fetched again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevert(cmd, args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print actions without executing")

	return cmd
}

func runRevert(cmd *cobra.Command, revision string, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEnpkg(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	actions, err := e.RevertActionsTo(revision)
	if err != nil {
		return err
	}
	return execute(cmd, e, actions, dryRun)
}
