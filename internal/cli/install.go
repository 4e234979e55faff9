package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/solver"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		dryRun bool
		opts   solver.Options
	)

	cmd := &cobra.Command{
		Use:   "install REQUIREMENT...",
		Short: "Install packages",
		Long: `Install one or more packages from the configured repositories into the
first prefix. Dependencies are resolved and installed first.

A requirement is a package name, optionally followed by constraints:
  enpkg install numpy "scipy >= 0.14.0" "nose == 1.3.4-1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args, opts, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and print actions without executing")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Reinstall the requested packages")
	cmd.Flags().BoolVar(&opts.ForceAll, "forceall", false, "Reinstall the requested packages and their dependencies")
	cmd.Flags().BoolVar(&opts.NoDeps, "no-deps", false, "Do not install dependencies")

	return cmd
}

func runInstall(cmd *cobra.Command, args []string, opts solver.Options, dryRun bool) error {
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
		planned, err := e.InstallActions(req, opts)
		if err != nil {
			return err
		}
		actions = append(actions, planned...)
	}
	return execute(cmd, e, actions, dryRun)
}
