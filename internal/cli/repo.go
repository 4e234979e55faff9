package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/config"
)

// NewRepoCmd creates the repo command with subcommands.
func NewRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
		Long: `Add, remove, list, enable and disable egg repositories.

Repository URLs may contain the {ARCH}, {SUBDIR} and {PLATFORM} placeholders,
filled in for the configured platform. A local directory is used as is.`,
	}

	cmd.AddCommand(
		newRepoAddCmd(),
		newRepoRemoveCmd(),
		newRepoListCmd(),
		newRepoEnableCmd(true),
		newRepoEnableCmd(false),
	)

	return cmd
}

func newRepoAddCmd() *cobra.Command {
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add a repository",
		Long:  "Add a repository under NAME, searched after the existing ones",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRepoAdd(args[0], args[1], !disabled)
		},
	}

	cmd.Flags().BoolVar(&disabled, "disabled", false, "Add the repository disabled")

	return cmd
}

func newRepoRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a repository",
		Long:  "Remove a repository by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return updateRepositories(func(cfg *config.Config) error {
				if !cfg.RemoveRepository(args[0]) {
					return fmt.Errorf("repository '%s' not found", args[0])
				}
				return nil
			})
		},
	}

	return cmd
}

func newRepoListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured repositories",
		Long:  "List the configured repositories in search order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printRepositories(cmd.OutOrStdout(), cfg)
			return nil
		},
	}

	return cmd
}

func newRepoEnableCmd(enabled bool) *cobra.Command {
	use, short := "enable NAME", "Enable a repository"
	if !enabled {
		use, short = "disable NAME", "Disable a repository"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return updateRepositories(func(cfg *config.Config) error {
				if !cfg.EnableRepository(args[0], enabled) {
					return fmt.Errorf("repository '%s' not found", args[0])
				}
				return nil
			})
		},
	}

	return cmd
}

func runRepoAdd(name, url string, enabled bool) error {
	return updateRepositories(func(cfg *config.Config) error {
		return cfg.AddRepository(name, url, enabled)
	})
}

// updateRepositories applies change to the configuration, validates it and
// saves it.
func updateRepositories(change func(*config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := change(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cfg.RepositoryURLs(); err != nil {
		return err
	}

	path := getConfigPath()
	if err := cfg.SaveConfig(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	logger.Success("Repositories updated", logger.Fields{"path": path})
	return nil
}

func printRepositories(out io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintf(out, "\nRepositories (%d):\n", len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		status := "enabled"
		if !repo.IsEnabled() {
			status = "disabled"
		}
		_, _ = fmt.Fprintf(out, "  %s: %s (%s)\n", repo.Name, repo.URL, status)
	}
}
