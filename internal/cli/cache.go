package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/cache"
	"github.com/glorpus-work/enpkg/pkg/history"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the egg cache",
		Long:  "Clean, show information about, and locate the egg cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the egg cache",
		Long: `Remove partial downloads and the eggs no revision of the first prefix
refers to. Eggs still needed to revert are kept unless --all is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached egg")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display information about the egg cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := loadCacheOperation()
			if err != nil {
				return err
			}
			info, err := op.GetInfo()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
			return nil
		},
	}

	return cmd
}

func newCacheDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the egg cache directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := loadCacheOperation()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), op.GetDirectory())
			return nil
		},
	}

	return cmd
}

func loadCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewOperation(cache.NewManager(cfg.RepositoryCache)), nil
}

func runCacheClean(cmd *cobra.Command, all bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	options := cache.CleanOptions{All: all}
	if !all {
		h := history.New(cfg.Prefixes[0])
		if err := h.Update(); err != nil {
			return err
		}
		referenced := history.NewState()
		for _, e := range h.Entries() {
			for key := range e.State {
				referenced[key] = struct{}{}
			}
		}
		options.Keep = referenced.Contains
	}

	msg, err := cache.NewOperation(cache.NewManager(cfg.RepositoryCache)).Clean(options)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
