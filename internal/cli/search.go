package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/executor"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search for packages",
		Long: `Search the configured repositories for packages whose name contains QUERY.
Every available version is listed; installed ones are marked with a star.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runSearch(cmd, query)
		},
	}

	return cmd
}

func runSearch(cmd *cobra.Command, query string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := loadEnpkg(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	installed, err := executor.NewInstalled(cfg.Prefixes, nil, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	query = strings.ToLower(query)
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSIONS")
	matches := 0
	for _, name := range e.Remote().Names() {
		if !strings.Contains(name, query) {
			continue
		}
		var versions []string
		for _, pkg := range e.Remote().FindPackages(name, "") {
			v := pkg.FullVersion()
			if installed.All().HasPackageKey(pkg.Key()) {
				v = "*" + v
			}
			versions = append(versions, v)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(versions, " "))
		matches++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\nFound %d package(s) matching '%s'\n", matches, query)
	return nil
}
