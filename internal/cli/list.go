package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/executor"
)

type listedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Key     string `json:"key"`
	Prefix  string `json:"prefix"`
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var nameFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List the packages installed in every configured prefix, top prefix first.
Use --name to filter packages by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, nameFilter)
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "Filter packages by name (partial match)")

	return cmd
}

func runList(cmd *cobra.Command, nameFilter string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	installed, err := executor.NewInstalled(cfg.Prefixes, nil, nil)
	if err != nil {
		return err
	}

	var packages []listedPackage
	for pkg := range installed.All().IterPackages() {
		if nameFilter != "" && !strings.Contains(pkg.Name(), strings.ToLower(nameFilter)) {
			continue
		}
		packages = append(packages, listedPackage{
			Name:    pkg.Name(),
			Version: pkg.FullVersion(),
			Key:     pkg.Key(),
			Prefix:  pkg.StoreLocation(),
		})
	}

	out := cmd.OutOrStdout()
	if cfg.Settings.OutputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(packages)
	}

	if len(packages) == 0 {
		_, _ = fmt.Fprintln(out, "No packages installed")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tPREFIX")
	for _, p := range packages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Version, p.Prefix)
	}
	return tw.Flush()
}
