package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/pkg/history"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the revisions of the first prefix",
		Long:  "List every recorded revision of the first prefix with the packages it added and removed",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h := history.New(cfg.Prefixes[0])
	if err := h.Update(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	entries := h.Entries()
	if cfg.Settings.OutputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No history recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REV\tDATE\tCHANGES")
	for _, e := range entries {
		var changes []string
		for _, key := range e.Added {
			changes = append(changes, "+"+key)
		}
		for _, key := range e.Removed {
			changes = append(changes, "-"+key)
		}
		if len(changes) == 0 {
			changes = append(changes, e.Op)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Revision, e.Timestamp.Format(time.DateTime), strings.Join(changes, " "))
	}
	return tw.Flush()
}
