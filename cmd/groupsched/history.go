package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/groupsched/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scheduling passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		passes, err := store.ListPasses(limit)
		if err != nil {
			return fmt.Errorf("failed to list passes: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(passes)
		}

		if len(passes) == 0 {
			fmt.Println("No passes recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tASSIGNMENTS\tEXECUTORS\tSKIPPED\tERRORS")
		for _, p := range passes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				p.ID,
				p.StartedAt.Format(time.RFC3339),
				p.Duration.Round(time.Microsecond),
				len(p.Assignments),
				p.ExecutorsAssigned(),
				len(p.Outcomes)-p.Count(types.OutcomeAssigned),
				len(p.TopologyErrors),
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of passes to show (0 for all)")
	historyCmd.Flags().Bool("json", false, "Print passes as JSON")
}
