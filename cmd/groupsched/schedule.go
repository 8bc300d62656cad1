package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuemby/groupsched/pkg/cluster"
	"github.com/cuemby/groupsched/pkg/config"
	"github.com/cuemby/groupsched/pkg/scheduler"
	"github.com/cuemby/groupsched/pkg/storage"
	"github.com/cuemby/groupsched/pkg/types"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule --state FILE",
	Short: "Run one scheduling pass against a cluster state file",
	Long: `Run one scheduling pass against a cluster described in YAML and print
the resulting assignments and per-unit outcomes.

Examples:
  # Place with the default affinity table
  groupsched schedule --state cluster.yaml

  # Use another table and spread executors over all slots of a node
  groupsched schedule --state cluster.yaml --affinity ./affinity.txt --strategy spread`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringP("state", "s", "", "Cluster state file (YAML, required)")
	scheduleCmd.Flags().String("affinity", "", "Affinity table file (overrides the configured source)")
	scheduleCmd.Flags().String("strategy", "", "Placement strategy: single-slot or spread")
	scheduleCmd.Flags().Bool("json", false, "Print the pass report as JSON")
	scheduleCmd.Flags().Bool("record", false, "Record the pass in the history store")
	_ = scheduleCmd.MarkFlagRequired("state")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	statePath, _ := cmd.Flags().GetString("state")
	asJSON, _ := cmd.Flags().GetBool("json")
	record, _ := cmd.Flags().GetBool("record")

	c, err := cluster.LoadState(statePath)
	if err != nil {
		return err
	}

	var store *storage.BoltStore
	if record || cfg.Affinity.Source == config.SourceBolt {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	source, err := openSource(cfg, store)
	if err != nil {
		return err
	}
	opts, err := cfg.SchedulerOptions()
	if err != nil {
		return err
	}
	if record {
		opts = append(opts, scheduler.WithHistory(store, cfg.HistoryRetention))
	}

	report, err := scheduler.New(c, source, opts...).Schedule()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(report *types.PassReport) {
	fmt.Printf("Pass %s (%s)\n", report.ID, report.Duration)
	fmt.Printf("  Affinity entries: %d\n", report.AffinityEntries)
	fmt.Printf("  Registered nodes: %d\n", report.RegisteredNodes)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPOLOGY\tUNIT\tOUTCOME\tTASK\tGROUP\tNODE\tEXECUTORS")
	for _, o := range report.Outcomes {
		task := "-"
		if !o.System && o.TaskID != 0 {
			task = fmt.Sprint(o.TaskID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
			o.TopologyID, o.Unit, o.Kind, task, o.GroupID, dash(o.NodeID), o.Executors)
	}
	_ = w.Flush()

	if len(report.Assignments) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOPOLOGY\tSLOT\tEXECUTORS")
		for _, a := range report.Assignments {
			fmt.Fprintf(w, "%s\t%s\t%v\n", a.TopologyID, a.Slot, a.Executors)
		}
		_ = w.Flush()
	}

	for id, msg := range report.TopologyErrors {
		fmt.Printf("\n✗ Topology %s not scheduled: %s\n", id, msg)
	}

	fmt.Printf("\n✓ %d executors bound in %d assignments\n", report.ExecutorsAssigned(), len(report.Assignments))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
