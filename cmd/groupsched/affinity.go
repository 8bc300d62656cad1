package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/config"
	"github.com/cuemby/groupsched/pkg/storage"
)

// Affinity commands
var affinityCmd = &cobra.Command{
	Use:   "affinity",
	Short: "Manage the affinity table",
	Long: `Manage the task id to group id table.

The table file holds one "<taskId> <groupId>" pair per line. import copies a
file into the store used by the bolt affinity source; export writes it back
in the same format.`,
}

var affinityImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import an affinity table file into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open affinity file: %w", err)
		}
		defer f.Close()

		m, err := affinity.Parse(f)
		if err != nil {
			return err
		}
		if dups := m.Duplicates(); len(dups) > 0 {
			fmt.Printf("! Duplicate task ids, last entry kept: %v\n", dups)
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.PutAffinity(m.Entries()); err != nil {
			return fmt.Errorf("failed to store affinity table: %w", err)
		}

		fmt.Printf("✓ Imported %d entries into %s\n", m.Len(), store.Path())
		return nil
	},
}

var affinityExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stored affinity table",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := affinity.NewBoltSource(store).Load()
		if err != nil {
			return err
		}
		return affinity.Format(m, os.Stdout)
	},
}

var affinityLookupCmd = &cobra.Command{
	Use:   "lookup TASKID",
	Short: "Resolve a task id through the configured affinity source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("task id must be an integer: %q", args[0])
		}

		var store *storage.BoltStore
		if cfg.Affinity.Source == config.SourceBolt {
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
		m, err := source.Load()
		if err != nil {
			return err
		}

		groupID, ok := m.Lookup(taskID)
		if !ok {
			return fmt.Errorf("task id %d has no group in %s", taskID, source.Describe())
		}
		fmt.Println(groupID)
		return nil
	},
}

func init() {
	affinityCmd.AddCommand(affinityImportCmd)
	affinityCmd.AddCommand(affinityExportCmd)
	affinityCmd.AddCommand(affinityLookupCmd)

	affinityLookupCmd.Flags().String("affinity", "", "Affinity table file (overrides the configured source)")
}
