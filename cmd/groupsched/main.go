package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/groupsched/pkg/affinity"
	"github.com/cuemby/groupsched/pkg/config"
	"github.com/cuemby/groupsched/pkg/log"
	"github.com/cuemby/groupsched/pkg/metrics"
	"github.com/cuemby/groupsched/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is the effective configuration, loaded before any command runs
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "groupsched",
	Short: "groupsched - group affinity scheduler for stream topologies",
	Long: `groupsched places the pending executors of stream-processing topologies
on the nodes their units are pinned to.

Each unit carries a task id in its configuration. An affinity table maps
task ids to group ids, and every node advertises its group id in its
metadata. Executors of a unit go to the node of its group.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Init(cfg.LoggerConfig())
		metrics.SetVersion(Version)
		return nil
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"groupsched version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log in JSON format")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory for the affinity store and pass history")

	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(affinityCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the configuration file, if any, and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		c.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("data-dir") {
		c.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("affinity") {
		c.Affinity.Source = config.SourceFile
		c.Affinity.Path, _ = flags.GetString("affinity")
	}
	if flags.Changed("strategy") {
		c.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("interval") {
		c.Interval, _ = flags.GetDuration("interval")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// openStore opens the bbolt store under the configured data directory
func openStore(c *config.Config) (*storage.BoltStore, error) {
	store, err := storage.NewBoltStore(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

// openSource builds the configured affinity source. store is only used
// for the bolt source and may be nil otherwise.
func openSource(c *config.Config, store *storage.BoltStore) (affinity.Source, error) {
	switch c.Affinity.Source {
	case config.SourceBolt:
		if store == nil {
			return nil, fmt.Errorf("the bolt affinity source needs the store")
		}
		return affinity.NewBoltSource(store), nil
	default:
		return affinity.NewFileSource(c.Affinity.Path), nil
	}
}
