package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/groupsched/pkg/config"
	"github.com/cuemby/groupsched/pkg/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestScheduleCommand(t *testing.T) {
	dataDir := t.TempDir()
	err := execute(t, "schedule",
		"--state", filepath.Join("..", "..", "examples", "cluster.yaml"),
		"--affinity", filepath.Join("..", "..", "examples", "affinity.txt"),
		"--data-dir", dataDir,
		"--record",
	)
	require.NoError(t, err)
	assert.Equal(t, config.SourceFile, cfg.Affinity.Source)

	store, err := storage.NewBoltStore(dataDir)
	require.NoError(t, err)
	defer store.Close()

	passes, err := store.ListPasses(0)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, 6, passes[0].ExecutorsAssigned())
}

func TestAffinityImport(t *testing.T) {
	dataDir := t.TempDir()
	table := filepath.Join(t.TempDir(), "affinity.txt")
	require.NoError(t, os.WriteFile(table, []byte("10 1\n11 2\n10 3\n"), 0644))

	require.NoError(t, execute(t, "affinity", "import", table, "--data-dir", dataDir))

	store, err := storage.NewBoltStore(dataDir)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Affinity()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{10: 3, 11: 2}, entries)
}

func TestInvalidStrategyFlag(t *testing.T) {
	err := execute(t, "schedule",
		"--state", filepath.Join("..", "..", "examples", "cluster.yaml"),
		"--strategy", "bin-pack",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bin-pack")
}
