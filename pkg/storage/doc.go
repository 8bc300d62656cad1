/*
Package storage provides BoltDB-backed persistence for groupsched.

Two things are stored, both in a single file <dataDir>/groupsched.db:

	┌──────────────────── groupsched.db ─────────────────────┐
	│                                                          │
	│  affinity   task id (8B BE) -> group id (8B BE)          │
	│             replaced wholesale by PutAffinity            │
	│                                                          │
	│  passes     startedAt (8B BE ns) + pass id -> JSON       │
	│             PassReport, cursor order = chronological     │
	│                                                          │
	│  meta       affinity_imported_at -> RFC3339 timestamp    │
	└──────────────────────────────────────────────────────────┘

The affinity bucket is created on first import, so a fresh database
reports ErrNoAffinity rather than an empty table. affinity.BoltSource turns
that into the same "empty table" the file source returns for a missing
file.

# Usage

	store, err := storage.NewBoltStore("./groupsched-data")
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.PutAffinity(map[int]int{10: 1, 11: 2}); err != nil {
		return err
	}

	recent, err := store.ListPasses(20) // newest first

# Transactions

Writes go through db.Update and are atomic: a failed PutAffinity leaves the
previous table intact. Reads use db.View and may run concurrently with a
scheduling pass recording its report.
*/
package storage
