// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/blinklabs-io/guild/codec"
	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/governance"
	"github.com/blinklabs-io/guild/internal/config"
	"github.com/spf13/cobra"
)

// openDatabase opens the configured stores for offline inspection. It
// fails while a running service holds the data dir.
func openDatabase(cfg *config.Config) (*database.Database, error) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if globalFlags.debug {
		logger = commonRun()
	}
	db, err := database.New(database.Config{
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
		DataDir:        cfg.DatabasePath,
		KeepSnapshots:  cfg.KeepSnapshots,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// loadSnapshot returns the snapshot with the given sequence number, or
// the latest complete one when seq is zero
func loadSnapshot(
	ctx context.Context,
	db *database.Database,
	seq uint64,
) ([]byte, *models.SnapshotRecord, error) {
	if seq == 0 {
		return db.LoadLatestSnapshot(ctx)
	}
	return db.LoadSnapshot(ctx, seq)
}

func snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and export saved governance state",
	}
	cmd.AddCommand(snapshotListCommand())
	cmd.AddCommand(snapshotExportCommand())
	cmd.AddCommand(snapshotInspectCommand())
	return cmd
}

func snapshotListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(configFromContext(cmd))
			if err != nil {
				return err
			}
			defer db.Close()
			recs, err := db.ListSnapshots(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeSnapshotTable(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of snapshots to show, 0 for all")
	return cmd
}

func writeSnapshotTable(w io.Writer, recs []models.SnapshotRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTATUS\tSIZE\tENCRYPTED\tCREATED\tCHECKSUM")
	for _, rec := range recs {
		sum := rec.Checksum
		if len(sum) > 16 {
			sum = sum[:16]
		}
		fmt.Fprintf(
			tw,
			"%d\t%s\t%d\t%t\t%s\t%s\n",
			rec.Seq,
			rec.Status,
			rec.Size,
			rec.Encrypted,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			sum,
		)
	}
	return tw.Flush()
}

func snapshotExportCommand() *cobra.Command {
	var seq uint64
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the decrypted CBOR of a snapshot to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(configFromContext(cmd))
			if err != nil {
				return err
			}
			defer db.Close()
			data, rec, err := loadSnapshot(cmd.Context(), db, seq)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"exported snapshot %d (%d bytes) to %s\n",
				rec.Seq,
				len(data),
				args[0],
			)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seq, "seq", 0, "snapshot sequence number, 0 for the latest")
	return cmd
}

func snapshotInspectCommand() *cobra.Command {
	var seq uint64
	var file string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a snapshot in CBOR diagnostic notation and check it restores",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if file != "" {
				var err error
				data, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading snapshot: %w", err)
				}
			} else {
				db, err := openDatabase(configFromContext(cmd))
				if err != nil {
					return err
				}
				defer db.Close()
				data, _, err = loadSnapshot(cmd.Context(), db, seq)
				if err != nil {
					return err
				}
			}
			return inspectSnapshot(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().Uint64Var(&seq, "seq", 0, "snapshot sequence number, 0 for the latest")
	cmd.Flags().StringVar(&file, "file", "", "inspect an exported snapshot file instead of the database")
	return cmd
}

func inspectSnapshot(w io.Writer, data []byte) error {
	diag, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	fmt.Fprintln(w, diag)
	if _, err := governance.RestoreState(data); err != nil {
		return errors.Join(errors.New("snapshot does not restore"), err)
	}
	fmt.Fprintln(w, "snapshot restores cleanly")
	return nil
}

func historyCommand() *cobra.Command {
	var filter models.HistoryFilter
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the governance history trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(configFromContext(cmd))
			if err != nil {
				return err
			}
			defer db.Close()
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			entries, err := db.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&filter.EventType, "type", "", "only show events of this type")
	cmd.Flags().Uint64Var(&filter.VotingId, "voting", 0, "only show events of this voting")
	cmd.Flags().DurationVar(&since, "since", 0, "only show events newer than this")
	cmd.Flags().IntVar(&filter.Limit, "limit", 100, "maximum number of entries, 0 for all")
	return cmd
}

func writeHistory(w io.Writer, entries []models.HistoryEntry) error {
	for _, entry := range entries {
		payload, err := codec.Diagnose(entry.Payload)
		if err != nil {
			payload = fmt.Sprintf("<undecodable: %s>", err)
		}
		if _, err := fmt.Fprintf(
			w,
			"%d %s %s caller=%q %s\n",
			entry.ID,
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.EventType,
			entry.Caller,
			payload,
		); err != nil {
			return err
		}
	}
	return nil
}
