package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/siolink/config"
	"github.com/sarchlab/siolink/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect and manage saved controller states.",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(store *snapshot.Store) error {
			records, err := store.List()
			if err != nil {
				return err
			}

			return printRecords(cmd.OutOrStdout(), records)
		})
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the registers of one snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *snapshot.Store) error {
			rec, err := store.Load(args[0])
			if err != nil {
				return err
			}

			printRecord(cmd.OutOrStdout(), rec)

			return nil
		})
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store *snapshot.Store) error {
			return store.Delete(args[0])
		})
	},
}

func init() {
	snapshotCmd.PersistentFlags().String("db", "",
		"snapshot database, defaults to SIOLINK_SNAPSHOT_DB")

	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// dbPath returns the --db flag or, if it is not given, the database the
// config names.
func dbPath(cmd *cobra.Command, fromConfig func(config.Config) string) (string, error) {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return path, nil
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return "", err
	}

	if path := fromConfig(cfg); path != "" {
		return path, nil
	}

	return "", fmt.Errorf("siolink: no database given, use --db")
}

func withStore(cmd *cobra.Command, f func(store *snapshot.Store) error) error {
	path, err := dbPath(cmd, func(c config.Config) string { return c.SnapshotDB })
	if err != nil {
		return err
	}

	store, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return f(store)
}

func printRecords(out io.Writer, records []snapshot.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROTOCOL\tCYCLE\tCREATED")

	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Name, r.Protocol, r.Cycle, r.Created.Format(time.RFC3339))
	}

	return w.Flush()
}

func printRecord(out io.Writer, r snapshot.Record) {
	fmt.Fprintf(out, "ID:        %s\n", r.ID)
	fmt.Fprintf(out, "Name:      %s\n", r.Name)
	fmt.Fprintf(out, "Protocol:  %s\n", r.Protocol)
	fmt.Fprintf(out, "Cycle:     %d\n", r.Cycle)
	fmt.Fprintf(out, "Created:   %s\n", r.Created.Format(time.RFC3339Nano))
	fmt.Fprintf(out, "SIO_CTRL:  0x%04X\n", r.State.Control)
	fmt.Fprintf(out, "SIO_STAT:  0x%08X\n", r.State.Status)
	fmt.Fprintf(out, "SIO_MODE:  0x%04X\n", r.State.Mode)
	fmt.Fprintf(out, "SIO_BAUD:  0x%04X\n", r.State.BaudRate)
}
