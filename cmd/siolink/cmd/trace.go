package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/siolink/config"
	"github.com/sarchlab/siolink/datarecording"
	"github.com/sarchlab/siolink/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Read link events recorded by run --trace-db.",
}

var traceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print recorded link events in time order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := dbPath(cmd, func(c config.Config) string { return c.TraceDB })
		if err != nil {
			return err
		}

		reader, err := datarecording.NewReader(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		q := tracing.TransferQuery{}
		q.Kind, _ = cmd.Flags().GetString("kind")
		q.From, _ = cmd.Flags().GetUint64("from")
		q.Limit, _ = cmd.Flags().GetInt("limit")
		q.Offset, _ = cmd.Flags().GetInt("offset")

		entries, total, err := tracing.ReadTransfers(cmd.Context(), reader, q)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLOCATION\tKIND\tDATA\tFLAGS\tLOST\tCHANNEL")

		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t0x%02X\t0x%02X\t0x%02X\t%d\n",
				e.Time, e.Location, e.Kind, e.Data, e.Flags, e.Lost, e.Channel)
		}

		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d events\n", len(entries), total)

		return nil
	},
}

func init() {
	traceCmd.PersistentFlags().String("db", "",
		"trace database, defaults to SIOLINK_TRACE_DB")
	traceShowCmd.Flags().String("kind", "", "only show events of this kind")
	traceShowCmd.Flags().Uint64("from", 0, "first cycle to show")
	traceShowCmd.Flags().Int("limit", 100, "maximum number of events, 0 for all")
	traceShowCmd.Flags().Int("offset", 0, "number of events to skip")

	traceCmd.AddCommand(traceShowCmd)
	rootCmd.AddCommand(traceCmd)
}
