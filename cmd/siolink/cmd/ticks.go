package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/siolink/sio"
)

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "Print the transfer period for a baud-rate divisor and mode.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		baud, _ := cmd.Flags().GetUint16("baud")
		mode, _ := cmd.Flags().GetUint16("mode")
		clock, _ := cmd.Flags().GetUint64("clock-rate")

		ticks := sio.TransferTicks(baud, sio.Mode(mode))
		if ticks == 0 {
			fmt.Fprintf(cmd.OutOrStdout(),
				"reload factor %d is reserved, the max slice period applies\n",
				sio.Mode(mode).ReloadFactor())

			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d cycles per transfer, %.1f bytes/s\n",
			uint64(ticks), float64(clock)/float64(ticks))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(ticksCmd)
	ticksCmd.Flags().Uint16("baud", sio.DefaultBaudRate, "baud-rate divisor")
	ticksCmd.Flags().Uint16("mode", 0, "mode register value")
	ticksCmd.Flags().Uint64("clock-rate", sio.MasterClock, "cycles per second")
}
