package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runFlags *configFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller with a console on stdin and stdout.",
	Long: `Run builds the controller, attaches it to the configured link and ` +
		`paces it against the wall clock until interrupted or until the ` +
		`cycle limit is reached. With a snapshot database the controller ` +
		`state is saved on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := runFlags.resolve()
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := newSession(ctx, cfg, cmd.OutOrStdout(), logger)
		if err != nil {
			return err
		}

		go feedInput(ctx, cmd.InOrStdin(), s.input())

		runErr := s.run(ctx)
		_, saveErr := s.saveSnapshot()

		return errors.Join(runErr, saveErr, s.close())
	},
}

func init() {
	runFlags = bindConfigFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// feedInput copies in to the console until in ends or ctx is done.
func feedInput(ctx context.Context, in io.Reader, console io.Writer) {
	buf := make([]byte, 256)

	for ctx.Err() == nil {
		n, err := in.Read(buf)
		if n > 0 {
			console.Write(buf[:n])
		}

		if err != nil {
			return
		}
	}
}
