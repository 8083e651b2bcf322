// Package cmd provides the command-line interface of siolink.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/siolink/config"
	"github.com/sarchlab/siolink/internal/logging"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "siolink",
	Short: "siolink emulates a serial I/O controller and its link.",
	Long: `siolink emulates a serial I/O controller. The controller talks to ` +
		`a peer over TCP or a loopback, and a polling console feeds it from ` +
		`stdin and prints what it receives. Settings come from flags, ` +
		`SIOLINK_* environment variables and a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"env files to load instead of .env")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// configFlags binds every config setting to flags of a command. Env files
// and environment variables are only read after cobra parses the flags, so
// resolve re-applies the flags the user gave on top of them.
type configFlags struct {
	cfg   config.Config
	flags *pflag.FlagSet
}

func bindConfigFlags(cmd *cobra.Command) *configFlags {
	c := &configFlags{
		cfg:   config.Default(),
		flags: pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError),
	}

	c.cfg.BindFlags(c.flags)
	cmd.Flags().AddFlagSet(c.flags)

	return c
}

func (c *configFlags) resolve() (config.Config, error) {
	given := make(map[string]string)
	c.flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			given[f.Name] = f.Value.String()
		}
	})

	loaded, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, err
	}

	c.cfg = loaded
	for name, value := range given {
		if err := c.flags.Set(name, value); err != nil {
			return config.Config{}, fmt.Errorf("siolink: --%s: %w", name, err)
		}
	}

	return c.cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("siolink: %w", err)
	}

	return logging.New(os.Stderr, l), nil
}
