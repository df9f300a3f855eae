package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/inputwire/internal/config"
)

type ctxKey string

const cfgKey ctxKey = "cfg"

// Execute builds the root command and runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires configuration.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "inputwire",
		Short:         "inputwire — cross-process input event transport tools",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(v); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKey, v))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml)")

	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newTapCmd())
	cmd.AddCommand(newReplayCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getConfig(cmd *cobra.Command) *viper.Viper {
	v := cmd.Context().Value(cfgKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: config not initialized")
		os.Exit(1)
	}
	return v.(*viper.Viper)
}
