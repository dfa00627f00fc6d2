package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"StudyChat/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:          "studychat",
		Short:        "AI study assistant for the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.console(cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyBaseURL, v.GetString(config.KeyBaseURL), "completion API base URL")
	flags.Duration(config.KeyTimeout, v.GetDuration(config.KeyTimeout), "HTTP timeout for completion requests")
	flags.String(config.KeyLogDir, v.GetString(config.KeyLogDir), "directory for logs, traces and metrics")
	flags.String(config.KeyFailureDB, "", "sqlite file for the failure journal (disabled when empty)")
	flags.Bool(config.KeyDebug, false, "enable debug logging")
	flags.String(config.KeyEnvFile, v.GetString(config.KeyEnvFile), "dotenv file to load before reading the environment")
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	rootCmd.AddCommand(newAskCmd(v), newCatalogCmd(), newVersionCmd())
	return rootCmd
}
