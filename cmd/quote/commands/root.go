package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pergola-quoter/internal/app"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

var (
	sourcesPath string
	logLevel    string

	stack *app.App
)

var rootCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price pergola and awning orders from the local price lists",
	Long: `quote loads the price lists named in the source list file, then prices free-text
orders or explicit items the same way the quoterd service does.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		cfg, err := common.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if sourcesPath != "" {
			cfg.Catalog.SourcesPath = sourcesPath
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger := app.NewLogger(os.Stderr, cfg.LogLevel)
		stack, err = app.New(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if stack != nil {
			stack.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sourcesPath, "sources", "s", "", "source list file (default $CATALOG_SOURCES)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
