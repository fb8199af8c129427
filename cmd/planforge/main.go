// planforge turns a natural-language goal into a step-by-step task plan
// and refines it with further natural-language commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "planforge",
	Short: "planforge - natural-language task planning",
	Long: `planforge generates a step-by-step task plan from a goal described in
plain language, optionally grounded on attached reference documents, and
refines the plan through further commands ("make all tasks 10 minutes",
"remove anything about graphics").

Plans are plain JSON on stdout or disk; feed a saved plan back to the
refine command to keep editing it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the planforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("planforge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "planforge.yaml"
	}
	return home + "/.planforge/config.yaml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
