package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var globalFlags struct {
	configPath  string
	envFile     string
	logLevel    string
	metricsDump bool
	dbAdaptors  string
}

var rootCmd = &cobra.Command{
	Use:   "vsatsla",
	Short: "VSAT bandwidth test SLA compliance reports",
	Long: "vsatsla reads bandwidth test exports, decides which sites carry a valid sample\n" +
		"and reports hourly p5 compliance of every speed profile against its contract.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	envFile := os.Getenv("ENV_FILE_PATH")
	if envFile == "" {
		envFile = ".env"
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&globalFlags.configPath, "config", "", "YAML configuration file (default: built-in configuration)")
	f.StringVar(&globalFlags.envFile, "env-file", envFile, "dotenv file loaded before the configuration")
	f.StringVar(&globalFlags.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	f.BoolVar(&globalFlags.metricsDump, "metrics-dump", false, "print Prometheus metrics of the run to stderr")
	f.StringVar(&globalFlags.dbAdaptors, "db-adaptors", os.Getenv("DB_ADAPTORS"), "comma-separated database dialects to register (default: all)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.Version = version
}
