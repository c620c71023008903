package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "newsanalyzer",
	Short: "Crawl news search results and group them into topics",
	Long: `newsanalyzer searches a news portal for the configured keywords, extracts
every article behind the result pages, embeds the normalized text with a
word-vector model and groups the articles into topic clusters.

Settings come from a YAML file, NEWSANALYZER_* environment variables and
command flags, in increasing order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyOverrides(&loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		cfg = loaded
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/newsanalyzer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("archive", "", "run archive database path")

	bindFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("archive.path", rootCmd.PersistentFlags().Lookup("archive"))
}

// initConfig loads a local .env file and enables NEWSANALYZER_* lookups.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	viper.SetEnvPrefix("NEWSANALYZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
