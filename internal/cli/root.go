package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/autocoding/internal/logger"
)

// Version is overridden at build time with -ldflags "-X .../cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	rulesPath string
	taggerURL string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "autocoding",
	Short: "AutoCoding - complete concept coding of clinical documents",
	Long: `AutoCoding finishes the coding of clinical text documents after a
concept-recognition service has tagged them.

It splits documents into sentences, tracks history and section context,
decides negation and ambiguity from configured patterns, extends negation
across lists, combines concepts into higher concepts and hands the result
to a pluggable solution for domain specific rules.

The rules file drives everything: patterns, concept sets, negation lists
and the solution with its data.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "autocoding %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.autocoding/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "log as JSON")
	flags.Bool("log-source", false, "include source location in logs")
	flags.StringVar(&rulesPath, "rules", "", "rules file (overrides rules.path)")
	flags.StringVar(&taggerURL, "tagger-url", "", "concept-recognition service URL (overrides tagger.url)")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("rules.path", flags.Lookup("rules"))
	_ = viper.BindPFlag("tagger.url", flags.Lookup("tagger-url"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".autocoding"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match AUTOCODING_*
	viper.SetEnvPrefix("AUTOCODING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(level, logJSON, logSource)
	return nil
}
