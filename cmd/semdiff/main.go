package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

// exitError carries a non-default process exit code
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if stderrors.As(err, &exit) {
			if exit.msg != "" {
				fmt.Fprintln(os.Stderr, exit.msg)
			}
			logging.Close()
			os.Exit(exit.code)
		}
		var structured *errors.Error
		if verbose && stderrors.As(err, &structured) {
			fmt.Fprint(os.Stderr, structured.DetailedString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logging.Close()
		os.Exit(1)
	}
	logging.Close()
}

var rootCmd = &cobra.Command{
	Use:   "semdiff",
	Short: "semdiff - semantic change detection for JavaScript and TypeScript",
	Long: `semdiff compares two versions of JS/TS/JSX/TSX files and reports the edits
that can change behavior: new guards, altered operators, changed signatures,
new side-effecting imports and more. Formatting and comment churn is ignored.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Progress lines go to stderr; stdout carries the report
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		return initLogging(cfg)
	},
}

// initLogging installs the structured logger used by the internal packages
func initLogging(cfg *config.Config) error {
	logCfg := logging.DefaultConfig(verbose)
	logCfg.Writer = os.Stderr
	logCfg.OutputFile = cfg.Log.File
	logCfg.JSONFormat = cfg.Log.JSON

	if !verbose {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logCfg.Level = level
	}

	return logging.Initialize(logCfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .semdiff.yaml or .semdiff/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`semdiff {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(bypassesCmd)
	rootCmd.AddCommand(workerCmd)
}
