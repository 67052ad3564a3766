// Package main provides the cadd-thresholds command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/genes"
	"github.com/inodb/cadd-thresholds/internal/panelapp"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".cadd-thresholds"

var logger = zap.NewNop()

// usageError marks errors caused by bad flags or arguments.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	if msg, ok := geneInputMessage(err); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		return ExitError
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// geneInputMessage returns the user-facing message for gene input errors.
func geneInputMessage(err error) (string, bool) {
	var amb *genes.AmbiguousInputError
	var rf *genes.ReadFileError
	var gi *genes.GeneInputError
	if errors.As(err, &amb) || errors.As(err, &rf) || errors.As(err, &gi) {
		return genes.UserMessage(err), true
	}
	return "", false
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool

	root := &cobra.Command{
		Use:   "cadd-thresholds",
		Short: "Evaluate CADD PHRED thresholds against ClinVar labels",
		Long: `cadd-thresholds sweeps CADD PHRED cut-offs 1..99 over ClinVar-labelled
variants and reports a confusion matrix and classification metrics per
threshold, optionally restricted to a gene list or to PanelApp panels.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/"+configName+".yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Human-readable debug logging")
	pf.String("data-dir", "", "Directory holding the per-dataset variant tables")
	pf.String("gene-column", "", "Variant table column holding gene symbols")
	viper.BindPFlag("data.dir", pf.Lookup("data-dir"))
	viper.BindPFlag("gene_column", pf.Lookup("gene-column"))

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(newSweepCmd())
	root.AddCommand(newMissingCmd())
	root.AddCommand(newCategoriesCmd())
	root.AddCommand(newConsequencesCmd())
	root.AddCommand(newPanelMetricsCmd())
	root.AddCommand(newPanelsCmd())
	root.AddCommand(newResultsCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// configDefaults lists every configuration key with its default value. The
// default's type is the type `config set` accepts for the key.
func configDefaults() map[string]any {
	ids := make([]string, len(dataset.DefaultIDs))
	for i, id := range dataset.DefaultIDs {
		ids[i] = id.String()
	}
	return map[string]any{
		"data.dir":             "data",
		"data.pattern":         dataset.DefaultPattern,
		"gene_column":          variant.ColGeneName,
		"batch.datasets":       ids,
		"batch.workers":        runtime.NumCPU(),
		"batch.output_dir":     filepath.Join("data", "paneldata", "panel_metrics"),
		"panelapp.url":         panelapp.DefaultBaseURL,
		"panelapp.max_retries": 5,
		"panelapp.backoff":     time.Second,
		"panelapp.pages":       5,
	}
}

func setDefaults() {
	for k, v := range configDefaults() {
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		viper.SetDefault(k, v)
	}
}

func initConfig(cfgFile string) error {
	setDefaults()
	viper.SetEnvPrefix("CADD_THRESHOLDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
