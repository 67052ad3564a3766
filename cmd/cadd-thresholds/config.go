package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/cadd-thresholds/internal/dataset"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cadd-thresholds configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".yaml.",
		Example: `  cadd-thresholds config                          # show effective config
  cadd-thresholds config set data.dir /srv/cadd     # point at the dataset directory
  cadd-thresholds config get batch.workers          # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if viper.ConfigFileUsed() == "" {
		fmt.Fprintf(w, "# No config file found; showing defaults. Config file: ~/%s.yaml\n", configName)
	}
	fmt.Fprint(w, string(out))
	return nil
}

// parseConfigValue converts value to the type of key's default.
func parseConfigValue(key, value string) (any, error) {
	def, ok := configDefaults()[key]
	if !ok {
		keys := make([]string, 0, len(configDefaults()))
		for k := range configDefaults() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, usageError{fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(keys, ", "))}
	}

	switch def.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, usageError{fmt.Errorf("%s must be a non-negative integer, got %q", key, value)}
		}
		return n, nil
	case time.Duration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, usageError{fmt.Errorf("%s must be a duration such as 1s or 500ms, got %q", key, value)}
		}
		return value, nil
	case []string:
		parts := strings.Split(value, ",")
		if _, err := dataset.ParseIDs(parts); err != nil {
			return nil, usageError{fmt.Errorf("%s: %w", key, err)}
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
	return value, nil
}

func runConfigSet(w io.Writer, key, value string) error {
	v, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName+".yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, ok := configDefaults()[key]; !ok {
		return usageError{fmt.Errorf("unknown config key %q", key)}
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}
