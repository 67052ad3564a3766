package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/panel"
	"github.com/inodb/cadd-thresholds/internal/panelapp"
)

func newPanelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panels",
		Short: "Build and refresh the PanelApp panel registry",
	}
	cmd.PersistentFlags().Int("pages", 0, "Number of PanelApp listing pages to read (default: panelapp.pages)")
	viper.BindPFlag("panelapp.pages", cmd.PersistentFlags().Lookup("pages"))

	cmd.AddCommand(newPanelsFetchCmd())
	cmd.AddCommand(newPanelsUpdateCmd())
	return cmd
}

func newPanelClient() *panelapp.Client {
	c := panelapp.NewClient(viper.GetString("panelapp.url"))
	c.SetRetryPolicy(viper.GetInt("panelapp.max_retries"), viper.GetDuration("panelapp.backoff"))
	c.SetLogger(logger)
	return c
}

func newPanelsFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fetch <panels.csv>",
		Short:   "Download every panel and its genes into a new registry file",
		Example: `  cadd-thresholds panels fetch data/paneldata/panels_summary.csv --pages 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := newPanelClient().FetchAll(cmd.Context(), viper.GetInt("panelapp.pages"), time.Now())
			if err != nil {
				return err
			}
			reg := panel.NewRegistry(entries)
			if err := reg.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d panels to %s\n", reg.Len(), args[0])
			return nil
		},
	}
}

func newPanelsUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <panels.csv>",
		Short: "Refresh an existing registry against the current PanelApp listing",
		Long: `Back up the registry, then compare it with the current PanelApp listing.
Panels with an unchanged version only get a new check date, panels with a
new version are refetched and new panels are appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			now := time.Now()

			reg, err := panel.LoadWithLogger(path, logger)
			if err != nil {
				return err
			}
			backup, err := panel.Backup(path, now)
			if err != nil {
				return err
			}
			logger.Info("backed up panel registry", zap.String("backup", backup))

			client := newPanelClient()
			listing, err := client.ListPanels(cmd.Context(), viper.GetInt("panelapp.pages"))
			if err != nil {
				return err
			}
			updated, stats, err := panel.Update(cmd.Context(), reg, listing, client, now, logger)
			if err != nil {
				return err
			}
			if err := updated.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d unchanged, %d refreshed, %d added, %d failed; backup at %s\n",
				stats.Unchanged, stats.Refreshed, stats.Added, stats.Failed, backup)
			return nil
		},
	}
}
