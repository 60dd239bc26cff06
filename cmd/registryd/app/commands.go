// Package app provides the entry point for the registryd command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clusterreg/clusterreg/pkg/logger"
)

// NewRootCmd creates the root command for the registryd CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "registryd",
		DisableAutoGenTag: true,
		Short:             "registryd is a lightweight, single-leader service registry",
		Long: `registryd is a lightweight, single-leader service registry.
Providers register their endpoints and heartbeat against the current leader;
consumers discover instances by service name from any node in the cluster.
State is replicated to followers by periodic full snapshots rather than a
consensus protocol, and leadership is assigned deterministically from the
set of peers currently known to be online.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				logger.Errorf("error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file (YAML)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)

	return rootCmd
}
