// Command lumen is the node's CLI entry point: genesis loading ("genesis
// apply") and a minimal local query-surface server ("serve").
//
// The RPC server, broadcast transport, DHT overlay and signer are external
// collaborators; the "serve" subcommand here only mounts part of the read-only
// QuerySurface for local manual inspection, not a production API surface.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/glacieros/lumen/core/tables"
	"github.com/glacieros/lumen/pkg/config"
	"github.com/glacieros/lumen/pkg/genesis"
)

func main() {
	root := &cobra.Command{Use: "lumen", Short: "decentralized content-delivery and compute network node"}
	root.AddCommand(genesisCmd())
	root.AddCommand(serveCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openBackend(cfg *config.Config) (tables.Committer, error) {
	switch cfg.Storage.Backend {
	case "leveldb":
		return tables.OpenLevelDBBackend(cfg.Storage.DBPath)
	default:
		return tables.NewMemoryBackend(), nil
	}
}

func genesisCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "genesis", Short: "manage genesis state"}
	cmd.AddCommand(genesisApplyCmd())
	return cmd
}

func genesisApplyCmd() *cobra.Command {
	var configName string
	apply := &cobra.Command{
		Use:   "apply [genesis-file]",
		Short: "load a genesis file and seed the node's tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configName)
			if err != nil {
				return err
			}
			path := cfg.Genesis.File
			if len(args) > 0 {
				path = args[0]
			}
			f, err := genesis.Load(path)
			if err != nil {
				return err
			}
			backend, err := openBackend(cfg)
			if err != nil {
				return err
			}
			if closer, ok := backend.(interface{ Close() error }); ok {
				defer closer.Close()
			}
			if err := f.Apply(backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genesis applied: %d committee members, epoch 0\n", len(f.CommitteeMembers))
			return nil
		},
	}
	apply.Flags().StringVar(&configName, "config", "", "config file name (default: \"default\")")
	return apply
}

func serveCmd() *cobra.Command {
	var configName string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "mount the read-only query surface for local inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configName)
			if err != nil {
				return err
			}
			logger := logrus.StandardLogger()
			level, err := logrus.ParseLevel(cfg.Logging.Level)
			if err == nil {
				logger.SetLevel(level)
			}
			backend, err := openBackend(cfg)
			if err != nil {
				return err
			}
			if closer, ok := backend.(interface{ Close() error }); ok {
				defer closer.Close()
			}
			router := newQueryRouter(backend)
			logger.WithField("addr", cfg.Query.ListenAddr).Info("mounting query surface")
			return httpListenAndServe(cfg.Query.ListenAddr, router)
		},
	}
	cmd.Flags().StringVar(&configName, "config", "", "config file name (default: \"default\")")
	return cmd
}
