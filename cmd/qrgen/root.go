package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/qrgen/internal/config"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "qrgen",
		Short: "Generate QR code PDFs from CSV files",
		Long: `qrgen submits a CSV file to the QR code generation service and saves
the returned PDF locally or to Azure Blob Storage.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./qrgen.toml)")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newVersionCmd(opts))

	return root
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qrgen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrgen %s (%s)\n", opts.cfg.Version, opts.cfg.Env())
		},
	}
}
