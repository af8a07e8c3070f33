// Package cli defines the cobra command tree for relatorio.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/cvasconcelos/relatorio-rural/internal/config"
	"github.com/cvasconcelos/relatorio-rural/internal/logging"
)

var flagDev bool

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relatorio",
		Short:         "Gerar históricos de visita do Programa de Segurança Rural",
		Long:          "Collects rural property visit data, renders the fixed Portuguese report and polishes it through an OpenAI-compatible service. Serve the web form or generate from a YAML visit file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flagDev)
		},
	}

	root.PersistentFlags().BoolVar(&flagDev, "dev", false, "human-readable debug logging")

	root.AddCommand(
		newServeCmd(),
		newGerarCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig builds the process configuration, letting --dev win over the
// environment for the logging mode.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flagDev {
		cfg.Dev = true
	}
	return cfg, nil
}
