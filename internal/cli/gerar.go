package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cvasconcelos/relatorio-rural/internal/refine"
	"github.com/cvasconcelos/relatorio-rural/internal/visit"
)

func newGerarCmd() *cobra.Command {
	var (
		inputPath string
		outPath   string
		noRefine  bool
	)

	cmd := &cobra.Command{
		Use:   "gerar",
		Short: "Generate a report from a YAML visit file",
		Long:  "Read visit data from a YAML file, validate it, render the report and refine it through the configured service. Same pipeline as the web form, without a browser.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGerar(cmd, inputPath, outPath, noRefine)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "YAML visit file")
	cmd.Flags().StringVar(&outPath, "out", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&noRefine, "sem-refinar", false, "skip the refinement call")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runGerar(cmd *cobra.Command, inputPath, outPath string, noRefine bool) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading visit file: %w", err)
	}

	var in visit.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing visit file: %w", err)
	}

	violations := visit.Validate(in)
	if len(violations.Missing) > 0 {
		return fmt.Errorf("campos obrigatórios não preenchidos: %s", strings.Join(violations.Missing, "; "))
	}
	if len(violations.BadTimes) > 0 {
		return fmt.Errorf("horário inválido (use HH:MM): %s", strings.Join(violations.BadTimes, "; "))
	}

	rec, err := in.Record()
	if err != nil {
		return fmt.Errorf("building record: %w", err)
	}

	final := visit.Render(rec)

	if !noRefine {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY não configurada (use --sem-refinar para gerar sem refinamento)")
		}

		client, err := refine.NewClient(cfg.APIKey, cfg.Model, cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("creating refinement client: %w", err)
		}

		refined, err := client.Refine(cmd.Context(), final)
		if err != nil {
			slog.Warn("refinement failed, using raw template output", "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), "aviso: não foi possível refinar o texto; exibindo o histórico sem refinamento")
		}
		final = refined
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(final+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Histórico salvo em %s\n", outPath)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), final)
	return nil
}
