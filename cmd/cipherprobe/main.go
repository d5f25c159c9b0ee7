// Command cipherprobe runs classifier trials against cipher oracles: can a
// trained model tell what kind of plaintext hides behind a ciphertext, or
// which cipher produced it, without ever seeing a key.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cipherprobe/checkpoint"
	"cipherprobe/plaintext"
	"cipherprobe/report"
	"cipherprobe/trial"
	"cipherprobe/vocab"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cipherprobe",
		Short:         "measure what a trained classifier can read off a ciphertext",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(listCmd(), runCmd())
	return root
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list the built-in trials",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := pterm.TableData{{"NAME", "LABEL", "SCHEMES", "ROUNDS", "DESCRIPTION"}}
			for _, cfg := range trial.Catalog() {
				data = append(data, []string{
					cfg.Name,
					cfg.Label,
					schemeSummary(cfg),
					fmt.Sprintf("%d", cfg.Rounds),
					cfg.Description,
				})
			}
			return pterm.DefaultTable.
				WithWriter(cmd.OutOrStdout()).
				WithHasHeader().
				WithData(data).
				Render()
		},
	}
}

func runCmd() *cobra.Command {
	var (
		configPath  string
		vocabPath   string
		csvPath     string
		weightsPath string
		seed        int64
		rounds      int
		debug       bool
	)
	cmd := &cobra.Command{
		Use:   "run [trial]",
		Short: "run a catalog trial by name, or a YAML trial via --config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := selectTrial(args, configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("rounds") {
				cfg.Rounds = rounds
			}

			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(level).
				With().Timestamp().Logger()

			words, err := loadVocabulary(cfg, vocabPath)
			if err != nil {
				return err
			}

			reporters := []trial.Reporter{
				report.NewChart(cmd.OutOrStdout()),
				report.NewCSV(csvPath, configSummary(cfg), log),
			}
			runner, err := trial.NewRunner(cfg, words, log, reporters...)
			if err != nil {
				return err
			}
			res := runner.Run(cmd.Context())
			if res.State == trial.Failed {
				return res.Err
			}
			if weightsPath != "" {
				if err := checkpoint.Save(weightsPath, res.Weights); err != nil {
					return fmt.Errorf("saving weights: %w", err)
				}
				log.Info().Str("path", weightsPath).Msg("weights saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML trial configuration file")
	cmd.Flags().StringVar(&vocabPath, "vocab", "data/english_dict.txt", "word list for english plaintext")
	cmd.Flags().StringVar(&csvPath, "csv", "data/out/analysis.csv", "append-only analysis log")
	cmd.Flags().StringVar(&weightsPath, "save-weights", "", "write the trained model's weights to this file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the trial seed")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "override the trial round count")
	cmd.Flags().BoolVar(&debug, "debug", false, "log per-round progress")
	return cmd
}

func selectTrial(args []string, configPath string) (trial.Config, error) {
	switch {
	case configPath != "" && len(args) > 0:
		return trial.Config{}, fmt.Errorf("give either a trial name or --config, not both")
	case configPath != "":
		return trial.LoadConfig(configPath)
	case len(args) == 1:
		cfg, ok := trial.Lookup(args[0])
		if !ok {
			return trial.Config{}, fmt.Errorf("unknown trial %q; see `cipherprobe list`", args[0])
		}
		return cfg, nil
	default:
		return trial.Config{}, fmt.Errorf("missing trial name; see `cipherprobe list`")
	}
}

func loadVocabulary(cfg trial.Config, path string) (*vocab.Vocabulary, error) {
	needed := false
	for _, p := range cfg.Plaintexts {
		if p == plaintext.EnglishText.String() {
			needed = true
		}
	}
	if !needed {
		return nil, nil
	}
	return vocab.Load(path)
}

func schemeSummary(cfg trial.Config) string {
	parts := make([]string, 0, len(cfg.Schemes))
	for _, sc := range cfg.Schemes {
		parts = append(parts, fmt.Sprintf("%s/%s", sc.Scheme, sc.KeyPolicy))
	}
	return strings.Join(parts, " ")
}

func configSummary(cfg trial.Config) string {
	return fmt.Sprintf("label=%s plaintexts=%s schemes=%s model=%s rounds=%d batch=%d",
		cfg.Label,
		strings.Join(cfg.Plaintexts, ","),
		schemeSummary(cfg),
		cfg.Model.Family,
		cfg.Rounds,
		cfg.BatchSize,
	)
}
