package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/louvain"
)

// app is shared by every subcommand; flags are bound into its config
type app struct {
	config     *louvain.Config
	configFile string
}

func (a *app) service() *features.Service {
	return features.NewService(a.config, nil)
}

func newRootCommand() *cobra.Command {
	a := &app{config: louvain.NewConfig()}

	cmd := &cobra.Command{
		Use:           "satfeat",
		Short:         "Structural features of SAT instances",
		Long:          "satfeat builds the variable and clause-variable incidence graphs of DIMACS CNF formulas and computes their modularity, scale-free exponents and self-similarity.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.config.SetOutput(cmd.ErrOrStderr())
			if a.configFile == "" {
				return nil
			}
			if err := a.config.LoadFromFile(a.configFile); err != nil {
				return fmt.Errorf("failed to load config %s: %w", a.configFile, err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML, JSON or TOML configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Int64("seed", 0, "Random seed (default: time based)")
	flags.Float64("precision", 0.000001, "Minimum modularity improvement that starts another level")
	flags.Int("max-levels", 0, "Maximum number of levels, 0 for no limit")
	flags.Int("max-clause-size", 400, "Ignore clauses with more distinct variables when building graphs, 0 for no limit")
	flags.Bool("verify", false, "Check the final modularity against an independent computation")

	bindings := map[string]string{
		"logging.level":            "log-level",
		"algorithm.random_seed":    "seed",
		"algorithm.precision":      "precision",
		"algorithm.max_levels":     "max-levels",
		"features.max_clause_size": "max-clause-size",
		"analysis.verify":          "verify",
	}
	for key, name := range bindings {
		// keys and flags are both fixed above
		_ = a.config.BindFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(
		newInfoCommand(a),
		newModularityCommand(a),
		newComponentsCommand(a),
		newScaleFreeCommand(a),
		newSelfSimilarCommand(a),
		newAllCommand(a),
		newServeCommand(a),
	)
	return cmd
}

// render prints v as text, JSON or YAML. text is used for the text form.
func render(w io.Writer, output string, v interface{}, text func(io.Writer) error) error {
	switch output {
	case "text":
		return text(w)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output %q, want text, json or yaml", output)
	}
}
