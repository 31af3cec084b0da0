package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/louvain"
)

func newInfoCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Print the problem line and comments of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := cnf.ReadHeaderFile(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, header, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "variables: %d\nclauses: %d\n", header.NumVars, header.NumClauses)
				for _, c := range header.Comments {
					if err == nil {
						_, err = fmt.Fprintf(w, "c%s\n", c)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	return cmd
}

type communityOpts struct {
	graph       string
	output      string
	communities string
	raw         string
}

func (o *communityOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.graph, "graph", "g", "vig", "Graph to partition (vig, cvig)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&o.communities, "communities", "", "Write the community ranking to this file")
	cmd.Flags().StringVar(&o.raw, "raw", "", "Write the community id of every node to this file")
}

// export writes the requested community files. Failures are *louvain.ExportError.
func (o *communityOpts) export(report *features.CommunityReport) error {
	if o.communities != "" {
		if err := louvain.WriteCommunitiesFile(o.communities, report.Ranking); err != nil {
			return err
		}
	}
	if o.raw != "" {
		if err := louvain.WriteRawAssignmentFile(o.raw, report.Assignment); err != nil {
			return err
		}
	}
	return nil
}

func (o *communityOpts) print(w io.Writer, report *features.CommunityReport) error {
	return render(w, o.output, report, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "graph: %s\nmodularity: %g\ncommunities: %d\nlargest: %g\nlevels: %d\niterations: %d\n",
			report.Graph, report.Modularity, report.NumCommunities, report.LargestFraction, report.Levels, report.Iterations)
		return err
	})
}

func newModularityCommand(a *app) *cobra.Command {
	opts := communityOpts{}

	cmd := &cobra.Command{
		Use:   "modularity FILE",
		Short: "Partition a formula graph into communities by modularity optimization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := features.ParseGraphKind(opts.graph)
			if err != nil {
				return err
			}
			f, err := cnf.ParseFile(args[0])
			if err != nil {
				return err
			}

			s := a.service()
			defer s.Close()

			report, err := s.Modularity(cmd.Context(), f, kind)
			if err != nil {
				return err
			}
			if err := s.Close(); err != nil {
				return err
			}
			if err := opts.export(report); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), report)
		},
	}
	opts.addFlags(cmd)

	cmd.Flags().Bool("track-moves", false, "Log every node move as JSON lines")
	cmd.Flags().String("moves-file", "moves.jsonl", "File receiving the move log")
	_ = a.config.BindFlag("analysis.track_moves", cmd.Flags().Lookup("track-moves"))
	_ = a.config.BindFlag("analysis.output_file", cmd.Flags().Lookup("moves-file"))
	return cmd
}

func newComponentsCommand(a *app) *cobra.Command {
	opts := communityOpts{}

	cmd := &cobra.Command{
		Use:   "components FILE",
		Short: "Partition a formula graph into connected components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := features.ParseGraphKind(opts.graph)
			if err != nil {
				return err
			}
			f, err := cnf.ParseFile(args[0])
			if err != nil {
				return err
			}

			report, err := a.service().Components(f, kind)
			if err != nil {
				return err
			}
			if err := opts.export(report); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), report)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newScaleFreeCommand(a *app) *cobra.Command {
	var of, output string

	cmd := &cobra.Command{
		Use:   "scale-free FILE",
		Short: "Fit a power law to variable occurrences or clause sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cnf.ParseFile(args[0])
			if err != nil {
				return err
			}

			s := a.service()
			var report *features.ScaleFreeReport
			switch of {
			case "var":
				report, err = s.ScaleFreeVar(f)
			case "clause":
				report, err = s.ScaleFreeClause(f)
			default:
				return fmt.Errorf("unknown distribution %q, want var or clause", of)
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), output, report, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "alpha: %g\nxmin: %d\nks: %g\n", report.Alpha, report.Xmin, report.KS)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&of, "of", "var", "Distribution to fit (var, clause)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().Int("max-xmin", 10, "Largest value tried as the start of the power-law tail")
	_ = a.config.BindFlag("features.max_xmin", cmd.Flags().Lookup("max-xmin"))
	return cmd
}

func newSelfSimilarCommand(a *app) *cobra.Command {
	var graph, output string

	cmd := &cobra.Command{
		Use:   "self-similar FILE",
		Short: "Estimate the fractal dimension of a formula graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := features.ParseGraphKind(graph)
			if err != nil {
				return err
			}
			f, err := cnf.ParseFile(args[0])
			if err != nil {
				return err
			}

			report, err := a.service().SelfSimilar(cmd.Context(), f, kind)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), output, report, func(w io.Writer) error {
				needed := make([]string, len(report.Needed))
				for i, n := range report.Needed {
					needed[i] = fmt.Sprint(n)
				}
				_, err := fmt.Fprintf(w, "dimension: %g\ndecay: %g\nneeded: %s\n",
					report.Dimension, report.Decay, strings.Join(needed, " "))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&graph, "graph", "g", "vig", "Graph to cover (vig, cvig)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().Int("max-radius", 15, "Largest box radius")
	cmd.Flags().Int("min-x", 0, "Smallest radius in the regression")
	cmd.Flags().Int("max-x", 6, "Largest radius in the regression")
	_ = a.config.BindFlag("features.max_radius", cmd.Flags().Lookup("max-radius"))
	_ = a.config.BindFlag("features.min_x", cmd.Flags().Lookup("min-x"))
	_ = a.config.BindFlag("features.max_x", cmd.Flags().Lookup("max-x"))
	return cmd
}

func newAllCommand(a *app) *cobra.Command {
	var format string
	var noHeader bool

	cmd := &cobra.Command{
		Use:   "all FILE|ARCHIVE...",
		Short: "Compute every feature of each formula and print one stat line per instance",
		Long:  "Compute every feature of each formula. Arguments ending in .tar are read as archives of .cnf or .dimacs files.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := features.ParseFormat(format)
			if err != nil {
				return err
			}

			sw, err := features.NewSummaryWriter(cmd.OutOrStdout(), outFormat, !noHeader)
			if err != nil {
				return err
			}

			s := a.service()
			defer s.Close()

			for _, path := range args {
				if filepath.Ext(path) == ".tar" {
					err = s.ComputeArchive(cmd.Context(), path, sw.Write)
				} else {
					var summary *features.Summary
					if summary, err = s.ComputeFile(cmd.Context(), path); err == nil {
						err = sw.Write(summary)
					}
				}
				if err != nil {
					return err
				}
			}
			if err := s.Close(); err != nil {
				return err
			}
			return sw.Close()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format (csv, json, yaml)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the CSV column row")
	return cmd
}
