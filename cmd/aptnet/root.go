package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/buildconfig"
	"github.com/Harshitk-cp/aptnet/internal/config"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/Harshitk-cp/aptnet/internal/service"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "aptnet",
		Short: "Learner aptitude assessment over a Bayesian network",
		Long: `aptnet judges whether a learner is apt to continue a course.

Exercise outcomes are entered as evidence in a discrete Bayesian network;
exact inference yields the mastery of every chapter and the learner's
aptitude at the requested time step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("net", config.NetworkPath(), "network definition file (YAML or JSON); empty uses the built-in e-learning network")

	root.AddCommand(newAssessCmd(logger), newInspectCmd(logger), newMigrateCmd(logger), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "aptnet", buildconfig.String())
		},
	})
	return root
}

func newAssessCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess [-t] <time> [true|false]...",
		Short: "Assess one learner case",
		Long: `Assess one learner case. Outcomes are matched to exercises in order;
exercises without an outcome keep their prior. Percentages are printed
per chapter, followed by the verdict for the given time step.

With -t the output is one line of raw numbers: the chapter percentages
followed by the aptitude percentage.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, _ := cmd.Flags().GetBool("test")
			mode := service.FormatHuman
			if machine {
				mode = service.FormatMachine
			}
			return runAssess(cmd, logger, args, mode)
		},
	}
	cmd.Flags().BoolP("test", "t", false, "machine-readable output")
	return cmd
}

func runAssess(cmd *cobra.Command, logger *zap.Logger, args []string, mode service.FormatMode) error {
	c, err := service.ParseCase(args)
	if err != nil {
		return err
	}
	def, err := loadDefinition(cmd, logger)
	if err != nil {
		return err
	}
	cm, err := service.NewCourseModel(def)
	if err != nil {
		return err
	}
	logger.Debug("network compiled",
		zap.String("network", cm.Name),
		zap.Int("variables", cm.Compiled.Len()),
		zap.Int("cliques", len(cm.Compiled.Cliques())))

	r, err := cm.Evaluate(c)
	if err != nil {
		return err
	}
	return service.FormatAssessment(cmd.OutOrStdout(), r, mode)
}

func newInspectCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a network's variables and junction tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cmd, logger)
			if err != nil {
				return err
			}
			cm, err := service.NewCourseModel(def)
			if err != nil {
				return err
			}
			if err := writeInspection(cmd.OutOrStdout(), cm); err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("export"); path != "" {
				if err := netfile.Save(path, def); err != nil {
					return err
				}
				logger.Info("definition exported", zap.String("path", path))
			}
			return nil
		},
	}
	cmd.Flags().String("export", "", "also write the definition to this file (.json for JSON, otherwise YAML)")
	return cmd
}

func writeInspection(w io.Writer, cm *service.CourseModel) error {
	c := cm.Compiled
	var b strings.Builder
	fmt.Fprintf(&b, "network %s: %d variables, %d cliques, total size %d\n",
		cm.Name, c.Len(), len(c.Cliques()), c.TotalSize())

	b.WriteString("variables:\n")
	for v := 0; v < c.Len(); v++ {
		id := bayesnet.VarID(v)
		st := c.States(id)
		fmt.Fprintf(&b, "  %-14s %-9s %s", c.Name(id), st.Kind(), stateLabels(st))
		if parents := c.Parents(id); len(parents) > 0 {
			fmt.Fprintf(&b, " <- %s", strings.Join(names(c, parents), ", "))
		}
		b.WriteByte('\n')
	}

	b.WriteString("cliques:\n")
	for i, cl := range c.Cliques() {
		fmt.Fprintf(&b, "  #%d size %d: %s\n", i, cl.Size, strings.Join(names(c, cl.Vars), " "))
	}
	b.WriteString("separators:\n")
	for _, s := range c.Separators() {
		fmt.Fprintf(&b, "  #%d - #%d: %s\n", s.A, s.B, strings.Join(names(c, s.Vars), " "))
	}

	fmt.Fprintf(&b, "course: %d exercises (%s%d..), %d results (%s%d..), chapters %s\n",
		cm.Exercises.Len(), cm.Exercises.Prefix, cm.Exercises.Start,
		cm.Results.Len(), cm.Results.Prefix, cm.Results.Start,
		strings.Join(cm.ChapterNames, ", "))

	_, err := io.WriteString(w, b.String())
	return err
}

func stateLabels(st bayesnet.States) string {
	if st.Kind() == bayesnet.KindContinuous {
		return "(continuous)"
	}
	labels := make([]string, st.Len())
	for i := range labels {
		labels[i] = st.Label(i)
	}
	return "[" + strings.Join(labels, " ") + "]"
}

func names(c *bayesnet.Compiled, vars []bayesnet.VarID) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = c.Name(v)
	}
	return out
}

func newMigrateCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL := config.DatabaseURL()
			if dbURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := context.Background()
			pool, err := pgxpool.New(ctx, dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := store.Migrate(ctx, pool, config.MigrationsPath(), logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	}
}

func loadDefinition(cmd *cobra.Command, logger *zap.Logger) (*netfile.Definition, error) {
	path, _ := cmd.Flags().GetString("net")
	if path == "" {
		return netfile.Default(), nil
	}
	logger.Debug("loading network", zap.String("path", path))
	return netfile.Load(path)
}
