package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"planforge/internal/config"
	"planforge/internal/oracle"
	"planforge/internal/session"
)

var (
	genGoal        string
	genFiles       []string
	genMinutes     int
	genStrict      bool
	genEnergy      string
	genGranularity string
	genOut         string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a task plan from a goal",
	Example: `  planforge generate --goal "learn the basics of woodworking" --minutes 300
  planforge generate --goal "prepare the board deck" --file notes.pdf --file last-deck.pdf --out plan.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		sess, cleanup, err := buildSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		files, err := loadFiles(genFiles)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			accepted, err := sess.AttachFiles(files)
			if err != nil {
				// Partial acceptance: report every violation, continue with
				// whatever was accepted.
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			logger.Info("files attached",
				zap.Int("accepted", len(accepted)), zap.Int("offered", len(files)))
		}

		res, err := sess.Generate(cmd.Context(), session.GenerateParams{
			Goal:             genGoal,
			AllocatedMinutes: genMinutes,
			Strict:           genStrict,
			Energy:           oracle.EnergyLevel(genEnergy),
			Granularity:      oracle.Granularity(genGranularity),
		})
		if err != nil {
			return err
		}

		if res.TimeWarning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.TimeWarning)
		}
		return writePlan(res.Plan, genOut)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genGoal, "goal", "g", "", "goal to plan for (required)")
	generateCmd.Flags().StringArrayVarP(&genFiles, "file", "f", nil, "reference document (repeatable)")
	generateCmd.Flags().IntVarP(&genMinutes, "minutes", "m", 0, "allocated time in minutes (0 = unlimited)")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "treat the allocated time as a hard limit")
	generateCmd.Flags().StringVar(&genEnergy, "energy", "medium", "energy level: low, medium, high")
	generateCmd.Flags().StringVar(&genGranularity, "granularity", "focused", "breakdown granularity: focused, small, micro")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "write the plan to this file instead of stdout")
	_ = generateCmd.MarkFlagRequired("goal")
}
