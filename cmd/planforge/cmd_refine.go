package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"planforge/internal/config"
)

var (
	refinePlanPath string
	refineOut      string
)

var refineCmd = &cobra.Command{
	Use:   "refine [command...]",
	Short: "Edit an existing plan with a natural-language command",
	Example: `  planforge refine --plan plan.json "make all tasks 10 minutes"
  planforge refine --plan plan.json --out plan.json remove anything about graphics`,
	Args: cobra.MinimumNArgs(1),
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

		current, err := readPlan(refinePlanPath)
		if err != nil {
			return err
		}
		if err := sess.SetPlan(current); err != nil {
			return err
		}

		res, err := sess.Refine(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if res.Explanation != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Explanation)
		}
		return writePlan(res.Plan, refineOut)
	},
}

func init() {
	refineCmd.Flags().StringVarP(&refinePlanPath, "plan", "p", "", "plan file to refine (required)")
	refineCmd.Flags().StringVarP(&refineOut, "out", "o", "", "write the refined plan to this file instead of stdout")
	_ = refineCmd.MarkFlagRequired("plan")
}
