package main

import (
	"fmt"
	"strconv"
	"strings"

	"profiling-bundler/core/models"
	"profiling-bundler/core/planner"

	"github.com/spf13/cobra"
)

var (
	planFlag    string
	planSamples int

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Print how many inputs a plan generates for a dataset size",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}
)

func init() {
	planCmd.Flags().StringVar(&planFlag, "plan", "", "comma separated BATCHxNIREQ entries, e.g. 2x3,4x4")
	planCmd.Flags().IntVar(&planSamples, "samples", 0, "number of samples in the dataset")
	planCmd.MarkFlagRequired("plan")
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := parsePlan(planFlag)
	if err != nil {
		return err
	}
	count, err := planner.PlanCount(plan, planSamples)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), count)
	return nil
}

// parsePlan reads "2x3,4x4" as two entries; entries are not validated here
func parsePlan(s string) ([]models.InferencePlanEntry, error) {
	var plan []models.InferencePlanEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b, n, ok := strings.Cut(strings.ToLower(part), "x")
		if !ok {
			return nil, fmt.Errorf("plan entry %q: expected BATCHxNIREQ", part)
		}
		batch, err := strconv.Atoi(b)
		if err != nil {
			return nil, fmt.Errorf("plan entry %q: %w", part, err)
		}
		nireq, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("plan entry %q: %w", part, err)
		}
		plan = append(plan, models.InferencePlanEntry{Batch: batch, Concurrency: nireq})
	}
	return plan, nil
}
