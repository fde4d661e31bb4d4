package main

import (
	"fmt"
	"strconv"
	"strings"

	"profiling-bundler/core/logging"

	"github.com/spf13/cobra"
)

var (
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "profbundle",
		Short:         "Build profiling bundles for text models",
		Long:          `Generates binary input files, a benchmark configuration and a profiling script for an OpenVINO text model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init("profbundle", logLevel)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	rootCmd.AddCommand(generateCmd, inspectCmd, planCmd)
}

// parseShapes turns ["input_ids=1,128"] into {"input_ids": [1, 128]}
func parseShapes(values []string) (map[string][]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	shapes := make(map[string][]int, len(values))
	for _, v := range values {
		name, dims, ok := strings.Cut(v, "=")
		if !ok || name == "" || dims == "" {
			return nil, fmt.Errorf("shape %q: expected name=d1,d2,...", v)
		}
		var shape []int
		for _, d := range strings.Split(dims, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(d))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("shape %q: dimension %q is not a positive integer", v, d)
			}
			shape = append(shape, n)
		}
		shapes[name] = shape
	}
	return shapes, nil
}
