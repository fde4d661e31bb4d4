package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"profiling-bundler/core/introspect"

	"github.com/spf13/cobra"
)

var (
	inspectShapes []string

	inspectCmd = &cobra.Command{
		Use:   "inspect <model.xml|model.yaml>",
		Short: "Print the resolved inputs of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
)

func init() {
	inspectCmd.Flags().StringArrayVar(&inspectShapes, "shape", nil, "concrete shape for a dynamic input, e.g. input_ids=1,128")
}

func runInspect(cmd *cobra.Command, args []string) error {
	overrides, err := parseShapes(inspectShapes)
	if err != nil {
		return err
	}
	reader, err := introspect.ForModel(args[0], overrides)
	if err != nil {
		return err
	}
	specs, err := reader.InputSpecs(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSHAPE\tTYPE\tBYTES")
	for _, s := range specs {
		dims := make([]string, len(s.Shape))
		for i, d := range s.Shape {
			dims[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%d\n", s.Name, strings.Join(dims, ","), s.ElementType, s.ByteSize())
	}
	return w.Flush()
}
