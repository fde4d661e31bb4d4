package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"profiling-bundler/core/bundle"
	"profiling-bundler/core/executor"
	"profiling-bundler/core/spec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	specFile     string
	outDir       string
	benchmarkApp string

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Build a profiling bundle locally from a job spec",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&specFile, "file", "f", "", "job spec YAML")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "bundle directory (default ./bundles/<name>)")
	generateCmd.Flags().StringVar(&benchmarkApp, "benchmark-app", "benchmark_app", "benchmark executable used by the script")
	generateCmd.MarkFlagRequired("file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	job, err := spec.ParseJobSpecFile(specFile)
	if err != nil {
		return err
	}
	job.ID = uuid.NewString()
	job.BundleDir = outDir
	if job.BundleDir == "" {
		job.BundleDir = filepath.Join("bundles", job.Name)
	}
	if job.BundleDir, err = filepath.Abs(job.BundleDir); err != nil {
		return err
	}

	deps, err := executor.BuildDeps(job, benchmarkApp)
	if err != nil {
		return err
	}
	progress := bundle.NewChannelNotifier(16)
	deps.Notifier = bundle.MultiNotifier{bundle.LogNotifier{}, progress}

	run, err := bundle.NewJob(job, deps)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress.Updates() {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", update.Progress, update.Log)
		}
	}()
	runErr := run.Run(cmd.Context())
	<-done
	if runErr != nil {
		return runErr
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"id":            job.ID,
		"bundle_dir":    job.BundleDir,
		"configuration": job.ConfigurationPath(),
		"script":        job.ScriptPath(),
		"inputs":        run.Inputs(),
	})
}
