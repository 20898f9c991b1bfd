package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churnguard/config"
	"churnguard/customer"
	"churnguard/form"
	chttp "churnguard/http"
	"churnguard/ml"
	"churnguard/pipeline"
	"churnguard/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form and JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the artifacts and verify the column contract",
	Long: `Loads the model, scaler and column list, then matches the form's
categories against the column list. Prints the recovered reference level
of every categorical field, or the artifact that failed to load.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var predictInput string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict churn for one customer record",
	Long: `Reads one customer record as JSON (from --input, or stdin when the
flag is "-") and prints the prediction and verdict as JSON.

Example:
  churnguard predict --input record.json`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "JSON record file, - for stdin")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load artifacts and assemble the service
	svc, err := service.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	logger.Info("artifacts loaded",
		zap.String("version", svc.Pipeline().Version()),
		zap.String("model_type", ml.ModelType(svc.Pipeline().Artifacts().Model)))

	// 2. Watch the artifact files
	if cfg.Artifacts.Watch {
		watcher, err := svc.Watch(ctx, cfg.ArtifactPaths())
		if err != nil {
			return fmt.Errorf("watch artifacts: %w", err)
		}
		defer watcher.Stop()
	}

	// 3. Start HTTP server
	server, err := chttp.NewServer(chttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, svc, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 4. Handle graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return server.Stop()
}

func runCheck(cmd *cobra.Command, args []string) error {
	artifacts, err := ml.LoadArtifacts(cfg.ArtifactPaths())
	if err != nil {
		return err
	}
	report := pipeline.CheckContract(customer.Schema, artifacts.Columns)
	printContract(cmd.OutOrStdout(), artifacts, report)

	if !report.OK() {
		if cfg.Artifacts.StrictSchema {
			return report.Err()
		}
		logger.Warn("column contract violated; missing columns are zero-filled", zap.Error(report.Err()))
	}
	return nil
}

func printContract(w io.Writer, artifacts *ml.Artifacts, report pipeline.ContractReport) {
	fmt.Fprintf(w, "version:    %s\n", artifacts.Version)
	fmt.Fprintf(w, "model:      %s (%s)\n", ml.ModelType(artifacts.Model), artifacts.Paths.ModelPath())
	fmt.Fprintf(w, "scaler:     %s over %s\n", artifacts.Scaler.Kind(), strings.Join(artifacts.Scaler.Features(), ", "))
	fmt.Fprintf(w, "columns:    %d\n", len(artifacts.Columns))

	fields := make([]string, 0, len(report.References))
	for field := range report.References {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	fmt.Fprintln(w, "references:")
	for _, field := range fields {
		ref := report.References[field]
		if ref == "" {
			ref = "(none)"
		}
		fmt.Fprintf(w, "  %-18s %s\n", field, ref)
	}

	for _, f := range report.Inferred {
		fmt.Fprintf(w, "inferred reference: %s\n", f)
	}
	for _, f := range report.UnusedFields {
		fmt.Fprintf(w, "unused field: %s\n", f)
	}
	for _, c := range report.UnknownColumns {
		fmt.Fprintf(w, "unknown column: %s\n", c)
	}
	for _, c := range report.MissingIndicators {
		fmt.Fprintf(w, "missing indicator: %s\n", c)
	}
	if report.OK() {
		fmt.Fprintln(w, "contract:   ok")
	}
}

func runPredict(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if predictInput != "-" {
		file, err := os.Open(predictInput)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	var partial customer.Record
	if err := json.NewDecoder(in).Decode(&partial); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	record, err := form.CollectRecord(partial)
	if err != nil {
		return err
	}

	// Predictions from the CLI are not audited and skip the cache.
	local := *cfg
	local.Audit.Enabled = false
	local.Cache.Backend = config.CacheNone
	local.Metrics.Enabled = false

	svc, err := service.Open(cmd.Context(), &local, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	outcome, err := svc.Predict(cmd.Context(), record)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
