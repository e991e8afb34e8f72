package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcelsud/timeherenow-example/config"
	"github.com/marcelsud/timeherenow-example/demo"
	"github.com/marcelsud/timeherenow-example/internal/app"
	"github.com/marcelsud/timeherenow-example/logging"
	"github.com/marcelsud/timeherenow-example/metrics"
	"github.com/marcelsud/timeherenow-example/webhook"
	"github.com/spf13/cobra"
)

/* cli runs the demo once against the API without the webhook receiver.
 * Usage: go run cmd/cli/main.go [--only step,...] [--list] [--json]
 */

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		only   []string
		list   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:           "timeherenow-demo",
		Short:         "Run the Time Here Now SDK demo once",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				for _, name := range demo.StepNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return runDemo(cmd, only, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "run only the named steps, in demo order")
	cmd.Flags().BoolVar(&list, "list", false, "list the demo steps and exit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	return cmd
}

func runDemo(cmd *cobra.Command, only []string, asJSON bool) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	logger, sink, err := logging.New(logging.Options{
		Level:         cfg.LogLevel,
		Service:       cfg.ServiceName,
		LokiURL:       cfg.LokiURL,
		LokiBasicAuth: cfg.LokiBasicAuth,
		Out:           cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	recorder := metrics.NewRecorder(webhook.NewStore(webhook.DefaultCapacity))
	client, err := app.NewSDK(cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer client.Close()

	secret, err := app.SigningSecret(cfg)
	if err != nil {
		return err
	}

	orchestrator := demo.New(client.Client, client.API,
		demo.WithLogger(logger),
		demo.WithRunRecorder(recorder),
		demo.WithSigningSecret(secret),
	)

	var report demo.Report
	if len(only) > 0 {
		report, err = orchestrator.RunOnly(ctx, only...)
	} else {
		report, err = orchestrator.Run(ctx)
	}

	printReport(cmd, report, asJSON)
	return err
}

func printReport(cmd *cobra.Command, report demo.Report, asJSON bool) {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}
	for i, step := range report.Steps {
		status := "✓"
		if !step.Success {
			status = "✗"
		}
		fmt.Fprintf(out, "%2d. %s %-20s %s\n", i+1, status, step.Name, step.Duration)
		if step.Error != "" {
			fmt.Fprintf(out, "    %s\n", step.Error)
		}
	}
}
